package websocket

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	connections prometheus.Gauge
	rooms       prometheus.Gauge
	delivered   prometheus.Counter
	dropped     prometheus.Counter
	events      *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewMetrics builds the websocket collectors and registers them with reg.
// A nil reg leaves them unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chat_app_ws_connections",
				Help: "Current number of active websocket connections.",
			},
		),
		rooms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chat_app_ws_rooms",
				Help: "Current number of chat rooms.",
			},
		),
		delivered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_app_ws_messages_delivered_total",
				Help: "Total websocket frames queued for clients.",
			},
		),
		dropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_app_ws_messages_dropped_total",
				Help: "Frames dropped because a client buffer was full or the client was gone.",
			},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_app_ws_events_total",
				Help: "Inbound websocket events by name.",
			},
			[]string{"event"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_app_ws_errors_total",
				Help: "Error events sent to clients by code.",
			},
			[]string{"code"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.connections, m.rooms, m.delivered, m.dropped, m.events, m.errors)
	}
	return m
}

func (m *Metrics) incConnections() {
	m.connections.Inc()
}

func (m *Metrics) decConnections() {
	m.connections.Dec()
}

func (m *Metrics) setRooms(count int) {
	m.rooms.Set(float64(count))
}

func (m *Metrics) addDelivered(count int) {
	m.delivered.Add(float64(count))
}

func (m *Metrics) incDropped() {
	m.dropped.Inc()
}

func (m *Metrics) incEvent(name string) {
	m.events.WithLabelValues(name).Inc()
}

func (m *Metrics) incError(code string) {
	m.errors.WithLabelValues(code).Inc()
}
