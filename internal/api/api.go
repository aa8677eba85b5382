package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"chat-relay-backend/internal/api/middleware"
	"chat-relay-backend/internal/queue"
	"chat-relay-backend/internal/service/chat"
	"chat-relay-backend/internal/storage"
	"chat-relay-backend/internal/websocket"

	"github.com/prometheus/client_golang/prometheus"
)

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

// Dependencies are the collaborators route registrars can reach.
type Dependencies struct {
	Chat        *chat.Service
	Handler     *websocket.Handler
	Attachments storage.Store
}

type Options struct {
	CORSOrigins     []string
	RateLimitMax    int
	RateLimitWindow time.Duration
	// Registry collects every metric the process exposes on /metrics. A new
	// one is created when nil.
	Registry *prometheus.Registry
}

type APIServer struct {
	listenAddr          string
	requestQueueManager *queue.RequestQueueManager
	deps                Dependencies
	routeRegistrars     []RouteRegistrar
	metrics             *metrics
	cors                middleware.CORSConfig
	limiter             *middleware.IPRateLimiter
	server              *http.Server
}

func NewAPIServer(listenAddr string, rqm *queue.RequestQueueManager, deps Dependencies, opts Options, registrars ...RouteRegistrar) *APIServer {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.RateLimitMax <= 0 {
		opts.RateLimitMax = 100
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = 15 * time.Minute
	}

	return &APIServer{
		listenAddr:          listenAddr,
		requestQueueManager: rqm,
		deps:                deps,
		routeRegistrars:     registrars,
		metrics:             newMetrics(opts.Registry, opts.Registry, listenAddr, rqm),
		cors: middleware.CORSConfig{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Requested-With", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           10 * time.Minute,
		},
		limiter: middleware.NewIPRateLimiter(opts.RateLimitMax, opts.RateLimitWindow),
	}
}

// Routes builds the full handler tree, /metrics included.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	return s.metrics.instrument(mux)
}

// Run serves until Shutdown is called.
func (s *APIServer) Run() error {
	s.server = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server listening on http://localhost%s", s.listenAddr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *APIServer) Chat() *chat.Service {
	return s.deps.Chat
}

func (s *APIServer) Handler() *websocket.Handler {
	return s.deps.Handler
}

func (s *APIServer) Attachments() storage.Store {
	return s.deps.Attachments
}
