package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"chat-relay-backend/internal/dto"
	"chat-relay-backend/internal/model"
)

// Hub owns the live clients. Membership changes go through Run; Send and
// Broadcast may be called from any goroutine and never block.
type Hub struct {
	Register   chan *WSClient
	Unregister chan *WSClient

	mu      sync.RWMutex
	clients map[model.ConnectionID]*WSClient
	stopped chan struct{}
	metrics *Metrics
}

func NewHub(metrics *Metrics) *Hub {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Hub{
		Register:   make(chan *WSClient),
		Unregister: make(chan *WSClient),
		clients:    make(map[model.ConnectionID]*WSClient),
		stopped:    make(chan struct{}),
		metrics:    metrics,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			close(client.registered)
			h.metrics.incConnections()

		case client := <-h.Unregister:
			h.mu.Lock()
			current, ok := h.clients[client.ID]
			if ok && current == client {
				delete(h.clients, client.ID)
			}
			h.mu.Unlock()
			if ok && current == client {
				h.metrics.decConnections()
			}
		}
	}
}

// register blocks until Run has added the client, so events addressed to
// it right after registration are not lost.
func (h *Hub) register(ctx context.Context, client *WSClient) bool {
	select {
	case h.Register <- client:
	case <-h.stopped:
		return false
	case <-ctx.Done():
		return false
	}
	<-client.registered
	return true
}

func (h *Hub) unregister(client *WSClient) {
	select {
	case h.Unregister <- client:
	case <-h.stopped:
	}
}

func (h *Hub) Send(to model.ConnectionID, event dto.Event) bool {
	frame, err := json.Marshal(event)
	if err != nil {
		log.Printf("[hub] marshal %s: %v", event.Name, err)
		return false
	}
	return h.deliver(to, frame)
}

func (h *Hub) Broadcast(to []model.ConnectionID, event dto.Event) int {
	if len(to) == 0 {
		return 0
	}
	frame, err := json.Marshal(event)
	if err != nil {
		log.Printf("[hub] marshal %s: %v", event.Name, err)
		return 0
	}
	delivered := 0
	for _, id := range to {
		if h.deliver(id, frame) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) deliver(to model.ConnectionID, frame []byte) bool {
	h.mu.RLock()
	client, ok := h.clients[to]
	h.mu.RUnlock()
	if !ok || client.closed() {
		h.metrics.incDropped()
		return false
	}

	if !client.enqueue(frame) {
		h.metrics.incDropped()
		log.Printf("[hub] client %s is not keeping up, closing", client.ID)
		client.close()
		return false
	}
	h.metrics.addDelivered(1)
	return true
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client and waits up to timeout for their read loops
// to unregister.
func (h *Hub) Shutdown(timeout time.Duration) {
	h.closeAll()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.Count() == 0 {
			return
		}
		select {
		case <-h.stopped:
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
	log.Printf("[hub] shutdown timed out with %d clients", h.Count())
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.shutdown()
	}
}
