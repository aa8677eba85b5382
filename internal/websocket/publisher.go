package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"chat-relay-backend/internal/dto"

	"github.com/go-redis/redis/v8"
)

// Enqueuer runs jobs off the caller's goroutine.
type Enqueuer interface {
	TryEnqueue(fn func() error) error
}

// RedisMirror publishes a copy of room traffic to one Redis channel per
// room. Delivery is best effort and at most once.
type RedisMirror struct {
	client *redis.Client
	prefix string
	jobs   Enqueuer
}

func NewRedisMirror(client *redis.Client, prefix string, jobs Enqueuer) *RedisMirror {
	return &RedisMirror{client: client, prefix: prefix, jobs: jobs}
}

func (m *RedisMirror) Mirror(room string, event dto.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[mirror] marshal %s for %s: %v", event.Name, room, err)
		return
	}
	channel := m.prefix + room
	err = m.jobs.TryEnqueue(func() error {
		return m.Publish(channel, payload)
	})
	if err != nil {
		log.Printf("[mirror] dropped %s for %s: %v", event.Name, room, err)
	}
}

func (m *RedisMirror) Publish(channel string, payload []byte) error {
	if channel == "" {
		return fmt.Errorf("websocket publish: channel required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("[mirror] publish to %s: %v", channel, err)
		return fmt.Errorf("websocket publish: redis publish: %w", err)
	}
	return nil
}
