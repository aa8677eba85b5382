package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"chat-relay-backend/internal/dto"
	"chat-relay-backend/internal/model"
)

type sent struct {
	to    model.ConnectionID
	event dto.Event
}

// recordingSender captures every outbound event in send order.
type recordingSender struct {
	mu      sync.Mutex
	events  []sent
	offline map[model.ConnectionID]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{offline: make(map[model.ConnectionID]bool)}
}

func (r *recordingSender) Send(to model.ConnectionID, event dto.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline[to] {
		return false
	}
	r.events = append(r.events, sent{to: to, event: event})
	return true
}

func (r *recordingSender) Broadcast(to []model.ConnectionID, event dto.Event) int {
	n := 0
	for _, id := range to {
		if r.Send(id, event) {
			n++
		}
	}
	return n
}

func (r *recordingSender) to(id model.ConnectionID, name string) []dto.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dto.Event
	for _, s := range r.events {
		if s.to == id && (name == "" || s.event.Name == name) {
			out = append(out, s.event)
		}
	}
	return out
}

func (r *recordingSender) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type recordingMirror struct {
	mu     sync.Mutex
	events map[string][]dto.Event
}

func (m *recordingMirror) Mirror(room string, event dto.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = make(map[string][]dto.Event)
	}
	m.events[room] = append(m.events[room], event)
}

type recordingSink struct {
	accepted []model.Attachment
	data     [][]byte
	err      error
}

func (s *recordingSink) Accept(a model.Attachment, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.accepted = append(s.accepted, a)
	s.data = append(s.data, data)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestService(t *testing.T, cfg Config) (*Service, *recordingSender) {
	t.Helper()
	sender := newRecordingSender()
	if cfg.Now == nil {
		cfg.Now = fixedClock
	}
	if cfg.NewID == nil {
		cfg.NewID = sequentialIDs()
	}
	return New(sender, cfg), sender
}

// identify connects id and binds it to the given user.
func identify(t *testing.T, s *Service, id model.ConnectionID, userID, username string) {
	t.Helper()
	s.Connect(id)
	if err := s.SetUser(id, model.Identity{ID: userID, Username: username}); err != nil {
		t.Fatalf("set user %s: %v", userID, err)
	}
}

func onlineUsers(t *testing.T, e dto.Event) []model.Identity {
	t.Helper()
	users, ok := e.Data.([]model.Identity)
	if !ok {
		t.Fatalf("online_users payload is %T", e.Data)
	}
	return users
}

func last(events []dto.Event) dto.Event {
	if len(events) == 0 {
		return dto.Event{}
	}
	return events[len(events)-1]
}
