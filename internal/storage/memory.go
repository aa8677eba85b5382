package storage

import (
	"context"
	"sync"

	"chat-relay-backend/internal/model"
)

type memoryEntry struct {
	attachment model.Attachment
	data       []byte
}

// MemoryStore keeps the newest max attachments in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	max     int
	order   []string
	entries map[string]memoryEntry
}

func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{
		max:     max,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Put(_ context.Context, attachment model.Attachment, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[attachment.Key]; !exists {
		s.order = append(s.order, attachment.Key)
	}
	s.entries[attachment.Key] = memoryEntry{
		attachment: attachment,
		data:       append([]byte(nil), data...),
	}

	for s.max > 0 && len(s.order) > s.max {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (model.Attachment, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return model.Attachment{}, nil, ErrNotFound
	}
	return e.attachment, append([]byte(nil), e.data...), nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
