//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../../mocks/mock_store.go -package=mocks
package storage

import (
	"context"
	"errors"

	"chat-relay-backend/internal/model"
)

var (
	ErrNotFound = errors.New("storage: attachment not found")
	ErrTooLarge = errors.New("storage: attachment exceeds backend limit")
)

// Store persists shared file bytes next to their metadata.
type Store interface {
	Put(ctx context.Context, attachment model.Attachment, data []byte) error
	Get(ctx context.Context, key string) (model.Attachment, []byte, error)
}
