package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"chat-relay-backend/internal/model"
)

// Enqueuer runs jobs off the caller's goroutine.
type Enqueuer interface {
	TryEnqueue(fn func() error) error
}

// sizeLimited is implemented by stores with a hard per-item cap.
type sizeLimited interface {
	MaxSize() int64
}

// Uploader accepts attachments from the chat core and writes them to the
// store on the worker pool, so a slow backend never stalls a room.
type Uploader struct {
	store   Store
	jobs    Enqueuer
	timeout time.Duration
}

func NewUploader(store Store, jobs Enqueuer, timeout time.Duration) *Uploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Uploader{store: store, jobs: jobs, timeout: timeout}
}

func (u *Uploader) Store() Store {
	return u.store
}

// Accept rejects what the backend can never hold and what the pool has no
// room for. Write failures after that are only logged.
func (u *Uploader) Accept(attachment model.Attachment, data []byte) error {
	if limited, ok := u.store.(sizeLimited); ok && int64(len(data)) > limited.MaxSize() {
		return fmt.Errorf("attachment %s: %w", attachment.Key, ErrTooLarge)
	}

	err := u.jobs.TryEnqueue(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
		defer cancel()
		if err := u.store.Put(ctx, attachment, data); err != nil {
			log.Printf("[storage] put %s failed: %v", attachment.Key, err)
			return err
		}
		log.Printf("[storage] stored %s (%s, %d bytes) for room %s", attachment.Key, attachment.ContentType, attachment.Size, attachment.Room)
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue attachment %s: %w", attachment.Key, err)
	}
	return nil
}
