package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chat-relay-backend/internal/database"
	"chat-relay-backend/internal/model"
)

// DynamoDB caps an item at 400 KB; keep headroom for the metadata.
const dynamoMaxData = 380 * 1024

type DynamoStore struct {
	db    *database.DynamoDBClient
	table string
	ttl   time.Duration
	now   func() time.Time
}

func NewDynamoStore(db *database.DynamoDBClient, table string, ttl time.Duration) *DynamoStore {
	if table == "" {
		table = model.AttachmentsTable
	}
	return &DynamoStore{db: db, table: table, ttl: ttl, now: time.Now}
}

func (s *DynamoStore) Put(ctx context.Context, attachment model.Attachment, data []byte) error {
	if len(data) > dynamoMaxData {
		return fmt.Errorf("dynamodb put %s (%d bytes): %w", attachment.Key, len(data), ErrTooLarge)
	}

	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl).Unix()
	}
	item := model.NewAttachmentItem(attachment, data, expiresAt)
	if err := s.db.PutItem(ctx, s.table, item); err != nil {
		return fmt.Errorf("dynamodb put %s: %w", attachment.Key, err)
	}
	return nil
}

func (s *DynamoStore) MaxSize() int64 {
	return dynamoMaxData
}

func (s *DynamoStore) Get(ctx context.Context, key string) (model.Attachment, []byte, error) {
	var item model.AttachmentItem
	itemKey := database.StringKey("attachmentKey", key)
	err := s.db.GetItem(ctx, s.table, itemKey, &item)
	if errors.Is(err, database.ErrNotFound) {
		return model.Attachment{}, nil, ErrNotFound
	}
	if err != nil {
		return model.Attachment{}, nil, err
	}
	// The table TTL sweep lags; drop expired items on read.
	if item.ExpiresAt > 0 && s.now().Unix() > item.ExpiresAt {
		if err := s.db.DeleteItem(ctx, s.table, itemKey); err != nil {
			log.Printf("[storage] delete expired %s: %v", key, err)
		}
		return model.Attachment{}, nil, ErrNotFound
	}
	return item.Attachment(), item.Data, nil
}
