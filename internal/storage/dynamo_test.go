package storage

import (
	"context"
	"testing"
	"time"

	"chat-relay-backend/internal/database"
	"chat-relay-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items keyed by attachmentKey.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(item map[string]types.AttributeValue) string {
	if s, ok := item["attachmentKey"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoStoreRoundTrip(t *testing.T) {
	require := require.New(t)
	fake := newFakeDynamo()
	s := NewDynamoStore(database.NewWithAPI(fake), "T", time.Hour)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	in := model.Attachment{Key: "k1", Room: "general", Name: "cat.png", ContentType: "image/png", Size: 3, UploadedBy: "alice"}
	require.NoError(s.Put(ctx, in, []byte("png")))

	out, data, err := s.Get(ctx, "k1")
	require.NoError(err)
	require.Equal(in, out)
	require.Equal([]byte("png"), data)

	now = now.Add(2 * time.Hour)
	_, _, err = s.Get(ctx, "k1")
	require.ErrorIs(err, ErrNotFound, "expired items are hidden before the table TTL sweeps them")
	require.NotContains(fake.items, "k1", "expired item is deleted on read")
}

func TestDynamoStoreMissing(t *testing.T) {
	s := NewDynamoStore(database.NewWithAPI(newFakeDynamo()), "T", 0)
	_, _, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStoreRejectsLargeItems(t *testing.T) {
	s := NewDynamoStore(database.NewWithAPI(newFakeDynamo()), "T", 0)
	err := s.Put(context.Background(), model.Attachment{Key: "big"}, make([]byte, dynamoMaxData+1))
	require.ErrorIs(t, err, ErrTooLarge)
}
