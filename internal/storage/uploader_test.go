package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-relay-backend/internal/model"
	"chat-relay-backend/internal/queue"
	"chat-relay-backend/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestUploaderWritesOnWorkerPool(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	q := queue.NewRequestQueueManager(4, 1)

	attachment := model.Attachment{Key: "k1", Room: "general", Name: "cat.png", Size: 3}
	done := make(chan struct{})
	store.EXPECT().
		Put(gomock.Any(), attachment, []byte("png")).
		DoAndReturn(func(ctx context.Context, _ model.Attachment, _ []byte) error {
			close(done)
			return nil
		})

	u := NewUploader(store, q, time.Second)
	require.NoError(u.Accept(attachment, []byte("png")))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("attachment was not written")
	}
	q.Shutdown()
}

func TestUploaderLogsWriteFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	q := queue.NewRequestQueueManager(4, 1)

	store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("backend down"))

	u := NewUploader(store, q, time.Second)
	require.NoError(u.Accept(model.Attachment{Key: "k1"}, []byte("x")), "write errors surface only in logs")
	q.Shutdown()
}

type fullQueue struct{}

func (fullQueue) TryEnqueue(func() error) error { return queue.ErrQueueFull }

func TestUploaderRejectsWhenQueueFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	u := NewUploader(store, fullQueue{}, time.Second)
	err := u.Accept(model.Attachment{Key: "k1"}, []byte("x"))
	require.ErrorIs(t, err, queue.ErrQueueFull)
}

func TestUploaderRejectsOversizedForBackend(t *testing.T) {
	s := NewDynamoStore(nil, "", 0)
	u := NewUploader(s, fullQueue{}, time.Second)

	err := u.Accept(model.Attachment{Key: "k1"}, make([]byte, dynamoMaxData+1))
	require.ErrorIs(t, err, ErrTooLarge)
}
