package storage

import (
	"context"
	"testing"

	"chat-relay-backend/internal/model"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	require := require.New(t)
	s := NewMemoryStore(0)
	ctx := context.Background()

	data := []byte("GIF89a")
	require.NoError(s.Put(ctx, model.Attachment{Key: "k1", Name: "a.gif"}, data))
	data[0] = 'X'

	a, got, err := s.Get(ctx, "k1")
	require.NoError(err)
	require.Equal("a.gif", a.Name)
	require.Equal([]byte("GIF89a"), got)

	_, _, err = s.Get(ctx, "missing")
	require.ErrorIs(err, ErrNotFound)
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	require := require.New(t)
	s := NewMemoryStore(2)
	ctx := context.Background()

	for _, key := range []string{"k1", "k2", "k3"} {
		require.NoError(s.Put(ctx, model.Attachment{Key: key}, []byte(key)))
	}
	require.Equal(2, s.Len())
	_, _, err := s.Get(ctx, "k1")
	require.ErrorIs(err, ErrNotFound)
	_, _, err = s.Get(ctx, "k3")
	require.NoError(err)
}
