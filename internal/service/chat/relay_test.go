package chat

import (
	"fmt"
	"testing"

	"chat-relay-backend/internal/model"

	"github.com/stretchr/testify/require"
)

func newTestRelay(t *testing.T, maxHistory int) (*Relay, *Directory) {
	t.Helper()
	r := NewRegistry()
	r.Connect("c1")
	d := NewDirectory(r, maxHistory)
	d.Join("c1", "general", nil)
	return NewRelay(d, fixedClock, sequentialIDs()), d
}

func TestRelaySubmitDefaults(t *testing.T) {
	rl, _ := newTestRelay(t, 0)

	d, err := rl.Submit("general", Draft{Text: "hi", Sender: "alice"}, nil)
	require.NoError(t, err)
	require.Equal(t, "id-1", d.Message.ID)
	require.Equal(t, "2024-05-01T12:00:00Z", d.Message.Timestamp)
	require.Equal(t, model.MessageStatusSent, d.Message.Status)
	require.Equal(t, model.MessageKindText, d.Message.Kind)
	require.Equal(t, []model.ConnectionID{"c1"}, d.Recipients)
}

func TestRelaySubmitKeepsClientFields(t *testing.T) {
	rl, _ := newTestRelay(t, 0)

	d, err := rl.Submit("general", Draft{ID: "m-1", Text: "hi", Timestamp: "2020-01-01T00:00:00Z"}, nil)
	require.NoError(t, err)
	require.Equal(t, "m-1", d.Message.ID)
	require.Equal(t, "2020-01-01T00:00:00Z", d.Message.Timestamp)
}

func TestRelaySubmitUnknownRoom(t *testing.T) {
	rl, _ := newTestRelay(t, 0)
	_, err := rl.Submit("nowhere", Draft{Text: "hi"}, nil)
	require.ErrorIs(t, err, ErrUnknownRoom)
	require.True(t, Silent(err))
}

func TestRelayStatusIsMonotonic(t *testing.T) {
	rl, _ := newTestRelay(t, 0)
	_, err := rl.Submit("general", Draft{ID: "m-1", Text: "hi"}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		status model.MessageStatus
		err    error
	}{
		{name: "sent again", status: model.MessageStatusSent, err: ErrStatusRegression},
		{name: "delivered", status: model.MessageStatusDelivered},
		{name: "delivered again", status: model.MessageStatusDelivered, err: ErrStatusRegression},
		{name: "read", status: model.MessageStatusRead},
		{name: "back to delivered", status: model.MessageStatusDelivered, err: ErrStatusRegression},
		{name: "read again", status: model.MessageStatusRead, err: ErrStatusRegression},
		{name: "garbage", status: "seen", err: ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := rl.UpdateStatus("general", "m-1", tt.status, nil)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.status, d.Message.Status)
		})
	}

	msg, err := rl.Get("general", "m-1")
	require.NoError(t, err)
	require.Equal(t, model.MessageStatusRead, msg.Status)
}

func TestRelayUpdateUnknownMessage(t *testing.T) {
	rl, _ := newTestRelay(t, 0)
	_, err := rl.UpdateStatus("general", "missing", model.MessageStatusRead, nil)
	require.ErrorIs(t, err, ErrUnknownMessage)
}

func TestRelayReusedIDResolvesNewest(t *testing.T) {
	rl, _ := newTestRelay(t, 0)
	_, err := rl.Submit("general", Draft{ID: "dup", Text: "first"}, nil)
	require.NoError(t, err)
	_, err = rl.Submit("general", Draft{ID: "dup", Text: "second"}, nil)
	require.NoError(t, err)

	msg, err := rl.Get("general", "dup")
	require.NoError(t, err)
	require.Equal(t, "second", msg.Text)
	require.Equal(t, 2, rl.LogLen("general"))
}

func TestRelayHistoryIsBounded(t *testing.T) {
	rl, _ := newTestRelay(t, 3)
	for i := 1; i <= 5; i++ {
		_, err := rl.Submit("general", Draft{ID: fmt.Sprintf("m-%d", i), Text: "x"}, nil)
		require.NoError(t, err)
	}

	require.Equal(t, 3, rl.LogLen("general"))
	_, err := rl.Get("general", "m-2")
	require.ErrorIs(t, err, ErrUnknownMessage)
	_, err = rl.Get("general", "m-3")
	require.NoError(t, err)
}

func TestRelayEvictionKeepsReusedID(t *testing.T) {
	rl, _ := newTestRelay(t, 2)
	for _, text := range []string{"old", "other", "new"} {
		id := "dup"
		if text == "other" {
			id = "x"
		}
		_, err := rl.Submit("general", Draft{ID: id, Text: text}, nil)
		require.NoError(t, err)
	}

	msg, err := rl.Get("general", "dup")
	require.NoError(t, err)
	require.Equal(t, "new", msg.Text)
}

func TestRelayReturnsCopies(t *testing.T) {
	rl, _ := newTestRelay(t, 0)
	d, err := rl.Submit("general", Draft{ID: "m-1", Text: "hi"}, nil)
	require.NoError(t, err)

	d.Message.Text = "mutated"
	msg, err := rl.Get("general", "m-1")
	require.NoError(t, err)
	require.Equal(t, "hi", msg.Text)
}
