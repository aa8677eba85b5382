package chat

import (
	"fmt"
	"sync"
	"testing"

	"chat-relay-backend/internal/model"

	"github.com/stretchr/testify/require"
)

func newDirectoryWith(t *testing.T, users map[model.ConnectionID]string) (*Directory, *Registry) {
	t.Helper()
	r := NewRegistry()
	for id, name := range users {
		r.Connect(id)
		if name == "" {
			continue
		}
		_, _, err := r.Bind(id, model.Identity{ID: "u-" + name, Username: name})
		require.NoError(t, err)
	}
	return NewDirectory(r, 10), r
}

func TestDirectoryJoinIsIdempotent(t *testing.T) {
	d, _ := newDirectoryWith(t, map[model.ConnectionID]string{"c1": "alice"})

	first := d.Join("c1", "general", nil)
	require.True(t, first.Changed)
	second := d.Join("c1", "general", nil)
	require.False(t, second.Changed)
	require.Equal(t, first.Members, second.Members)
	require.Len(t, second.Recipients, 1)
}

func TestDirectoryMembersInJoinOrder(t *testing.T) {
	d, _ := newDirectoryWith(t, map[model.ConnectionID]string{
		"c1": "alice", "c2": "", "c3": "bob", "c4": "carol",
	})

	d.Join("c3", "dev", nil)
	d.Join("c2", "dev", nil)
	d.Join("c1", "dev", nil)
	d.Join("c4", "dev", nil)
	_, err := d.Leave("c1", "dev", nil)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, m := range d.MembersOf("dev") {
		names = append(names, m.Username)
	}
	require.Equal(t, []string{"bob", "carol"}, names)
}

func TestDirectoryLeaveRetainsEmptyRoom(t *testing.T) {
	d, r := newDirectoryWith(t, map[model.ConnectionID]string{"c1": "alice"})

	d.Join("c1", "dev", nil)
	m, err := d.Leave("c1", "dev", nil)
	require.NoError(t, err)
	require.True(t, m.Changed)
	require.Empty(t, m.Members)
	require.True(t, d.Exists("dev"))
	require.Empty(t, r.RoomsOf("c1"))

	m, err = d.Leave("c1", "dev", nil)
	require.NoError(t, err)
	require.False(t, m.Changed)
}

func TestDirectoryLeaveUnknownRoom(t *testing.T) {
	d, _ := newDirectoryWith(t, nil)
	_, err := d.Leave("c1", "nowhere", nil)
	require.ErrorIs(t, err, ErrUnknownRoom)
}

func TestDirectoryRoomsAreIndependent(t *testing.T) {
	d, _ := newDirectoryWith(t, map[model.ConnectionID]string{"c1": "alice", "c2": "bob"})

	d.Join("c1", "a", nil)
	d.Join("c2", "b", nil)
	d.Join("c2", "a", nil)
	_, _ = d.Leave("c2", "b", nil)

	require.Equal(t, []RoomSummary{{Name: "a", Members: 2}, {Name: "b", Members: 0}}, d.Rooms())
}

func TestDirectoryConcurrentJoins(t *testing.T) {
	r := NewRegistry()
	d := NewDirectory(r, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := model.ConnectionID(fmt.Sprintf("c%d", i))
		r.Connect(id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Join(id, "busy", nil)
			d.Join(id, "busy", nil)
		}()
	}
	wg.Wait()

	require.Equal(t, []RoomSummary{{Name: "busy", Members: 50}}, d.Rooms())
}
