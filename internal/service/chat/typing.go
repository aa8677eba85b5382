package chat

import (
	"chat-relay-backend/internal/model"

	"github.com/samber/lo"
)

type TypingState struct {
	Room       string
	Changed    bool
	Users      []string
	Recipients []model.ConnectionID
}

// TypingTracker keeps the per-room set of usernames currently typing. There
// is no server-side expiry; entries leave only on stop, leave or disconnect.
type TypingTracker struct {
	rooms    *Directory
	registry *Registry
}

func NewTypingTracker(rooms *Directory, registry *Registry) *TypingTracker {
	return &TypingTracker{rooms: rooms, registry: registry}
}

// Start marks username as typing in the room. Connections that are not room
// members cannot start typing.
func (t *TypingTracker) Start(id model.ConnectionID, name, username string, then func(TypingState)) (TypingState, error) {
	var out TypingState
	inRoom := true
	err := t.rooms.with(name, false, func(r *room) {
		if !r.isMember(id) {
			inRoom = false
			return
		}
		changed := false
		if !lo.Contains(r.typing, username) {
			r.typing = append(r.typing, username)
			changed = true
			t.registry.trackTyping(id, name, true)
		}
		out = typingState(r, changed)
		if then != nil {
			then(out)
		}
	})
	if err != nil {
		return TypingState{}, err
	}
	if !inRoom {
		return TypingState{}, ErrNotMember
	}
	return out, nil
}

// Stop clears username from the room's typing set. Stopping an absent entry
// is a no-op.
func (t *TypingTracker) Stop(id model.ConnectionID, name, username string, then func(TypingState)) (TypingState, error) {
	var out TypingState
	err := t.rooms.with(name, false, func(r *room) {
		changed := false
		if lo.Contains(r.typing, username) {
			r.typing = lo.Without(r.typing, username)
			changed = true
		}
		t.registry.trackTyping(id, name, false)
		out = typingState(r, changed)
		if then != nil {
			then(out)
		}
	})
	return out, err
}

func (t *TypingTracker) Typing(name string) []string {
	var users []string
	_ = t.rooms.with(name, false, func(r *room) {
		users = append([]string{}, r.typing...)
	})
	return users
}

func typingState(r *room, changed bool) TypingState {
	return TypingState{
		Room:       r.name,
		Changed:    changed,
		Users:      append([]string{}, r.typing...),
		Recipients: r.memberIDs(),
	}
}
