package chat

import (
	"sort"
	"sync"

	"chat-relay-backend/internal/model"

	"github.com/samber/lo"
)

type presence struct {
	identity *model.Identity
	rooms    map[string]struct{}
	typing   map[string]struct{}
}

// Registry maps live connections to their presence record and keeps a
// secondary userID -> connection index for private delivery.
type Registry struct {
	mu     sync.RWMutex
	conns  map[model.ConnectionID]*presence
	byUser map[string]model.ConnectionID
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[model.ConnectionID]*presence),
		byUser: make(map[string]model.ConnectionID),
	}
}

func (r *Registry) Connect(id model.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return
	}
	r.conns[id] = &presence{
		rooms:  make(map[string]struct{}),
		typing: make(map[string]struct{}),
	}
}

// Bind attaches identity to the connection, replacing any previous one. The
// previous identity is returned when there was one.
func (r *Registry) Bind(id model.ConnectionID, identity model.Identity) (model.Identity, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.conns[id]
	if !ok {
		return model.Identity{}, false, ErrUnknownConnection
	}

	var previous model.Identity
	hadPrevious := p.identity != nil
	if hadPrevious {
		previous = *p.identity
		r.dropIndexLocked(previous.ID, id)
	}

	bound := identity
	p.identity = &bound
	r.byUser[identity.ID] = id
	return previous, hadPrevious, nil
}

func (r *Registry) Resolve(id model.ConnectionID) (model.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.conns[id]
	if !ok || p.identity == nil {
		return model.Identity{}, false
	}
	return *p.identity, true
}

// Unbind clears the identity of the connection and returns the rooms it was
// joined to and typing in, so the caller can run membership cleanup.
func (r *Registry) Unbind(id model.ConnectionID) (rooms []string, typing []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.conns[id]
	if !ok {
		return nil, nil
	}
	if p.identity != nil {
		r.dropIndexLocked(p.identity.ID, id)
		p.identity = nil
	}
	return sortedKeys(p.rooms), sortedKeys(p.typing)
}

// Remove forgets the connection entirely. Connection ids are never reused.
func (r *Registry) Remove(id model.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.conns[id]; ok && p.identity != nil {
		r.dropIndexLocked(p.identity.ID, id)
	}
	delete(r.conns, id)
}

func (r *Registry) Locate(userID string) (model.ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	return id, ok
}

func (r *Registry) RoomsOf(id model.ConnectionID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.conns[id]
	if !ok {
		return nil
	}
	return sortedKeys(p.rooms)
}

func (r *Registry) TypingOf(id model.ConnectionID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.conns[id]
	if !ok {
		return nil
	}
	return sortedKeys(p.typing)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) live(id model.ConnectionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

func (r *Registry) trackRoom(id model.ConnectionID, room string, joined bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.conns[id]
	if !ok {
		return
	}
	if joined {
		p.rooms[room] = struct{}{}
	} else {
		delete(p.rooms, room)
	}
}

func (r *Registry) trackTyping(id model.ConnectionID, room string, typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.conns[id]
	if !ok {
		return
	}
	if typing {
		p.typing[room] = struct{}{}
	} else {
		delete(p.typing, room)
	}
}

// identities resolves ids in order, dropping anonymous connections and
// collapsing repeated identities to their first occurrence.
func (r *Registry) identities(ids []model.ConnectionID) []model.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Identity, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		p, ok := r.conns[id]
		if !ok || p.identity == nil {
			continue
		}
		if _, dup := seen[p.identity.ID]; dup {
			continue
		}
		seen[p.identity.ID] = struct{}{}
		out = append(out, *p.identity)
	}
	return out
}

// dropIndexLocked removes the user index entry only while it still points at
// the given connection, so a newer binding of the same user survives.
func (r *Registry) dropIndexLocked(userID string, id model.ConnectionID) {
	if current, ok := r.byUser[userID]; ok && current == id {
		delete(r.byUser, userID)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := lo.Keys(set)
	sort.Strings(keys)
	return keys
}
