package chat

import (
	"sort"
	"sync"

	"chat-relay-backend/internal/model"

	"github.com/samber/lo"
)

// room holds everything guarded by a single room lock: membership, the
// typing set and the message log.
type room struct {
	name string

	mu        sync.Mutex
	members   []model.ConnectionID
	memberSet map[model.ConnectionID]struct{}
	typing    []string
	log       *messageLog
}

func newRoom(name string, maxHistory int) *room {
	return &room{
		name:      name,
		memberSet: make(map[model.ConnectionID]struct{}),
		log:       newMessageLog(maxHistory),
	}
}

func (r *room) join(id model.ConnectionID) bool {
	if _, ok := r.memberSet[id]; ok {
		return false
	}
	r.memberSet[id] = struct{}{}
	r.members = append(r.members, id)
	return true
}

func (r *room) leave(id model.ConnectionID) bool {
	if _, ok := r.memberSet[id]; !ok {
		return false
	}
	delete(r.memberSet, id)
	r.members = lo.Without(r.members, id)
	return true
}

func (r *room) isMember(id model.ConnectionID) bool {
	_, ok := r.memberSet[id]
	return ok
}

func (r *room) memberIDs() []model.ConnectionID {
	return append([]model.ConnectionID(nil), r.members...)
}

// Membership is the outcome of a join or leave.
type Membership struct {
	Room string
	// Changed is false when the operation was a repeat.
	Changed bool
	// Members are the identified members in join order.
	Members []model.Identity
	// Recipients are every live member connection, anonymous ones included.
	Recipients []model.ConnectionID
}

type RoomSummary struct {
	Name    string
	Members int
}

// Directory maps room names to rooms. Rooms are created on first join and
// retained when they become empty.
type Directory struct {
	mu         sync.RWMutex
	rooms      map[string]*room
	registry   *Registry
	maxHistory int
}

func NewDirectory(registry *Registry, maxHistory int) *Directory {
	return &Directory{
		rooms:      make(map[string]*room),
		registry:   registry,
		maxHistory: maxHistory,
	}
}

func (d *Directory) lookup(name string, create bool) (*room, bool) {
	d.mu.RLock()
	r, ok := d.rooms[name]
	d.mu.RUnlock()
	if ok || !create {
		return r, ok
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok = d.rooms[name]; ok {
		return r, true
	}
	r = newRoom(name, d.maxHistory)
	d.rooms[name] = r
	return r, true
}

// with runs fn while holding the room lock. The directory lock is never held
// at the same time as a room lock.
func (d *Directory) with(name string, create bool, fn func(r *room)) error {
	r, ok := d.lookup(name, create)
	if !ok {
		return ErrUnknownRoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
	return nil
}

// Join adds the connection to the room, creating the room if needed. then,
// when non-nil, runs before the room lock is released so any fan-out it does
// is ordered with the mutation.
func (d *Directory) Join(id model.ConnectionID, name string, then func(Membership)) Membership {
	var out Membership
	_ = d.with(name, true, func(r *room) {
		changed := r.join(id)
		if changed {
			d.registry.trackRoom(id, name, true)
		}
		out = d.membership(r, changed)
		if then != nil {
			then(out)
		}
	})
	return out
}

func (d *Directory) Leave(id model.ConnectionID, name string, then func(Membership)) (Membership, error) {
	var out Membership
	err := d.with(name, false, func(r *room) {
		changed := r.leave(id)
		if changed {
			d.registry.trackRoom(id, name, false)
		}
		out = d.membership(r, changed)
		if then != nil {
			then(out)
		}
	})
	return out, err
}

// Refresh reports the current membership without changing it.
func (d *Directory) Refresh(name string, then func(Membership)) (Membership, error) {
	var out Membership
	err := d.with(name, false, func(r *room) {
		out = d.membership(r, false)
		if then != nil {
			then(out)
		}
	})
	return out, err
}

func (d *Directory) MembersOf(name string) []model.Identity {
	m, err := d.Refresh(name, nil)
	if err != nil {
		return nil
	}
	return m.Members
}

func (d *Directory) Exists(name string) bool {
	_, ok := d.lookup(name, false)
	return ok
}

func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

func (d *Directory) Rooms() []RoomSummary {
	d.mu.RLock()
	rooms := lo.Values(d.rooms)
	d.mu.RUnlock()

	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		out = append(out, RoomSummary{Name: r.name, Members: len(r.members)})
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (d *Directory) membership(r *room, changed bool) Membership {
	ids := r.memberIDs()
	return Membership{
		Room:       r.name,
		Changed:    changed,
		Members:    d.registry.identities(ids),
		Recipients: ids,
	}
}
