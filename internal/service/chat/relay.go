package chat

import (
	"fmt"
	"time"

	"chat-relay-backend/internal/model"
)

// messageLog is the per-room log. With a positive limit it keeps only the
// newest limit messages.
type messageLog struct {
	limit   int
	entries []*model.Message
	index   map[string]*model.Message
}

func newMessageLog(limit int) *messageLog {
	if limit < 0 {
		limit = 0
	}
	return &messageLog{
		limit: limit,
		index: make(map[string]*model.Message),
	}
}

func (l *messageLog) append(m *model.Message) {
	if l.limit > 0 && len(l.entries) == l.limit {
		evicted := l.entries[0]
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = m
		if l.index[evicted.ID] == evicted {
			delete(l.index, evicted.ID)
		}
	} else {
		l.entries = append(l.entries, m)
	}
	// Reused ids are accepted; lookups resolve to the newest message.
	l.index[m.ID] = m
}

func (l *messageLog) get(id string) (*model.Message, bool) {
	m, ok := l.index[id]
	return m, ok
}

func (l *messageLog) len() int {
	return len(l.entries)
}

type Draft struct {
	ID         string
	Text       string
	Sender     string
	Timestamp  string
	Kind       model.MessageKind
	Attachment *model.Attachment
}

type Delivery struct {
	Message    model.Message
	Recipients []model.ConnectionID
}

// Relay appends messages to room logs and owns their status lifecycle.
type Relay struct {
	rooms *Directory
	now   func() time.Time
	newID func() string
}

func NewRelay(rooms *Directory, now func() time.Time, newID func() string) *Relay {
	return &Relay{rooms: rooms, now: now, newID: newID}
}

// Submit records the draft in the room with status sent and reports the
// members to fan out to. The client id is authoritative.
func (rl *Relay) Submit(name string, draft Draft, then func(Delivery)) (Delivery, error) {
	var out Delivery
	err := rl.rooms.with(name, false, func(r *room) {
		msg := rl.build(name, draft)
		r.log.append(msg)
		out = Delivery{Message: msg.Clone(), Recipients: r.memberIDs()}
		if then != nil {
			then(out)
		}
	})
	if err != nil {
		return Delivery{}, fmt.Errorf("submit to %s: %w", name, err)
	}
	return out, nil
}

// Prepare builds the message a draft would become, filling the id and
// timestamp defaults, without touching any log.
func (rl *Relay) Prepare(name string, draft Draft) model.Message {
	return rl.build(name, draft).Clone()
}

// Record appends msg to its room's log when the room exists. Private
// messages use it so receipts and reactions can address them.
func (rl *Relay) Record(msg model.Message) bool {
	stored := msg.Clone()
	err := rl.rooms.with(msg.Room, false, func(r *room) {
		r.log.append(&stored)
	})
	return err == nil
}

// UpdateStatus advances a message along sent -> delivered -> read. Repeats
// and backward transitions are rejected with ErrStatusRegression.
func (rl *Relay) UpdateStatus(name, messageID string, status model.MessageStatus, then func(Delivery)) (Delivery, error) {
	if !status.Valid() {
		return Delivery{}, ErrInvalidStatus
	}

	var (
		out   Delivery
		opErr error
	)
	err := rl.rooms.with(name, false, func(r *room) {
		msg, ok := r.log.get(messageID)
		if !ok {
			opErr = ErrUnknownMessage
			return
		}
		if status.Rank() <= msg.Status.Rank() {
			opErr = ErrStatusRegression
			return
		}
		msg.Status = status
		out = Delivery{Message: msg.Clone(), Recipients: r.memberIDs()}
		if then != nil {
			then(out)
		}
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		return Delivery{}, fmt.Errorf("update %s/%s to %s: %w", name, messageID, status, err)
	}
	return out, nil
}

func (rl *Relay) Get(name, messageID string) (model.Message, error) {
	var (
		out   model.Message
		found bool
	)
	err := rl.rooms.with(name, false, func(r *room) {
		var msg *model.Message
		msg, found = r.log.get(messageID)
		if found {
			out = msg.Clone()
		}
	})
	if err != nil {
		return model.Message{}, err
	}
	if !found {
		return model.Message{}, ErrUnknownMessage
	}
	return out, nil
}

func (rl *Relay) LogLen(name string) int {
	n := 0
	_ = rl.rooms.with(name, false, func(r *room) {
		n = r.log.len()
	})
	return n
}

func (rl *Relay) build(name string, draft Draft) *model.Message {
	id := draft.ID
	if id == "" {
		id = rl.newID()
	}
	ts := draft.Timestamp
	if ts == "" {
		ts = rl.now().UTC().Format(time.RFC3339)
	}
	kind := draft.Kind
	if kind == "" {
		kind = model.MessageKindText
	}
	return &model.Message{
		ID:         id,
		Room:       name,
		Text:       draft.Text,
		Sender:     draft.Sender,
		Timestamp:  ts,
		Status:     model.MessageStatusSent,
		Kind:       kind,
		Attachment: draft.Attachment,
	}
}
