package model

import (
	"sort"
	"strings"
)

type ConnectionID string

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// Rank orders statuses along the sent -> delivered -> read lifecycle.
// Unknown statuses rank below sent.
func (s MessageStatus) Rank() int {
	switch s {
	case MessageStatusSent:
		return 1
	case MessageStatusDelivered:
		return 2
	case MessageStatusRead:
		return 3
	default:
		return 0
	}
}

func (s MessageStatus) Valid() bool {
	return s.Rank() > 0
}

type MessageKind string

const (
	MessageKindText MessageKind = "text"
	MessageKindFile MessageKind = "file"
)

type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Message struct {
	ID         string
	Room       string
	Text       string
	Sender     string
	Timestamp  string
	Status     MessageStatus
	Kind       MessageKind
	Attachment *Attachment
	Reactions  map[string][]string
}

// Clone returns a deep copy that is safe to hand out of a room lock.
func (m *Message) Clone() Message {
	out := *m
	if m.Attachment != nil {
		a := *m.Attachment
		out.Attachment = &a
	}
	if m.Reactions != nil {
		out.Reactions = make(map[string][]string, len(m.Reactions))
		for symbol, users := range m.Reactions {
			out.Reactions[symbol] = append([]string(nil), users...)
		}
	}
	return out
}

type Attachment struct {
	Key         string `json:"key"`
	Room        string `json:"room"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	UploadedBy  string `json:"uploadedBy,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// PrivateChatID derives the two-party room id both participants compute
// independently.
func PrivateChatID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
