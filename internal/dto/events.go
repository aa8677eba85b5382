package dto

import (
	"encoding/json"

	"chat-relay-backend/internal/model"
)

const (
	EventSetUser        = "set_user"
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventSendMessage    = "send_message"
	EventPrivateMessage = "private_message"
	EventTypingStart    = "typing_start"
	EventTypingStop     = "typing_stop"
	EventFileShare      = "file_share"
	EventReaction       = "message_reaction"
	EventRead           = "message_read"

	EventUserJoined             = "user_joined"
	EventUserLeft               = "user_left"
	EventOnlineUsers            = "online_users"
	EventMessageReceived        = "message_received"
	EventPrivateMessageReceived = "private_message_received"
	EventTypingUpdate           = "typing_update"
	EventMessageStatusUpdate    = "message_status_update"
	EventReactionAdded          = "reaction_added"
	EventError                  = "error"
)

// Frame is the inbound wire envelope. Data is decoded once the event name
// is known.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is the outbound wire envelope.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

type SetUserRequest struct {
	ID       string `json:"id" validate:"required,max=128"`
	Username string `json:"username" validate:"required,max=64"`
}

type DraftMessage struct {
	ID        string `json:"id" validate:"max=128"`
	Text      string `json:"text" validate:"required"`
	Sender    string `json:"sender" validate:"max=64"`
	Timestamp string `json:"timestamp" validate:"max=64"`
}

type SendMessageRequest struct {
	Message DraftMessage `json:"message"`
	Room    string       `json:"room" validate:"required,max=128"`
}

type PrivateMessageRequest struct {
	RecipientID string       `json:"recipientId" validate:"required,max=128"`
	Message     DraftMessage `json:"message"`
	ChatID      string       `json:"chatId" validate:"max=257"`
}

type FileShareRequest struct {
	Room string `json:"room" validate:"required,max=128"`
	Name string `json:"name" validate:"required,max=255"`
	Size int64  `json:"size" validate:"gte=0"`
	Type string `json:"type" validate:"max=128"`
	Data string `json:"data" validate:"required"`
}

type ReactionRequest struct {
	RoomID    string `json:"roomId" validate:"required,max=128"`
	MessageID string `json:"messageId" validate:"required,max=128"`
	Reaction  string `json:"reaction" validate:"required,max=32"`
}

type ReadRequest struct {
	RoomID    string `json:"roomId" validate:"required,max=128"`
	MessageID string `json:"messageId" validate:"required,max=128"`
}

type MessagePayload struct {
	ID         string              `json:"id"`
	Text       string              `json:"text"`
	Sender     string              `json:"sender"`
	Timestamp  string              `json:"timestamp"`
	Room       string              `json:"room,omitempty"`
	Status     model.MessageStatus `json:"status"`
	Type       model.MessageKind   `json:"type"`
	Attachment *model.Attachment   `json:"fileData,omitempty"`
	Reactions  map[string][]string `json:"reactions,omitempty"`
}

func NewMessagePayload(m model.Message) MessagePayload {
	return MessagePayload{
		ID:         m.ID,
		Text:       m.Text,
		Sender:     m.Sender,
		Timestamp:  m.Timestamp,
		Room:       m.Room,
		Status:     m.Status,
		Type:       m.Kind,
		Attachment: m.Attachment,
		Reactions:  m.Reactions,
	}
}

type PresenceEvent struct {
	User string `json:"user"`
	Room string `json:"room"`
}

type MessageReceivedEvent struct {
	Room    string         `json:"room"`
	Message MessagePayload `json:"message"`
}

type PrivateMessageEvent struct {
	ChatID   string         `json:"chatId"`
	Message  MessagePayload `json:"message"`
	SenderID string         `json:"senderId"`
}

type TypingUpdateEvent struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

type StatusUpdateEvent struct {
	RoomID    string              `json:"roomId"`
	MessageID string              `json:"messageId"`
	Status    model.MessageStatus `json:"status"`
}

type Reaction struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type ReactionAddedEvent struct {
	RoomID    string   `json:"roomId"`
	MessageID string   `json:"messageId"`
	Reaction  Reaction `json:"reaction"`
	Count     int      `json:"count"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}
