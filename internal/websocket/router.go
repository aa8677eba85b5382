package websocket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"chat-relay-backend/internal/dto"
	"chat-relay-backend/internal/model"
	"chat-relay-backend/internal/service/chat"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

const roomRule = "required,max=128"

// payloadError is a client mistake that is reported back with code.
type payloadError struct {
	code string
	msg  string
}

func (e *payloadError) Error() string {
	return e.msg
}

func invalid(code, format string, args ...any) error {
	return &payloadError{code: code, msg: fmt.Sprintf(format, args...)}
}

// Router decodes inbound frames and dispatches them to the chat service.
type Router struct {
	service *chat.Service
	sender  chat.Sender
	limits  Limits
	metrics *Metrics
}

func NewRouter(service *chat.Service, sender chat.Sender, limits Limits, metrics *Metrics) *Router {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Router{service: service, sender: sender, limits: limits, metrics: metrics}
}

func (rt *Router) Connect(id model.ConnectionID) {
	rt.service.Connect(id)
}

func (rt *Router) Disconnect(id model.ConnectionID) {
	rt.service.Disconnect(id)
}

// Dispatch handles one inbound frame from id.
func (rt *Router) Dispatch(id model.ConnectionID, raw []byte) {
	var frame dto.Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		rt.reject(id, "", CodeBadRequest, "frame must be a JSON object with an event name")
		return
	}

	var err error
	switch frame.Event {
	case dto.EventSetUser:
		err = rt.setUser(id, frame.Data)
	case dto.EventJoinRoom:
		err = rt.joinRoom(id, frame.Data)
	case dto.EventLeaveRoom:
		err = rt.leaveRoom(id, frame.Data)
	case dto.EventSendMessage:
		err = rt.sendMessage(id, frame.Data)
	case dto.EventPrivateMessage:
		err = rt.privateMessage(id, frame.Data)
	case dto.EventTypingStart:
		err = rt.typing(id, frame.Data, true)
	case dto.EventTypingStop:
		err = rt.typing(id, frame.Data, false)
	case dto.EventFileShare:
		err = rt.fileShare(id, frame.Data)
	case dto.EventReaction:
		err = rt.reaction(id, frame.Data)
	case dto.EventRead:
		err = rt.read(id, frame.Data)
	default:
		rt.metrics.incEvent("unknown")
		rt.reject(id, frame.Event, CodeUnknownEvent, fmt.Sprintf("unknown event %q", frame.Event))
		return
	}
	rt.metrics.incEvent(frame.Event)
	rt.fail(id, frame.Event, err)
}

func (rt *Router) setUser(id model.ConnectionID, data json.RawMessage) error {
	var req dto.SetUserRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	defer rt.syncRooms()
	return rt.service.SetUser(id, model.Identity{ID: req.ID, Username: req.Username})
}

func (rt *Router) joinRoom(id model.ConnectionID, data json.RawMessage) error {
	room, err := decodeRoom(data)
	if err != nil {
		return err
	}
	rt.service.JoinRoom(id, room)
	rt.syncRooms()
	return nil
}

func (rt *Router) leaveRoom(id model.ConnectionID, data json.RawMessage) error {
	room, err := decodeRoom(data)
	if err != nil {
		return err
	}
	return rt.service.LeaveRoom(id, room)
}

func (rt *Router) sendMessage(id model.ConnectionID, data json.RawMessage) error {
	var req dto.SendMessageRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := rt.checkText(req.Message.Text); err != nil {
		return err
	}
	_, err := rt.service.SendMessage(id, req.Room, draftOf(req.Message))
	return err
}

func (rt *Router) privateMessage(id model.ConnectionID, data json.RawMessage) error {
	var req dto.PrivateMessageRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := rt.checkText(req.Message.Text); err != nil {
		return err
	}
	_, err := rt.service.PrivateMessage(id, req.RecipientID, draftOf(req.Message))
	return err
}

func (rt *Router) typing(id model.ConnectionID, data json.RawMessage, start bool) error {
	room, err := decodeRoom(data)
	if err != nil {
		return err
	}
	if start {
		return rt.service.TypingStart(id, room)
	}
	return rt.service.TypingStop(id, room)
}

func (rt *Router) fileShare(id model.ConnectionID, data json.RawMessage) error {
	var req dto.FileShareRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	encoded := stripDataURL(req.Data)
	if limit := rt.limits.MaxFileSize; limit > 0 && int64(base64.StdEncoding.DecodedLen(len(encoded))) > limit+2 {
		return invalid(CodeFileTooLarge, "file exceeds %d bytes", limit)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return invalid(CodeInvalidPayload, "file data is not valid base64")
	}
	if limit := rt.limits.MaxFileSize; limit > 0 && int64(len(raw)) > limit {
		return invalid(CodeFileTooLarge, "file exceeds %d bytes", limit)
	}

	detected := mimetype.Detect(raw)
	contentType := detected.String()
	if len(rt.limits.AllowedFileTypes) > 0 {
		allowed, ok := lo.Find(rt.limits.AllowedFileTypes, detected.Is)
		if !ok {
			return invalid(CodeFileType, "file type %s is not allowed", detected.String())
		}
		contentType = allowed
	}

	_, err = rt.service.ShareFile(id, chat.FileShare{
		Room:        req.Room,
		Name:        req.Name,
		ContentType: contentType,
		Data:        raw,
	})
	return err
}

func (rt *Router) reaction(id model.ConnectionID, data json.RawMessage) error {
	var req dto.ReactionRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return rt.service.React(id, req.RoomID, req.MessageID, req.Reaction)
}

func (rt *Router) read(id model.ConnectionID, data json.RawMessage) error {
	var req dto.ReadRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return rt.service.MarkRead(id, req.RoomID, req.MessageID)
}

func (rt *Router) checkText(text string) error {
	if rt.limits.MaxMessageLength <= 0 {
		return nil
	}
	if err := validate.Var(text, fmt.Sprintf("max=%d", rt.limits.MaxMessageLength)); err != nil {
		return invalid(CodeMessageTooLong, "message is longer than %d characters", rt.limits.MaxMessageLength)
	}
	return nil
}

func (rt *Router) syncRooms() {
	rt.metrics.setRooms(rt.service.Rooms().Count())
}

// fail maps a handler error to an error event. Unknown rooms and messages
// and repeated status changes stay silent.
func (rt *Router) fail(id model.ConnectionID, event string, err error) {
	if err == nil || chat.Silent(err) {
		return
	}

	var perr *payloadError
	switch {
	case errors.As(err, &perr):
		rt.reject(id, event, perr.code, perr.msg)
	case errors.Is(err, chat.ErrNotIdentified):
		rt.reject(id, event, CodeNotIdentified, "set_user first")
	case errors.Is(err, chat.ErrNotMember):
		rt.reject(id, event, CodeNotMember, "join the room first")
	case errors.Is(err, chat.ErrRecipientOffline):
		rt.reject(id, event, CodeRecipientOffline, "recipient is not online")
	case errors.Is(err, chat.ErrStorageRejected):
		log.Printf("[hub] %s from %s: %v", event, id, err)
		rt.reject(id, event, CodeStorage, "file could not be stored")
	default:
		log.Printf("[hub] %s from %s failed: %v", event, id, err)
		rt.reject(id, event, CodeInternal, "internal error")
	}
}

func (rt *Router) reject(id model.ConnectionID, event, code, msg string) {
	rt.metrics.incError(code)
	rt.sender.Send(id, dto.Event{
		Name: dto.EventError,
		Data: dto.ErrorEvent{Code: code, Message: msg, Event: event},
	})
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return invalid(CodeInvalidPayload, "missing data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalid(CodeInvalidPayload, "malformed data: %v", err)
	}
	if err := validate.Struct(v); err != nil {
		return invalid(CodeInvalidPayload, "%s", describe(err))
	}
	return nil
}

func decodeRoom(data json.RawMessage) (string, error) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil {
		return "", invalid(CodeInvalidPayload, "data must be a room name")
	}
	if err := validate.Var(room, roomRule); err != nil {
		return "", invalid(CodeInvalidPayload, "room name must be 1-128 characters")
	}
	return room, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	return strings.Join(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}), "; ")
}

func draftOf(m dto.DraftMessage) chat.Draft {
	return chat.Draft{
		ID:        m.ID,
		Text:      m.Text,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
	}
}

// stripDataURL drops a "data:<type>;base64," prefix when present.
func stripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}
