package chat

import (
	"errors"
	"fmt"
	"log"
	"time"

	"chat-relay-backend/internal/dto"
	"chat-relay-backend/internal/model"

	"github.com/google/uuid"
)

const DefaultRoom = "general"

// Sender delivers outbound events to live connections. Both methods must be
// non-blocking; events for connections that are gone are dropped.
type Sender interface {
	Send(to model.ConnectionID, event dto.Event) bool
	Broadcast(to []model.ConnectionID, event dto.Event) int
}

// Mirror receives a copy of room traffic for external consumers. It must not
// block.
type Mirror interface {
	Mirror(room string, event dto.Event)
}

// AttachmentSink takes ownership of shared file bytes. Accept must not block
// on storage I/O.
type AttachmentSink interface {
	Accept(attachment model.Attachment, data []byte) error
}

type Config struct {
	DefaultRoom string
	MaxHistory  int
	Now         func() time.Time
	NewID       func() string
	Attachments AttachmentSink
	Mirror      Mirror
}

type FileShare struct {
	Room        string
	Name        string
	ContentType string
	Data        []byte
}

// Service is the in-memory coordinator for every connection, room, typing
// set and message log. One instance serves the whole process.
type Service struct {
	registry  *Registry
	rooms     *Directory
	typing    *TypingTracker
	relay     *Relay
	private   *PrivateResolver
	reactions *ReactionDispatcher

	sender      Sender
	mirror      Mirror
	attachments AttachmentSink
	defaultRoom string
	now         func() time.Time
	newID       func() string
}

func New(sender Sender, cfg Config) *Service {
	if cfg.DefaultRoom == "" {
		cfg.DefaultRoom = DefaultRoom
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	registry := NewRegistry()
	rooms := NewDirectory(registry, cfg.MaxHistory)
	relay := NewRelay(rooms, cfg.Now, cfg.NewID)

	return &Service{
		registry:    registry,
		rooms:       rooms,
		typing:      NewTypingTracker(rooms, registry),
		relay:       relay,
		private:     NewPrivateResolver(registry, sender),
		reactions:   NewReactionDispatcher(rooms, relay),
		sender:      sender,
		mirror:      cfg.Mirror,
		attachments: cfg.Attachments,
		defaultRoom: cfg.DefaultRoom,
		now:         cfg.Now,
		newID:       cfg.NewID,
	}
}

func (s *Service) Registry() *Registry { return s.registry }
func (s *Service) Rooms() *Directory { return s.rooms }
func (s *Service) Typing() *TypingTracker { return s.typing }
func (s *Service) Relay() *Relay { return s.relay }
func (s *Service) Private() *PrivateResolver { return s.private }
func (s *Service) Reactions() *ReactionDispatcher { return s.reactions }

func (s *Service) Connect(id model.ConnectionID) {
	s.registry.Connect(id)
}

// SetUser binds identity to the connection and joins it to the default room.
// When the identity replaces a different one, presence lists of the other
// joined rooms are refreshed and the old username stops typing everywhere.
func (s *Service) SetUser(id model.ConnectionID, identity model.Identity) error {
	previous, hadPrevious, err := s.registry.Bind(id, identity)
	if err != nil {
		return fmt.Errorf("set user %s: %w", identity.ID, err)
	}
	log.Printf("[chat] connection %s identified as %s (%s)", id, identity.Username, identity.ID)

	s.rooms.Join(id, s.defaultRoom, func(m Membership) {
		s.sender.Broadcast(m.Recipients, onlineUsersEvent(m))
	})

	if hadPrevious && previous.Username != identity.Username {
		for _, name := range s.registry.TypingOf(id) {
			_ = s.stopTyping(id, name, previous.Username)
		}
	}

	if hadPrevious && previous != identity {
		for _, name := range s.registry.RoomsOf(id) {
			if name == s.defaultRoom {
				continue
			}
			_, _ = s.rooms.Refresh(name, func(m Membership) {
				s.sender.Broadcast(m.Recipients, onlineUsersEvent(m))
			})
		}
	}
	return nil
}

func (s *Service) JoinRoom(id model.ConnectionID, name string) Membership {
	return s.rooms.Join(id, name, func(m Membership) {
		if !m.Changed {
			s.sender.Send(id, onlineUsersEvent(m))
			return
		}
		if identity, ok := s.registry.Resolve(id); ok {
			s.sender.Broadcast(without(m.Recipients, id), presenceEvent(dto.EventUserJoined, identity.Username, name))
		}
		s.sender.Broadcast(m.Recipients, onlineUsersEvent(m))
	})
}

func (s *Service) LeaveRoom(id model.ConnectionID, name string) error {
	identity, identified := s.registry.Resolve(id)
	m, err := s.rooms.Leave(id, name, func(m Membership) {
		if !m.Changed {
			return
		}
		if identified {
			s.sender.Broadcast(m.Recipients, presenceEvent(dto.EventUserLeft, identity.Username, name))
		}
		s.sender.Broadcast(m.Recipients, onlineUsersEvent(m))
	})
	if err != nil {
		return fmt.Errorf("leave %s: %w", name, err)
	}
	if m.Changed && identified {
		s.stopTyping(id, name, identity.Username)
	}
	return nil
}

// SendMessage relays draft to the room, then acknowledges it to the origin as
// delivered. Delivered means accepted by the relay, not read by peers.
func (s *Service) SendMessage(id model.ConnectionID, name string, draft Draft) (model.Message, error) {
	draft.Sender = s.senderName(id, draft.Sender)

	d, err := s.relay.Submit(name, draft, func(d Delivery) {
		s.sender.Broadcast(d.Recipients, messageReceivedEvent(d.Message))
	})
	if err != nil {
		return model.Message{}, err
	}
	s.mirrorEvent(name, messageReceivedEvent(d.Message))

	ack, err := s.relay.UpdateStatus(name, d.Message.ID, model.MessageStatusDelivered, func(u Delivery) {
		s.sender.Send(id, statusUpdateEvent(u.Message))
	})
	switch {
	case err == nil:
		s.mirrorEvent(name, statusUpdateEvent(ack.Message))
		return ack.Message, nil
	case errors.Is(err, ErrStatusRegression):
		// A peer already read it.
		return d.Message, nil
	default:
		return d.Message, err
	}
}

// PrivateMessage delivers draft to the recipient's live connection and echoes
// it to the sender. The chat id is derived here, not trusted from the client.
func (s *Service) PrivateMessage(id model.ConnectionID, recipientID string, draft Draft) (string, error) {
	identity, ok := s.registry.Resolve(id)
	if !ok {
		return "", ErrNotIdentified
	}
	chatID := s.private.Resolve(identity.ID, recipientID)
	draft.Sender = identity.Username

	msg := s.relay.Prepare(chatID, draft)
	conn, err := s.private.Deliver(chatID, msg, identity.ID, recipientID)
	if err != nil {
		return chatID, fmt.Errorf("private message to %s: %w", recipientID, err)
	}
	s.relay.Record(msg)
	if conn != id {
		s.sender.Send(id, privateMessageEvent(chatID, msg, identity.ID))
	}
	return chatID, nil
}

func (s *Service) TypingStart(id model.ConnectionID, name string) error {
	identity, ok := s.registry.Resolve(id)
	if !ok {
		return ErrNotIdentified
	}
	_, err := s.typing.Start(id, name, identity.Username, func(t TypingState) {
		if t.Changed {
			s.sender.Broadcast(without(t.Recipients, id), typingUpdateEvent(t))
		}
	})
	if err != nil {
		return fmt.Errorf("typing start in %s: %w", name, err)
	}
	return nil
}

func (s *Service) TypingStop(id model.ConnectionID, name string) error {
	identity, ok := s.registry.Resolve(id)
	if !ok {
		return ErrNotIdentified
	}
	if err := s.stopTyping(id, name, identity.Username); err != nil {
		return fmt.Errorf("typing stop in %s: %w", name, err)
	}
	return nil
}

// ShareFile hands the bytes to the attachment sink and relays a file message
// with a synthesized label. The core never inspects the payload.
func (s *Service) ShareFile(id model.ConnectionID, file FileShare) (model.Message, error) {
	if !s.rooms.Exists(file.Room) {
		return model.Message{}, fmt.Errorf("share file in %s: %w", file.Room, ErrUnknownRoom)
	}

	sender := s.senderName(id, "")
	attachment := model.Attachment{
		Key:         s.newID(),
		Room:        file.Room,
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        int64(len(file.Data)),
		UploadedBy:  sender,
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	}
	if s.attachments != nil {
		if err := s.attachments.Accept(attachment, file.Data); err != nil {
			return model.Message{}, fmt.Errorf("%w: %v", ErrStorageRejected, err)
		}
	}

	return s.SendMessage(id, file.Room, Draft{
		Text:       FileLabel(attachment.Name, attachment.Size),
		Sender:     sender,
		Kind:       model.MessageKindFile,
		Attachment: &attachment,
	})
}

func (s *Service) React(id model.ConnectionID, name, messageID, symbol string) error {
	identity, ok := s.registry.Resolve(id)
	if !ok {
		return ErrNotIdentified
	}
	_, err := s.reactions.AddReaction(name, messageID, symbol, identity.Username, func(r ReactionResult) {
		s.sender.Broadcast(r.Recipients, reactionAddedEvent(r))
	})
	return err
}

// MarkRead moves the message to read and tells every other room member.
func (s *Service) MarkRead(id model.ConnectionID, name, messageID string) error {
	d, err := s.reactions.MarkRead(name, messageID, func(d Delivery) {
		s.sender.Broadcast(without(d.Recipients, id), statusUpdateEvent(d.Message))
	})
	if err != nil {
		return err
	}
	s.mirrorEvent(name, statusUpdateEvent(d.Message))
	return nil
}

// Disconnect runs the full cleanup cascade for a closed connection. Room
// locks are taken one at a time.
func (s *Service) Disconnect(id model.ConnectionID) {
	identity, identified := s.registry.Resolve(id)
	rooms, typing := s.registry.Unbind(id)

	for _, name := range rooms {
		_, _ = s.rooms.Leave(id, name, func(m Membership) {
			if !m.Changed {
				return
			}
			if identified {
				s.sender.Broadcast(m.Recipients, presenceEvent(dto.EventUserLeft, identity.Username, name))
			}
			s.sender.Broadcast(m.Recipients, onlineUsersEvent(m))
		})
	}
	if identified {
		for _, name := range typing {
			_ = s.stopTyping(id, name, identity.Username)
		}
	}

	s.registry.Remove(id)
	log.Printf("[chat] connection %s cleaned up from %d rooms", id, len(rooms))
}

func (s *Service) RoomSummaries() []RoomSummary {
	return s.rooms.Rooms()
}

func (s *Service) stopTyping(id model.ConnectionID, name, username string) error {
	_, err := s.typing.Stop(id, name, username, func(t TypingState) {
		if t.Changed {
			s.sender.Broadcast(without(t.Recipients, id), typingUpdateEvent(t))
		}
	})
	return err
}

func (s *Service) senderName(id model.ConnectionID, claimed string) string {
	if identity, ok := s.registry.Resolve(id); ok {
		return identity.Username
	}
	if claimed != "" {
		return claimed
	}
	return "Anonymous"
}

func (s *Service) mirrorEvent(room string, event dto.Event) {
	if s.mirror != nil {
		s.mirror.Mirror(room, event)
	}
}

// FileLabel renders the display text of a shared file, e.g. "📎 cat.png (12.3KB)".
func FileLabel(name string, size int64) string {
	return fmt.Sprintf("📎 %s (%.1fKB)", name, float64(size)/1024)
}
