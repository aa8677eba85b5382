package chat

import (
	"chat-relay-backend/internal/dto"
	"chat-relay-backend/internal/model"

	"github.com/samber/lo"
)

func onlineUsersEvent(m Membership) dto.Event {
	users := m.Members
	if users == nil {
		users = []model.Identity{}
	}
	return dto.Event{Name: dto.EventOnlineUsers, Data: users}
}

func presenceEvent(name, username, room string) dto.Event {
	return dto.Event{Name: name, Data: dto.PresenceEvent{User: username, Room: room}}
}

func messageReceivedEvent(msg model.Message) dto.Event {
	return dto.Event{
		Name: dto.EventMessageReceived,
		Data: dto.MessageReceivedEvent{Room: msg.Room, Message: dto.NewMessagePayload(msg)},
	}
}

func privateMessageEvent(chatID string, msg model.Message, senderID string) dto.Event {
	return dto.Event{
		Name: dto.EventPrivateMessageReceived,
		Data: dto.PrivateMessageEvent{ChatID: chatID, Message: dto.NewMessagePayload(msg), SenderID: senderID},
	}
}

func typingUpdateEvent(t TypingState) dto.Event {
	return dto.Event{Name: dto.EventTypingUpdate, Data: dto.TypingUpdateEvent{Room: t.Room, Users: t.Users}}
}

func statusUpdateEvent(msg model.Message) dto.Event {
	return dto.Event{
		Name: dto.EventMessageStatusUpdate,
		Data: dto.StatusUpdateEvent{RoomID: msg.Room, MessageID: msg.ID, Status: msg.Status},
	}
}

func reactionAddedEvent(r ReactionResult) dto.Event {
	return dto.Event{
		Name: dto.EventReactionAdded,
		Data: dto.ReactionAddedEvent{
			RoomID:    r.Message.Room,
			MessageID: r.Message.ID,
			Reaction:  dto.Reaction{Type: r.Symbol, User: r.Username},
			Count:     r.Count,
		},
	}
}

func without(ids []model.ConnectionID, id model.ConnectionID) []model.ConnectionID {
	return lo.Without(ids, id)
}
