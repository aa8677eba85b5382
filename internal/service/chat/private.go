package chat

import "chat-relay-backend/internal/model"

// PrivateResolver handles two-party chats. They are addressed by identity
// rather than by room membership.
type PrivateResolver struct {
	registry *Registry
	sender   Sender
}

func NewPrivateResolver(registry *Registry, sender Sender) *PrivateResolver {
	return &PrivateResolver{registry: registry, sender: sender}
}

func (p *PrivateResolver) Resolve(userA, userB string) string {
	return model.PrivateChatID(userA, userB)
}

func (p *PrivateResolver) Locate(userID string) (model.ConnectionID, bool) {
	return p.registry.Locate(userID)
}

// Deliver sends msg to the recipient's live connection. There is no offline
// queue: an absent recipient yields ErrRecipientOffline and the message is
// dropped.
func (p *PrivateResolver) Deliver(chatID string, msg model.Message, senderID, recipientID string) (model.ConnectionID, error) {
	conn, ok := p.Locate(recipientID)
	if !ok {
		return "", ErrRecipientOffline
	}
	if !p.sender.Send(conn, privateMessageEvent(chatID, msg, senderID)) {
		return conn, ErrRecipientOffline
	}
	return conn, nil
}
