package chat

import (
	"fmt"

	"chat-relay-backend/internal/model"

	"github.com/samber/lo"
)

type ReactionResult struct {
	Message    model.Message
	Symbol     string
	Username   string
	Count      int
	Changed    bool
	Recipients []model.ConnectionID
}

// ReactionDispatcher applies reactions and read receipts to logged messages.
type ReactionDispatcher struct {
	rooms *Directory
	relay *Relay
}

func NewReactionDispatcher(rooms *Directory, relay *Relay) *ReactionDispatcher {
	return &ReactionDispatcher{rooms: rooms, relay: relay}
}

// AddReaction records username under symbol. Each username counts once per
// symbol; then runs only when the reaction is new.
func (d *ReactionDispatcher) AddReaction(name, messageID, symbol, username string, then func(ReactionResult)) (ReactionResult, error) {
	var (
		out   ReactionResult
		found bool
	)
	err := d.rooms.with(name, false, func(r *room) {
		var msg *model.Message
		msg, found = r.log.get(messageID)
		if !found {
			return
		}
		if msg.Reactions == nil {
			msg.Reactions = make(map[string][]string)
		}
		users := msg.Reactions[symbol]
		changed := !lo.Contains(users, username)
		if changed {
			users = append(users, username)
			msg.Reactions[symbol] = users
		}
		out = ReactionResult{
			Message:    msg.Clone(),
			Symbol:     symbol,
			Username:   username,
			Count:      len(users),
			Changed:    changed,
			Recipients: r.memberIDs(),
		}
		if changed && then != nil {
			then(out)
		}
	})
	if err == nil && !found {
		err = ErrUnknownMessage
	}
	if err != nil {
		return ReactionResult{}, fmt.Errorf("react to %s/%s: %w", name, messageID, err)
	}
	return out, nil
}

// MarkRead moves the message to read. Read is terminal.
func (d *ReactionDispatcher) MarkRead(name, messageID string, then func(Delivery)) (Delivery, error) {
	return d.relay.UpdateStatus(name, messageID, model.MessageStatusRead, then)
}
