package chat

import "errors"

var (
	ErrUnknownConnection = errors.New("chat: unknown connection")
	ErrUnknownRoom       = errors.New("chat: unknown room")
	ErrUnknownMessage    = errors.New("chat: unknown message")
	ErrInvalidStatus     = errors.New("chat: invalid message status")
	ErrStatusRegression  = errors.New("chat: status transition not allowed")
	ErrNotIdentified     = errors.New("chat: connection has no identity")
	ErrNotMember         = errors.New("chat: connection is not a member of the room")
	ErrRecipientOffline  = errors.New("chat: recipient has no live connection")
	ErrStorageRejected   = errors.New("chat: attachment storage rejected the file")
)

// Silent reports whether err belongs to the class of failures that the relay
// resolves as a no-op without telling the client.
func Silent(err error) bool {
	return errors.Is(err, ErrUnknownRoom) ||
		errors.Is(err, ErrUnknownMessage) ||
		errors.Is(err, ErrStatusRegression) ||
		errors.Is(err, ErrUnknownConnection)
}
