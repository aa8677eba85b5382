package websocket

import "time"

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Error codes carried by outbound error events.
const (
	CodeBadRequest       = "bad_request"
	CodeUnknownEvent     = "unknown_event"
	CodeInvalidPayload   = "invalid_payload"
	CodeMessageTooLong   = "message_too_long"
	CodeNotIdentified    = "not_identified"
	CodeNotMember        = "not_member"
	CodeRecipientOffline = "recipient_offline"
	CodeFileTooLarge     = "file_too_large"
	CodeFileType         = "file_type_not_allowed"
	CodeStorage          = "storage_unavailable"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal_error"
)

type Options struct {
	SendBuffer      int
	ReadLimit       int64
	RateLimitPerSec float64
	RateLimitBurst  int
	AllowedOrigins  []string
}

// Limits bound what the router accepts from clients.
type Limits struct {
	MaxMessageLength int
	MaxFileSize      int64
	AllowedFileTypes []string
}
