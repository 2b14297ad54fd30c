package chat

import "github.com/nfrund/chatgate/internal/domain"

// Ack messages returned to the sender on failure.
const (
	MsgRequired   = "Message is required"
	MsgSendFailed = "Failed to send message"
)

// Ack is the reply to a chat:send event. Message is a string on failure and
// the broadcast MessageView on success.
type Ack struct {
	Success bool `json:"success"`
	Message any  `json:"message"`
}

// Failure builds a failed Ack.
func Failure(message string) Ack {
	return Ack{Success: false, Message: message}
}

// Sent builds a successful Ack carrying the broadcast message.
func Sent(view domain.MessageView) Ack {
	return Ack{Success: true, Message: view}
}
