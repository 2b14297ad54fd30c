package chat

import (
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/pubsub"
)

// EventChatMessage is the event name of a broadcast chat message.
const EventChatMessage = "chat:message"

// MessageCreated is published on the bus after a user message was persisted
// and broadcast.
var MessageCreated = pubsub.NewEvent[MessageCreatedEvent]("chat.message.created")

// MessageCreatedEvent is the payload of MessageCreated.
type MessageCreatedEvent struct {
	MessageID string        `json:"messageId"`
	UserID    domain.UserID `json:"userId"`
	UserName  string        `json:"userName"`
	Text      string        `json:"text"`
}

// Broadcaster delivers an event to every admitted connection.
type Broadcaster interface {
	Broadcast(event string, data any)
}
