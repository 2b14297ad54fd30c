// Package pubsub is the in-process event bus that decouples the chat pipeline
// from the components reacting to chat events.
package pubsub

import (
	"context"
)

// Message is one event on the bus.
type Message struct {
	// Topic is the event name, e.g. "chat.message.created".
	Topic string
	// UserID is the author of the chat activity behind the event.
	UserID string
	// Payload is the JSON encoded event body.
	Payload []byte
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe delivers every message on topic to handler from a background
	// goroutine until ctx is done or the bus is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
