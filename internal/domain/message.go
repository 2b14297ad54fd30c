package domain

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
)

// validatorInstance is shared so struct metadata is cached once.
var validatorInstance = validator.New()

// NewMessage is the input for MessageStore.Create.
type NewMessage struct {
	UserID   UserID `json:"userId" validate:"required"`
	UserName string `json:"userName" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// Validate checks that all fields are present.
func (m NewMessage) Validate() error {
	return validatorInstance.Struct(m)
}

// ChatMessage is a persisted chat message. ID and CreatedAt are assigned by
// the store and the message never changes afterwards.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageView is the wire representation of a ChatMessage.
type MessageView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// View converts m to its wire representation.
func (m *ChatMessage) View() MessageView {
	return MessageView{
		ID:        m.ID,
		UserID:    m.UserID.String(),
		UserName:  m.UserName,
		Text:      m.Text,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// MessageStore durably appends chat messages.
type MessageStore interface {
	// Create persists msg and returns it with ID and CreatedAt set. The message
	// is durable when Create returns without error.
	Create(ctx context.Context, msg NewMessage) (*ChatMessage, error)

	// ListRecent returns up to limit of the newest messages, oldest first.
	ListRecent(ctx context.Context, limit int) ([]*ChatMessage, error)
}
