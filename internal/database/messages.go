package database

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nfrund/chatgate/internal/domain"
	"github.com/samber/lo"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// messageRecord is a row of the message table.
type messageRecord struct {
	ID        *models.RecordID       `json:"id,omitempty"`
	User      *models.RecordID       `json:"user"`
	UserName  string                 `json:"user_name"`
	Text      string                 `json:"text"`
	CreatedAt *models.CustomDateTime `json:"created_at"`
}

func (r messageRecord) toDomain() *domain.ChatMessage {
	msg := &domain.ChatMessage{
		ID:       recordString(r.ID),
		UserID:   domain.UserID(recordString(r.User)),
		UserName: r.UserName,
		Text:     r.Text,
	}
	if r.CreatedAt != nil {
		msg.CreatedAt = r.CreatedAt.Time.UTC()
	}
	return msg
}

// MessageStore persists chat messages in the message table.
type MessageStore struct {
	db *surrealdb.DB
}

// NewMessageStore creates a MessageStore.
func NewMessageStore(db *surrealdb.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create implements domain.MessageStore. The database assigns id and timestamp.
func (s *MessageStore) Create(ctx context.Context, msg domain.NewMessage) (*domain.ChatMessage, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	user, err := toRecordID(msg.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	query := "CREATE message CONTENT { user: $user, user_name: $user_name, text: $text, created_at: time::now() } RETURN AFTER"
	rec, err := QueryOne[messageRecord](ctx, s.db, query, map[string]any{
		"user":      user,
		"user_name": msg.UserName,
		"text":      msg.Text,
	})
	if err != nil {
		return nil, errors.Join(domain.ErrPersistence, err)
	}
	if rec == nil || rec.ID == nil {
		return nil, fmt.Errorf("%w: create returned no record", domain.ErrPersistence)
	}
	return rec.toDomain(), nil
}

// ListRecent implements domain.MessageStore.
func (s *MessageStore) ListRecent(ctx context.Context, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := Query[messageRecord](ctx, s.db, "SELECT * FROM message ORDER BY created_at DESC LIMIT $limit", map[string]any{
		"limit": limit,
	})
	if err != nil {
		return nil, errors.Join(domain.ErrPersistence, err)
	}

	slices.Reverse(rows)
	return lo.Map(rows, func(r messageRecord, _ int) *domain.ChatMessage {
		return r.toDomain()
	}), nil
}
