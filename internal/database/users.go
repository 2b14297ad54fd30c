package database

import (
	"context"
	"fmt"

	"github.com/nfrund/chatgate/internal/domain"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// userRecord is a row of the user table.
type userRecord struct {
	ID   *models.RecordID `json:"id,omitempty"`
	Name string           `json:"name"`
}

// UserDirectory resolves users from the user table.
type UserDirectory struct {
	db *surrealdb.DB
}

// NewUserDirectory creates a UserDirectory.
func NewUserDirectory(db *surrealdb.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

// FindByID implements domain.UserDirectory.
func (d *UserDirectory) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	rid, err := toRecordID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}

	rec, err := QueryOne[userRecord](ctx, d.db, "SELECT * FROM $id", map[string]any{"id": rid})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.User{ID: domain.UserID(recordString(rec.ID)), Name: rec.Name}, nil
}

// Put creates or replaces users.
func (d *UserDirectory) Put(ctx context.Context, users ...domain.User) error {
	for _, user := range users {
		rid, err := toRecordID(user.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if _, err := Query[userRecord](ctx, d.db, "UPSERT $id CONTENT { name: $name }", map[string]any{
			"id":   rid,
			"name": user.Name,
		}); err != nil {
			return fmt.Errorf("failed to store user %s: %w", user.ID, err)
		}
	}
	return nil
}
