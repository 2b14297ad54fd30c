package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/nfrund/chatgate/internal/domain"
)

const userPrefix = "usr:"

// Users is a domain.UserDirectory backed by badger.
type Users struct {
	db *badger.DB
}

// NewUsers creates a user directory on db.
func NewUsers(db *badger.DB) *Users {
	return &Users{db: db}
}

// FindByID implements domain.UserDirectory.
func (u *Users) FindByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + id.String()))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &user)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %s: %w", id, err)
	}
	return &user, nil
}

// Put creates or replaces users.
func (u *Users) Put(_ context.Context, users ...domain.User) error {
	wb := u.db.NewWriteBatch()
	defer wb.Cancel()

	for _, user := range users {
		if _, _, ok := user.ID.Split(); !ok {
			return fmt.Errorf("%w: malformed user id %q", domain.ErrValidation, user.ID)
		}
		value, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := wb.Set([]byte(userPrefix+user.ID.String()), value); err != nil {
			return fmt.Errorf("failed to store user %s: %w", user.ID, err)
		}
	}
	return wb.Flush()
}
