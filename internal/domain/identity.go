package domain

import (
	"context"
	"strings"
)

// UserID identifies a user. It is always the string form of a record id,
// "table:key", so it round-trips through every store unchanged.
type UserID string

// String returns the id in "table:key" form.
func (id UserID) String() string {
	return string(id)
}

// Split returns the table and key parts of the id. ok is false when the id is
// not a well-formed record id.
func (id UserID) Split() (table, key string, ok bool) {
	table, key, ok = strings.Cut(string(id), ":")
	if !ok || table == "" || key == "" {
		return "", "", false
	}
	return table, key, true
}

// Identity is the authenticated user attached to a connection.
type Identity struct {
	UserID   UserID `json:"userId"`
	UserName string `json:"userName"`
}

// User is an entry in the user directory.
type User struct {
	ID   UserID `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Identity returns the connection identity for u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, UserName: u.Name}
}

// Assistant is the reserved identity of the automated chat participant. It is
// never resolved through the user directory.
var Assistant = Identity{
	UserID:   "user:assistant",
	UserName: "Assistant",
}

// UserDirectory resolves user ids to users.
type UserDirectory interface {
	// FindByID returns ErrNotFound when no user has the given id.
	FindByID(ctx context.Context, id UserID) (*User, error)
}
