// Package fixtures loads seed data: the users known to the directory and the
// music catalog.
package fixtures

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/nfrund/chatgate/internal/catalog"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/spf13/afero"
)

var validate = validator.New()

// Set is the content of a fixture file.
type Set struct {
	Users  []domain.User   `json:"users" validate:"dive"`
	Songs  []catalog.Song  `json:"songs" validate:"dive"`
	Albums []catalog.Album `json:"albums" validate:"dive"`
}

// Load reads and validates the fixture file at path.
func Load(fs afero.Fs, path string) (*Set, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var set Set
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	if err := validate.Struct(&set); err != nil {
		return nil, fmt.Errorf("invalid fixtures %s: %w", path, err)
	}
	for _, u := range set.Users {
		if _, _, ok := u.ID.Split(); !ok {
			return nil, fmt.Errorf("invalid fixtures %s: user id %q is not a record id", path, u.ID)
		}
		if u.ID == domain.Assistant.UserID {
			return nil, fmt.Errorf("invalid fixtures %s: %s is reserved", path, u.ID)
		}
	}
	return &set, nil
}

// UserWriter stores directory entries.
type UserWriter interface {
	Put(ctx context.Context, users ...domain.User) error
}

// CatalogLoader replaces the searchable catalog.
type CatalogLoader interface {
	Load(songs []catalog.Song, albums []catalog.Album) error
}

// Apply seeds users and catalog from set. Either target may be nil.
func (s *Set) Apply(ctx context.Context, users UserWriter, cat CatalogLoader) error {
	if users != nil && len(s.Users) > 0 {
		if err := users.Put(ctx, s.Users...); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
	}
	if cat != nil {
		if err := cat.Load(s.Songs, s.Albums); err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	return nil
}
