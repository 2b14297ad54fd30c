package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/chatgate/internal/config"
	"github.com/nfrund/chatgate/internal/database"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/fixtures"
	"github.com/nfrund/chatgate/internal/storage"
)

// UserStore resolves users and accepts seeded ones.
type UserStore interface {
	domain.UserDirectory
	fixtures.UserWriter
}

// Stores bundles the user directory and message store of the configured backend.
type Stores struct {
	Users    UserStore
	Messages domain.MessageStore
	closer   func() error
}

// Shutdown releases the backend. The injector calls it on shutdown.
func (s *Stores) Shutdown() error {
	return s.closer()
}

// openStores connects the backend named by cfg.StoreBackend.
func openStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendSurreal:
		db, err := database.NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("Using SurrealDB store", "namespace", cfg.DBNs, "database", cfg.DBDb)
		return &Stores{
			Users:    database.NewUserDirectory(db),
			Messages: database.NewMessageStore(db),
			closer: func() error {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return db.Close(closeCtx)
			},
		}, nil

	case config.BackendBadger, "":
		db, err := storage.Open(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		if cfg.BadgerPath == "" {
			slog.Info("Using in-memory badger store")
		} else {
			slog.Info("Using badger store", "path", cfg.BadgerPath)
		}
		return &Stores{
			Users:    storage.NewUsers(db),
			Messages: storage.NewMessages(db),
			closer:   db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
