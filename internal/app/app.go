// Package app wires every component of the gateway into a runnable
// application using a samber/do injector.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/chatgate/internal/assistant"
	"github.com/nfrund/chatgate/internal/auth"
	"github.com/nfrund/chatgate/internal/catalog"
	"github.com/nfrund/chatgate/internal/chat"
	"github.com/nfrund/chatgate/internal/config"
	"github.com/nfrund/chatgate/internal/fixtures"
	"github.com/nfrund/chatgate/internal/origin"
	"github.com/nfrund/chatgate/internal/pubsub"
	"github.com/nfrund/chatgate/internal/server"
	"github.com/nfrund/chatgate/internal/websocket"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
)

// Option customises an App.
type Option func(*options)

type options struct {
	fs        afero.Fs
	scheduler assistant.Scheduler
}

// WithFs reads fixtures from fs instead of the OS file system.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithScheduler replaces the timer used to delay assistant replies.
func WithScheduler(s assistant.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// App is the assembled gateway.
type App struct {
	injector *do.RootScope
	cfg      *config.Config
	fs       afero.Fs
	bus      *pubsub.WatermillBridge
	index    *catalog.Index
}

// New builds every component and seeds fixtures when FIXTURES_PATH is set.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}

	i := do.New()
	do.ProvideValue(i, cfg)

	do.Provide(i, func(i do.Injector) (*Stores, error) {
		return openStores(ctx, do.MustInvoke[*config.Config](i))
	})
	do.Provide(i, func(i do.Injector) (*catalog.Index, error) {
		return catalog.NewIndex()
	})
	do.Provide(i, func(i do.Injector) (*catalog.Breaker, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return catalog.NewBreaker(do.MustInvoke[*catalog.Index](i), catalog.BreakerSettings{
			Failures: cfg.CatalogBreakerFailures,
			Cooldown: cfg.CatalogBreakerCooldown,
			Timeout:  cfg.CatalogSearchTimeout,
		}), nil
	})
	do.Provide(i, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		return pubsub.NewWatermillBridge(), nil
	})
	do.Provide(i, func(i do.Injector) (*websocket.Registry, error) {
		return websocket.NewRegistry(), nil
	})
	do.Provide(i, func(i do.Injector) (*origin.Matcher, error) {
		return origin.Parse(do.MustInvoke[*config.Config](i).AllowedOrigins), nil
	})
	do.Provide(i, func(i do.Injector) (*auth.Verifier, error) {
		cfg := do.MustInvoke[*config.Config](i)
		stores := do.MustInvoke[*Stores](i)
		return auth.NewVerifier([]byte(cfg.JWTSecret), stores.Users), nil
	})
	do.Provide(i, func(i do.Injector) (*chat.Pipeline, error) {
		stores := do.MustInvoke[*Stores](i)
		return chat.NewPipeline(
			stores.Messages,
			do.MustInvoke[*websocket.Registry](i),
			do.MustInvoke[*pubsub.WatermillBridge](i),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*assistant.Responder, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return assistant.NewResponder(
			do.MustInvoke[*catalog.Breaker](i),
			do.MustInvoke[*chat.Pipeline](i),
			assistant.Options{
				MinDelay:  cfg.AssistantMinDelay,
				MaxDelay:  cfg.AssistantMaxDelay,
				Scheduler: o.scheduler,
			},
		), nil
	})
	do.Provide(i, func(i do.Injector) (*websocket.Gateway, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return websocket.NewGateway(
			do.MustInvoke[*websocket.Registry](i),
			do.MustInvoke[*origin.Matcher](i),
			do.MustInvoke[*auth.Verifier](i),
			do.MustInvoke[*chat.Pipeline](i),
			websocket.Options{
				HandshakeTimeout: cfg.HandshakeTimeout,
				SendBuffer:       cfg.SendBuffer,
			},
		), nil
	})
	do.Provide(i, func(i do.Injector) (*server.Server, error) {
		stores := do.MustInvoke[*Stores](i)
		verifier := do.MustInvoke[*auth.Verifier](i)
		return server.New(server.Deps{
			Config:        do.MustInvoke[*config.Config](i),
			Gateway:       do.MustInvoke[*websocket.Gateway](i),
			Messages:      stores.Messages,
			Authenticator: verifier,
			Origins:       do.MustInvoke[*origin.Matcher](i),
		}), nil
	})

	a := &App{injector: i, cfg: cfg, fs: o.fs}
	if err := a.build(); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to build application: %w", err)
	}

	if cfg.FixturesPath != "" {
		if err := a.loadFixtures(ctx); err != nil {
			a.Shutdown()
			return nil, err
		}
	}
	return a, nil
}

// build resolves the whole graph so configuration errors surface at startup.
func (a *App) build() error {
	var err error
	if a.bus, err = do.Invoke[*pubsub.WatermillBridge](a.injector); err != nil {
		return err
	}
	if a.index, err = do.Invoke[*catalog.Index](a.injector); err != nil {
		return err
	}
	if _, err = do.Invoke[*assistant.Responder](a.injector); err != nil {
		return err
	}
	_, err = do.Invoke[*server.Server](a.injector)
	return err
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return do.MustInvoke[*server.Server](a.injector)
}

// Start subscribes the assistant, starts the fixture watcher when enabled and
// serves HTTP until ctx is cancelled. Background work stops when Start returns.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.StartBackground(ctx); err != nil {
		return err
	}
	return a.Server().Start(ctx)
}

// StartBackground starts everything except the HTTP listener.
func (a *App) StartBackground(ctx context.Context) error {
	responder := do.MustInvoke[*assistant.Responder](a.injector)
	if err := responder.Subscribe(ctx, a.bus); err != nil {
		return fmt.Errorf("failed to subscribe assistant: %w", err)
	}

	if a.cfg.FixturesPath != "" && a.cfg.FixturesWatch {
		if err := catalog.Watch(ctx, a.cfg.FixturesPath, func() error {
			return a.loadFixtures(ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown closes the bus, the catalog index and the stores.
func (a *App) Shutdown() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			slog.Error("Failed to close event bus", "error", err)
		}
	}
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			slog.Error("Failed to close catalog index", "error", err)
		}
	}
	a.injector.Shutdown()
}

// loadFixtures reads the fixture file and seeds the users and the catalog.
func (a *App) loadFixtures(ctx context.Context) error {
	set, err := fixtures.Load(a.fs, a.cfg.FixturesPath)
	if err != nil {
		return err
	}
	stores := do.MustInvoke[*Stores](a.injector)
	if err := set.Apply(ctx, stores.Users, a.index); err != nil {
		return err
	}
	slog.Info("Fixtures loaded",
		"path", a.cfg.FixturesPath,
		"users", len(set.Users),
		"songs", len(set.Songs),
		"albums", len(set.Albums),
	)
	return nil
}
