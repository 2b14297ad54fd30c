// Package database stores users and chat messages in SurrealDB.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/nfrund/chatgate/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

// connectAttempts bounds the retries of NewDB.
const connectAttempts = 5

// NewDB creates and configures a new SurrealDB connection. Connection failures
// are retried with exponential backoff.
func NewDB(ctx context.Context, cfg *config.Config) (*surrealdb.DB, error) {
	var lastErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		db, err := connect(ctx, cfg)
		if err == nil {
			slog.Info("Successfully signed in to SurrealDB", "url", redactDBURL(cfg.DBUrl), "ns", cfg.DBNs, "db", cfg.DBDb)
			return db, nil
		}
		lastErr = err

		delay := backoff(attempt)
		slog.Warn("SurrealDB connection attempt failed", "attempt", attempt+1, "delay_ms", delay.Milliseconds(), "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connection failed after %d attempts: %w", connectAttempts, lastErr)
}

func connect(ctx context.Context, cfg *config.Config) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}

	if cfg.DBUser != "" {
		authData := &surrealdb.Auth{
			Username: cfg.DBUser,
			Password: cfg.DBPass,
		}
		if _, err = db.SignIn(ctx, authData); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("failed to sign in: %w", err)
		}
	}

	if err = db.Use(ctx, cfg.DBNs, cfg.DBDb); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/db: %w", err)
	}
	return db, nil
}

// backoff returns the wait before retry attempt+1, with up to 25% jitter.
func backoff(attempt int) time.Duration {
	delay := float64(100*time.Millisecond) * math.Pow(2, float64(attempt))
	delay = math.Min(delay, float64(5*time.Second))
	delay += rand.Float64() * delay * 0.25
	return time.Duration(delay)
}

// redactDBURL returns dbURL with the password hidden.
func redactDBURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	return parsedURL.Redacted()
}
