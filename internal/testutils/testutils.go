// Package testutils holds helpers shared by integration tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nfrund/chatgate/internal/config"
	"github.com/nfrund/chatgate/internal/domain"
)

// SurrealConfig returns the configuration of the SurrealDB integration test
// database. Variables from a .env.test file at the module root are applied
// first. The test is skipped in short mode or when SURREAL_URL is unset.
func SurrealConfig(t *testing.T) *config.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	if root, ok := moduleRoot(); ok {
		if env, err := godotenv.Read(filepath.Join(root, ".env.test")); err == nil {
			for key, value := range env {
				t.Setenv(key, value)
			}
		}
	}

	if os.Getenv("SURREAL_URL") == "" {
		t.Skip("SURREAL_URL not set, skipping SurrealDB integration test")
	}

	return &config.Config{
		StoreBackend: config.BackendSurreal,
		DBUrl:        os.Getenv("SURREAL_URL"),
		DBNs:         envOr("SURREAL_NS", "chatgate_test"),
		DBDb:         envOr("SURREAL_DB", "chatgate_test"),
		DBUser:       os.Getenv("SURREAL_USER"),
		DBPass:       os.Getenv("SURREAL_PASS"),
	}
}

// NewUserID returns a user id that no other test uses.
func NewUserID() domain.UserID {
	return domain.UserID("user:" + uuid.NewString())
}

// moduleRoot walks up from the working directory to the directory holding go.mod.
func moduleRoot() (string, bool) {
	path, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path, true
		}
		if path == filepath.Dir(path) {
			return "", false
		}
		path = filepath.Dir(path)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
