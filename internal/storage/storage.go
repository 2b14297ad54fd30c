// Package storage keeps users and chat messages in an embedded Badger
// database, so a single binary runs without external services.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Open opens the badger database at path. An empty path keeps everything in
// memory.
func Open(path string) (*badger.DB, error) {
	options := badger.DefaultOptions(path).WithLogger(badgerLogger{})
	if path == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	slog.Info("Opened badger store", "path", path, "in_memory", path == "")
	return db, nil
}

// badgerLogger forwards badger's logs to slog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Warningf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Infof(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Debugf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
