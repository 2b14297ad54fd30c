package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events an editor produces on save.
const reloadDelay = 200 * time.Millisecond

// Watch calls reload whenever the file at path changes, until ctx is done.
// The parent directory is watched so files replaced by rename are picked up.
func Watch(ctx context.Context, path string, reload func() error) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		fire := make(chan struct{}, 1)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				slog.Debug("Catalog watcher stopped", "path", path)
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})

			case <-fire:
				if err := reload(); err != nil {
					slog.Error("Failed to reload catalog", "path", path, "error", err)
					continue
				}
				slog.Info("Catalog reloaded", "path", path)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("File system watcher error", "error", err)
			}
		}
	}()

	slog.Debug("Started catalog watcher", "path", path)
	return nil
}
