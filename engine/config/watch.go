package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch reloads path whenever it changes and hands valid settings to fn. The parent directory is
// watched so editors that save by renaming a temporary file are picked up. Invalid files are
// logged and skipped. Watch returns once the watcher is running; it stops when ctx is done.
//
// Parameters:
//   - ctx: stops the watcher
//   - path: the settings file
//   - logger: receives reload failures
//   - fn: receives every successfully reloaded Settings
//
// Returns:
//   - error: error if the watcher cannot be started
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(Settings)) error {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "watch settings %s", path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "watch settings")
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watch settings %s", path)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				s, err := Load(abs)
				if err != nil {
					logger.Warn("settings reload failed", "path", abs, "err", err)
					continue
				}
				logger.Info("settings reloaded", "path", abs)
				fn(s)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("settings watcher error", "err", err)
			}
		}
	}()
	return nil
}
