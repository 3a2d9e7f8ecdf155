package performer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry whenever its file is written, created or
// renamed into place, calling onChange after each successful reload. It
// blocks until ctx is done.
func (r *Registry) Watch(ctx context.Context, onChange func()) error {
	if r.path == "" {
		return errors.New("performer registry has no backing file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	// Watch the directory so editors that replace the file are seen.
	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	r.logger.Info("fsnotify watching dir", "dir", dir)

	target := filepath.Clean(r.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}

			r.logger.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			if err := r.Reload(); err != nil {
				r.logger.Error("performer registry reload failed", "error", err)
				continue
			}
			if onChange != nil {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}
