// Package scriptfile watches the local default-script file so a script
// edited on disk is picked up like a network-delivered one, minus the
// persistence write-through.
package scriptfile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the burst of events editors emit per save.
const debounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the directory containing path and
// invokes cb with the file's new contents after each (debounced) change,
// until ctx is cancelled.
//
// The parent directory is watched rather than the file itself: most editors
// replace files by rename, which would silently detach a file-level watch.
func Watch(ctx context.Context, path string, logger *slog.Logger, cb func(text string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("scriptfile: watching", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("scriptfile: stopped")
			return nil

		case <-fire:
			data, err := os.ReadFile(abs)
			if err != nil {
				logger.Warn("scriptfile: read failed", slog.String("error", err.Error()))
				continue
			}
			cb(string(data))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("scriptfile: watcher error", slog.String("error", err.Error()))
		}
	}
}
