package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of filesystem events one editor save
// produces (truncate then write, or write-temp-then-rename) into a single
// reload.
const reloadDebounce = 250 * time.Millisecond

// Watch reloads the config file at path whenever it changes on disk and
// delivers each successfully parsed and validated Config on the returned
// channel. A reload that fails validation is logged and dropped, so
// subscribers keep the last config they took. The channel closes when ctx
// ends.
//
// The watch is placed on the file's directory rather than the file itself:
// editors that save atomically replace the inode, which would strand a
// per-file watch after the first save.
func Watch(ctx context.Context, path string) (<-chan *Config, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: start watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}

	out := make(chan *Config)
	go func() {
		defer close(out)
		defer w.Close()
		watchLoop(ctx, w, path, out)
	}()

	slog.Info("config: hot reload armed", "path", path)
	return out, nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, out chan<- *Config) {
	base := filepath.Base(path)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Arm (or re-arm) the debounce window.
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(reloadDebounce)
			pending = timer.C

		case <-pending:
			timer, pending = nil, nil

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload rejected, keeping previous config",
					"path", path, "err", err)
				continue
			}
			slog.Info("config: reloaded", "path", path)

			select {
			case out <- cfg:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
