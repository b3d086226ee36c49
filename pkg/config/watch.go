package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file on change and invokes onChange with the
// freshly validated config. A reload that fails validation is logged and
// skipped, keeping the previous config in effect. The returned stop
// function releases the watcher.
//
// Editors replace files rather than writing in place, so the watch is on
// the parent directory with events filtered to the config file name.
func Watch(path string, onChange func(*Config)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	base := filepath.Base(path)
	go func() {
		var last time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				// editors fire bursts of events per save
				if time.Since(last) < 100*time.Millisecond {
					continue
				}
				last = time.Now()

				cfg, err := Load(path)
				if err != nil {
					slog.Warn("Config reload failed, keeping previous config", "path", path, "error", err)
					continue
				}
				slog.Info("Config reloaded", "path", path)
				onChange(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Config watcher error", "error", err)
			}
		}
	}()

	return watcher.Close, nil
}
