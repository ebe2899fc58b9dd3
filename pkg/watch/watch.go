// Package watch re-runs a pass whenever one of a set of files changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before fn runs.
const DefaultDebounce = 200 * time.Millisecond

// Options configures Run.
type Options struct {
	Debounce time.Duration
	Log      *slog.Logger
}

// Run watches paths and calls fn once changes settle, until ctx is done.
// The directories holding the files are watched so editors that replace a
// file on save are seen. Calls to fn never overlap; an error from fn is
// logged and watching continues.
func Run(ctx context.Context, paths []string, opts Options, fn func(context.Context) error) error {
	if len(paths) == 0 {
		return errors.New("nothing to watch")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
		log.Debug("watching directory", "dir", dir)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			log.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-timer.C:
			log.Info("files changed, re-running")
			if err := fn(ctx); err != nil {
				log.Error("re-run failed", "error", err)
			}
		}
	}
}
