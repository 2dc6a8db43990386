// Package watcher turns filesystem activity under the input root into
// debounced rebuild signals for the development server.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher batches file changes under a directory tree. Rapid bursts, like an
// editor writing a swap file and then renaming it into place, collapse into
// one signal.
type Watcher struct {
	fs      *fsnotify.Watcher
	delay   time.Duration
	changes chan []string
}

// New watches root and every directory below it. Hidden directories are
// skipped, matching page discovery.
func New(root string, delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fs:      fsw,
		delay:   delay,
		changes: make(chan []string, 1),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return w, nil
}

// Changes returns the channel rebuild signals arrive on. Each signal is the
// sorted, deduplicated set of paths that changed since the previous one.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Close stops watching. A Run in progress returns.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run pumps filesystem events into change batches until ctx is cancelled or
// the watcher is closed. A batch is emitted once the tree has been quiet for
// the debounce delay.
func (w *Watcher) Run(ctx context.Context) {
	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.delay)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			select {
			case w.changes <- batch:
				pending = make(map[string]struct{})
			default:
				// Consumer still busy with the last batch; keep
				// accumulating and try again after another delay.
				timer.Reset(w.delay)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "err", err)
		}
	}
}

// relevant filters an event and, for newly created directories, extends the
// watch to cover them.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("watch new directory", "dir", ev.Name, "err", err)
			}
		}
	}
	return true
}

// addTree watches dir and every directory below it, skipping hidden ones.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return fs.SkipDir
		}
		return w.fs.Add(path)
	})
}
