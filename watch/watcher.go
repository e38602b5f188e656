// Package watch re-runs the sync orchestrator whenever either side of a
// serialization pair changes on disk.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ontosync "github.com/c360studio/ontosync/sync"
)

const defaultDebounce = 500 * time.Millisecond

// SyncFunc runs one sync pass for the pair a watcher guards. It is invoked
// after the debounce window closes.
type SyncFunc func(ctx context.Context) (*ontosync.Result, error)

// Watcher watches the two files of a pair and triggers a sync after edits
// settle. Editors replace files by rename, so the parent directories are
// watched and events filtered by name.
type Watcher struct {
	paths    map[string]bool // absolute paths of the watched pair
	dirs     []string
	debounce time.Duration
	syncFn   SyncFunc
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for the given pair of file paths.
func New(leftPath, rightPath string, debounce time.Duration, syncFn SyncFunc, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	paths := make(map[string]bool, 2)
	dirSet := make(map[string]bool, 2)
	for _, p := range []string{leftPath, rightPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		paths[abs] = true
		dirSet[filepath.Dir(abs)] = true
	}
	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	return &Watcher{
		paths:    paths,
		dirs:     dirs,
		debounce: debounce,
		syncFn:   syncFn,
		logger:   logger,
	}, nil
}

// Run blocks until the context is cancelled, syncing after each settled
// burst of changes. Conflicts are logged and watching continues; the next
// edit may resolve them.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return err
		}
		w.logger.Debug("watching directory", slog.String("dir", dir))
	}

	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("change detected",
				slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			w.resetTimer(fire)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-fire:
			w.runSync(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.paths[abs]
}

func (w *Watcher) resetTimer(fire chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) runSync(ctx context.Context) {
	res, err := w.syncFn(ctx)
	switch {
	case errors.Is(err, ontosync.ErrConflict):
		w.logger.Error("sync conflict, waiting for manual resolution", slog.String("error", err.Error()))
	case err != nil:
		w.logger.Error("sync failed", slog.String("error", err.Error()))
	case res.Written != "":
		w.logger.Info("resynced", slog.String("written", res.Written))
	default:
		w.logger.Debug("pair already in sync")
	}
}
