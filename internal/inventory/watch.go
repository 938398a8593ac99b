package inventory

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts of file events (an editor saving a PNG
// usually produces several).
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads an Inventory when its asset directory changes.
type Watcher struct {
	inv      *Inventory
	dir      string
	debounce time.Duration
	onReload func(error)
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// OnReload sets a callback run after every reload with its outcome.
func OnReload(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher watches dir and its category directories for inv.
func NewWatcher(inv *Inventory, dir string, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		inv:      inv,
		dir:      dir,
		debounce: DefaultDebounce,
		fsw:      fsw,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	for _, cat := range Categories {
		w.addDir(filepath.Join(dir, cat))
	}
	return w, nil
}

func (w *Watcher) addDir(p string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fsw.Add(p); err != nil {
		w.logger.Warn("cannot watch directory", zap.String("path", p), zap.Error(err))
	}
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				// A new category directory needs its own watch.
				w.addDir(ev.Name)
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			err := w.inv.Reload()
			if err != nil {
				w.logger.Warn("inventory reload failed", zap.Error(err))
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
