package reftable

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// ReloadFunc is told about every reload attempt. err is nil on success.
type ReloadFunc func(t *Table, err error)

type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatchOption { return func(w *Watcher) { w.debounce = d } }

// OnReload registers a callback for reload attempts.
func OnReload(fn ReloadFunc) WatchOption { return func(w *Watcher) { w.onReload = fn } }

// Watcher reloads a CSV source when it changes on disk and swaps the new
// table into a Holder. A failed reload leaves the current table in place.
type Watcher struct {
	path     string
	layout   Layout
	holder   *Holder
	debounce time.Duration
	onReload ReloadFunc
}

func NewWatcher(path string, layout Layout, h *Holder, opts ...WatchOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		layout:   layout,
		holder:   h,
		debounce: defaultDebounce,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Reload loads the source once and swaps it in on success.
func (w *Watcher) Reload() error {
	t, err := LoadCSV(w.path, w.layout)
	if w.onReload != nil {
		w.onReload(t, err)
	}
	if err != nil {
		slog.Warn("reference table reload failed, keeping current table", "path", w.path, "error", err)
		return err
	}
	prev := w.holder.Swap(t)
	slog.Info("reference table reloaded", "path", w.path, "previous", prev.Len(), "current", t.Len())
	return nil
}

// Run watches the source's directory until ctx is cancelled. The directory
// is watched rather than the file so that editors which replace the file by
// rename are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("reftable: watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("reftable: watch %s: %w", w.path, err)
	}
	slog.Info("watching reference table", "path", w.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("reference table watcher error", "error", err)
		case <-fire:
			fire = nil
			_ = w.Reload()
		}
	}
}
