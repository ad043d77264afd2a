// Package watcher reloads the index when the corpus directory changes.
// Bursts of file events (an editor save, a bulk copy) are debounced into a
// single reload.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
)

// DefaultDebounce is used when no positive debounce window is configured.
const DefaultDebounce = 500 * time.Millisecond

// Reloader rebuilds the served index. indexer.Engine implements it.
type Reloader interface {
	Reload(ctx context.Context) (*indexer.Snapshot, error)
}

// Watcher watches one directory (non-recursively) for corpus file changes.
type Watcher struct {
	dir      string
	debounce time.Duration
	reloader Reloader
	ready    chan struct{}
	logger   *slog.Logger
}

// New creates a Watcher for dir.
func New(dir string, debounce time.Duration, reloader Reloader) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		reloader: reloader,
		ready:    make(chan struct{}),
		logger:   slog.Default().With("component", "corpus-watcher"),
	}
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. A failed reload is logged and the
// previous index keeps serving.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	close(w.ready)
	w.logger.Info("watching corpus directory", "dir", w.dir, "debounce", w.debounce)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)

		case <-fire:
			fire = nil
			w.logger.Info("corpus changed, reloading", "events", pending)
			pending = 0
			snap, err := w.reloader.Reload(ctx)
			if err != nil {
				w.logger.Warn("reload after corpus change failed", "error", err)
				continue
			}
			w.logger.Info("index reloaded from directory", "generation", snap.Generation)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !corpus.IsCorpusFile(event.Name) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
