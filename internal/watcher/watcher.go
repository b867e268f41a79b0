// Package watcher owns the capture loop: it feeds clipboard changes into the
// history store and debounces persistence.
//
// The clipboard backend polls in its own goroutine and hands changes over a
// channel, so a stalled OS clipboard read can never block pin/search
// operations arriving through the control surfaces. Saves work off a
// checkpoint taken under the store lock and write outside it.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.klb.dev/klippy/internal/clip"
	"go.klb.dev/klippy/internal/history"
	"go.klb.dev/klippy/internal/persist"
)

// DefaultFlushInterval is how often dirty state is flushed to disk.
const DefaultFlushInterval = 3 * time.Second

// Watcher connects a clipboard backend to the history store.
type Watcher struct {
	store   *history.Store
	backend clip.Backend
	saver   *persist.Adapter
	flushEv time.Duration

	// lastSeen is the previous clipboard snapshot, tracked so an unchanged
	// clipboard is not re-inserted on every signal.
	lastSeen string
}

// New returns a Watcher. flushEvery <= 0 falls back to DefaultFlushInterval.
func New(store *history.Store, backend clip.Backend, saver *persist.Adapter, flushEvery time.Duration) *Watcher {
	if flushEvery <= 0 {
		flushEvery = DefaultFlushInterval
	}
	return &Watcher{store: store, backend: backend, saver: saver, flushEv: flushEvery}
}

// Run blocks until ctx is cancelled, capturing clipboard changes and flushing
// dirty state on a ticker. On shutdown it performs a final flush so no
// acknowledged mutation is lost on a graceful exit.
func (w *Watcher) Run(ctx context.Context) {
	slog.Info("clipboard watcher started", "backend", w.backend.Name(), "flush_every", w.flushEv)

	flush := time.NewTicker(w.flushEv)
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Flush()
			slog.Info("clipboard watcher stopped")
			return
		case <-w.backend.Watch():
			w.capture()
		case <-flush.C:
			w.Flush()
		}
	}
}

// capture reads the clipboard once and inserts the text if it is new.
func (w *Watcher) capture() {
	text, ok := w.backend.Read()
	if !ok {
		// Unreadable or empty clipboard. Reset last-seen so the same text
		// copied again later is still captured.
		w.lastSeen = ""
		return
	}
	if text == w.lastSeen {
		return
	}
	// Update last-seen even when the insert below is skipped as trivial, so
	// a whitespace-only clipboard is not reprocessed every tick.
	w.lastSeen = text

	e, err := w.store.Insert(text)
	if err != nil {
		if !errors.Is(err, history.ErrInvalidArgument) {
			slog.Error("history insert failed", "err", err)
		}
		return
	}
	slog.Debug("captured clipboard text", "id", e.ID, "bytes", len(e.Content))
}

// Flush saves the store if it has unsaved mutations. Save failures are
// logged and retried on the next flush; in-memory state is never dropped.
func (w *Watcher) Flush() {
	if !w.store.Dirty() {
		return
	}
	snap, gen := w.store.Checkpoint()
	if err := w.saver.Save(snap); err != nil {
		slog.Warn("history save failed, keeping in-memory state", "err", err)
		return
	}
	w.store.MarkSaved(gen)
	slog.Debug("history saved", "entries", len(snap.Entries), "path", w.saver.Path())
}
