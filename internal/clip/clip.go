// Package clip abstracts access to the OS clipboard so the watcher and the
// control surfaces never touch platform APIs directly, and tests can
// substitute a deterministic fake.
package clip

import (
	"log/slog"
	"time"
)

// DefaultPollInterval is how often the real backend samples the clipboard.
const DefaultPollInterval = 500 * time.Millisecond

// Backend is the capability interface over the system clipboard.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard text. ok is false when the
	// clipboard is empty or unreadable; that is never an error condition.
	Read() (text string, ok bool)

	// Write replaces the clipboard contents, used to restore an entry the
	// user selected from history.
	Write(text string) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// text changes. The channel is never closed. The caller should Read when
	// it receives from the channel.
	Watch() <-chan struct{}

	// Close stops the backend's poll loop and releases its resources.
	Close()
}

// New returns the platform clipboard backend, polling at interval, or a
// no-op backend when the display environment is unavailable (headless
// servers, containers, CI). The daemon keeps running either way; the control
// surfaces still work against the persisted history.
func New(interval time.Duration) Backend {
	b, err := newPollBackend(interval)
	if err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return newHeadlessBackend()
	}
	return b
}
