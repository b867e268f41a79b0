// Package persist serializes the clipboard history to a durable file.
//
// Writes go to a temp file in the same directory followed by an atomic
// rename, so a crash mid-write never clobbers the previous good state. A file
// that cannot be parsed (or decrypted) is renamed aside rather than silently
// overwritten, and the caller falls back to an empty store.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.klb.dev/klippy/internal/crypto"
	"go.klb.dev/klippy/internal/history"
)

// ErrCorruptState is returned by Load when the history file exists but cannot
// be decoded. The offending file is preserved on disk under a .corrupt-* name
// for inspection.
var ErrCorruptState = errors.New("corrupt history file")

// fileState is the on-disk format: the ordered entry list plus settings.
type fileState struct {
	Entries  []history.Entry `json:"entries"`
	Settings settings        `json:"settings"`
}

type settings struct {
	MaxEntries int `json:"max_entries"`
}

// Adapter reads and writes the history file at a fixed path. With a non-nil
// key the payload is sealed with NaCl secretbox before hitting disk.
type Adapter struct {
	path string
	key  *[32]byte
}

// New returns an Adapter for path. key may be nil for plain JSON.
func New(path string, key *[32]byte) *Adapter {
	return &Adapter{path: path, key: key}
}

// Path returns the history file location.
func (a *Adapter) Path() string { return a.path }

// Load reads the history file. A missing file is not an error: it returns an
// empty snapshot with default settings. A malformed or undecryptable file is
// renamed aside and reported as ErrCorruptState; the caller should continue
// with an empty store.
func (a *Adapter) Load() (history.Snapshot, error) {
	empty := history.Snapshot{MaxEntries: history.DefaultMaxEntries}

	raw, err := os.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return empty, fmt.Errorf("read %s: %w", a.path, err)
	}

	if a.key != nil {
		raw, err = crypto.Open(raw, a.key)
		if err != nil {
			return empty, a.quarantine(fmt.Errorf("decrypt: %w", err))
		}
	}

	var state fileState
	if err := json.Unmarshal(raw, &state); err != nil {
		return empty, a.quarantine(fmt.Errorf("decode: %w", err))
	}
	if state.Settings.MaxEntries <= 0 {
		state.Settings.MaxEntries = history.DefaultMaxEntries
	}

	return history.Snapshot{
		Entries:    state.Entries,
		MaxEntries: state.Settings.MaxEntries,
	}, nil
}

// Save writes the snapshot using write-to-temp-then-rename. On failure the
// previous good file is untouched and the caller keeps its in-memory state.
func (a *Adapter) Save(snap history.Snapshot) error {
	state := fileState{
		Entries:  snap.Entries,
		Settings: settings{MaxEntries: snap.MaxEntries},
	}
	if state.Entries == nil {
		state.Entries = []history.Entry{}
	}

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if a.key != nil {
		raw, err = crypto.Seal(raw, a.key)
		if err != nil {
			return fmt.Errorf("encrypt history: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(a.path), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// 0600: the history holds whatever the user copied, including secrets.
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return fmt.Errorf("rename %s: %w", a.path, err)
	}
	return nil
}

// quarantine renames the unreadable file aside so it survives for diagnosis,
// then wraps cause as an ErrCorruptState.
func (a *Adapter) quarantine(cause error) error {
	aside := fmt.Sprintf("%s.corrupt-%d", a.path, time.Now().Unix())
	if err := os.Rename(a.path, aside); err != nil {
		slog.Warn("could not move corrupt history file aside", "path", a.path, "err", err)
	} else {
		slog.Warn("corrupt history file moved aside", "path", aside)
	}
	return fmt.Errorf("%w: %v", ErrCorruptState, cause)
}
