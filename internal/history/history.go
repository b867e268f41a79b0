// Package history implements the clipboard history store: a recency-ordered,
// content-deduplicated collection of captured text entries with pinning,
// bounded capacity, and case-insensitive substring search.
//
// The store is the single owner of all history state. Mutations from the
// clipboard watcher and from the IPC/HTTP control surfaces are serialized
// through one mutex; persistence works off deep-copied snapshots so disk I/O
// never happens under the lock.
package history

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries is the retention limit used when none is configured.
const DefaultMaxEntries = 50

var (
	// ErrNotFound is returned when an operation references an entry id that
	// is not in the store.
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidArgument is returned for rejected inputs: empty content or a
	// non-positive retention limit. The store is unchanged.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Entry is one captured clipboard snapshot with metadata. Timestamps are
// serialized as RFC 3339 by encoding/json.
type Entry struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	Pinned     bool      `json:"pinned"`
}

// Snapshot is a deep copy of the store state, safe to serialize or render
// without holding the store lock.
type Snapshot struct {
	Entries    []Entry `json:"entries"`
	MaxEntries int     `json:"max_entries"`
}

// Store is the clipboard history. Most-recently-used first; no two entries
// share identical content; the unpinned count never exceeds the retention
// limit after a mutation that can grow the store. Pinned entries are exempt
// from eviction and deliberately unbounded (a user pins entries one at a
// time; the practical ceiling is the user's patience).
type Store struct {
	mu         sync.RWMutex
	entries    []Entry // front = most recently used; eviction scans from the back
	maxEntries int
	now        func() time.Time

	// gen counts mutations, saved is the generation last flushed to disk.
	// Comparing the two instead of a plain dirty bool means a mutation that
	// lands while a snapshot is being written is never lost: it bumps gen
	// past the value the writer will mark as saved.
	gen   uint64
	saved uint64
}

// New returns an empty store with the given retention limit.
// A non-positive limit falls back to DefaultMaxEntries.
func New(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{maxEntries: maxEntries, now: time.Now}
}

// FromSnapshot rebuilds a store from persisted state. Entries are re-sorted
// by last_used_at, then created_at; the sort is stable so entries with fully
// identical timestamps (e.g. a batch restore) keep their file order. Eviction
// always scans from the back, so this makes eviction order deterministic.
func FromSnapshot(snap Snapshot) *Store {
	s := New(snap.MaxEntries)
	s.entries = make([]Entry, len(snap.Entries))
	copy(s.entries, snap.Entries)

	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if !a.LastUsedAt.Equal(b.LastUsedAt) {
			return a.LastUsedAt.After(b.LastUsedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return s
}

// Insert captures content. Empty or whitespace-only content is rejected with
// ErrInvalidArgument. If an entry with identical content already exists it is
// promoted to the front and its last_used_at refreshed; no duplicate is
// created. Otherwise a new entry is created at the front and the retention
// limit enforced by evicting least-recently-used unpinned entries.
func (s *Store) Insert(content string) (Entry, error) {
	if strings.TrimSpace(content) == "" {
		return Entry{}, fmt.Errorf("%w: empty content", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if i := s.indexOfContent(content); i >= 0 {
		return s.promoteLocked(i, now), nil
	}

	e := Entry{
		ID:         uuid.NewString(),
		Content:    content,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	s.entries = append([]Entry{e}, s.entries...)
	s.evictLocked()
	s.gen++
	return e, nil
}

// Select marks an entry as re-used: promoted to the front with a refreshed
// last_used_at. Returns the updated entry so the caller can write its content
// back to the OS clipboard.
func (s *Store) Select(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfID(id)
	if i < 0 {
		return Entry{}, fmt.Errorf("select %s: %w", id, ErrNotFound)
	}
	e := s.promoteLocked(i, s.now())
	return e, nil
}

// Pin exempts an entry from eviction. Order is unchanged.
func (s *Store) Pin(id string) error { return s.setPinned(id, true) }

// Unpin clears the pin flag. The entry becomes evictable again but is not
// immediately evicted; capacity is only enforced on growth.
func (s *Store) Unpin(id string) error { return s.setPinned(id, false) }

func (s *Store) setPinned(id string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfID(id)
	if i < 0 {
		return fmt.Errorf("pin %s: %w", id, ErrNotFound)
	}
	if s.entries[i].Pinned != pinned {
		s.entries[i].Pinned = pinned
		s.gen++
	}
	return nil
}

// Remove deletes an entry regardless of pin state.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfID(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.gen++
	return nil
}

// Search returns a lazy, restartable sequence of entries whose content
// contains query (case-insensitive substring match), in store order. An empty
// query yields the full history. The sequence iterates over a snapshot taken
// at call time, so re-ranging it replays the same results.
func (s *Store) Search(query string) iter.Seq[Entry] {
	s.mu.RLock()
	snap := make([]Entry, len(s.entries))
	copy(snap, s.entries)
	s.mu.RUnlock()

	q := strings.ToLower(query)
	return func(yield func(Entry) bool) {
		for _, e := range snap {
			if q != "" && !strings.Contains(strings.ToLower(e.Content), q) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// SetMaxEntries updates the retention limit. If the new limit is smaller than
// the current unpinned count, the oldest unpinned entries are evicted
// immediately. A non-positive limit is rejected with ErrInvalidArgument.
func (s *Store) SetMaxEntries(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: max entries must be positive, got %d", ErrInvalidArgument, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n == s.maxEntries {
		return nil
	}
	s.maxEntries = n
	s.evictLocked()
	s.gen++
	return nil
}

// MaxEntries returns the current retention limit.
func (s *Store) MaxEntries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxEntries
}

// Clear removes all unpinned entries. Pinned entries survive; ClearAll is the
// explicit everything-goes variant. Returns the number of entries removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Pinned {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	s.entries = kept
	if removed > 0 {
		s.gen++
	}
	return removed
}

// ClearAll removes every entry, pinned or not.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.entries)
	s.entries = nil
	if removed > 0 {
		s.gen++
	}
	return removed
}

// ResolveID returns the full ID of the entry whose ID equals or uniquely
// starts with prefix. An ambiguous prefix is ErrInvalidArgument, an unknown
// one ErrNotFound.
func (s *Store) ResolveID(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("resolve: empty id: %w", ErrInvalidArgument)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := ""
	for i := range s.entries {
		id := s.entries[i].ID
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("resolve %s: ambiguous prefix: %w", prefix, ErrInvalidArgument)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("resolve %s: %w", prefix, ErrNotFound)
	}
	return match, nil
}

// Len returns the total number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a deep copy of the entries (store order) and settings.
func (s *Store) Snapshot() Snapshot {
	snap, _ := s.Checkpoint()
	return snap
}

// Dirty reports whether the store has mutations not yet flushed to disk.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen != s.saved
}

// Checkpoint returns a snapshot together with the generation it captures.
// Pass the generation to MarkSaved once the snapshot has been durably
// written.
func (s *Store) Checkpoint() (Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return Snapshot{Entries: entries, MaxEntries: s.maxEntries}, s.gen
}

// MarkSaved records that generation gen has been persisted. Mutations that
// arrived after the checkpoint keep the store dirty.
func (s *Store) MarkSaved(gen uint64) {
	s.mu.Lock()
	if gen > s.saved {
		s.saved = gen
	}
	s.mu.Unlock()
}

// promoteLocked moves entries[i] to the front and refreshes last_used_at.
func (s *Store) promoteLocked(i int, now time.Time) Entry {
	e := s.entries[i]
	e.LastUsedAt = now
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.entries = append([]Entry{e}, s.entries...)
	s.gen++
	return e
}

// evictLocked removes least-recently-used unpinned entries from the back
// until the unpinned count fits the retention limit. Pinned entries are
// skipped; if everything left is pinned, nothing more can go.
func (s *Store) evictLocked() {
	unpinned := 0
	for _, e := range s.entries {
		if !e.Pinned {
			unpinned++
		}
	}
	for i := len(s.entries) - 1; i >= 0 && unpinned > s.maxEntries; i-- {
		if s.entries[i].Pinned {
			continue
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		unpinned--
		s.gen++
	}
}

func (s *Store) indexOfContent(content string) int {
	for i := range s.entries {
		if s.entries[i].Content == content {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfID(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}
