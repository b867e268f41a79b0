package persist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.klb.dev/klippy/internal/crypto"
	"go.klb.dev/klippy/internal/history"
)

func testSnapshot(t *testing.T) history.Snapshot {
	t.Helper()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return history.Snapshot{
		MaxEntries: 25,
		Entries: []history.Entry{
			{ID: "b", Content: "newer\nwith a newline and ünïcode", CreatedAt: ts.Add(time.Minute), LastUsedAt: ts.Add(2 * time.Minute), Pinned: true},
			{ID: "a", Content: "older", CreatedAt: ts, LastUsedAt: ts},
		},
	}
}

func TestLoadMissingFile(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "nope", "history.json"), nil)
	snap, err := a.Load()
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(snap.Entries) != 0 {
		t.Fatalf("expected empty snapshot, got %d entries", len(snap.Entries))
	}
	if snap.MaxEntries != history.DefaultMaxEntries {
		t.Fatalf("expected default max entries, got %d", snap.MaxEntries)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "history.json")
	a := New(path, nil)

	want := testSnapshot(t)
	if err := a.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := a.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MaxEntries != want.MaxEntries {
		t.Fatalf("max entries: want %d, got %d", want.MaxEntries, got.MaxEntries)
	}
	if len(got.Entries) != len(want.Entries) {
		t.Fatalf("entries: want %d, got %d", len(want.Entries), len(got.Entries))
	}
	for i := range want.Entries {
		w, g := want.Entries[i], got.Entries[i]
		if g.ID != w.ID || g.Content != w.Content || g.Pinned != w.Pinned {
			t.Fatalf("entry %d mismatch: want %+v, got %+v", i, w, g)
		}
		if !g.CreatedAt.Equal(w.CreatedAt) || !g.LastUsedAt.Equal(w.LastUsedAt) {
			t.Fatalf("entry %d timestamps mismatch: want %+v, got %+v", i, w, g)
		}
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	a := New(filepath.Join(dir, "history.json"), nil)
	if err := a.Save(testSnapshot(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "history.json.tmp")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file should have been renamed away, stat err = %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	a := New(path, nil)
	snap, err := a.Load()
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
	if len(snap.Entries) != 0 {
		t.Fatalf("expected empty fallback snapshot")
	}

	// The malformed file must survive, renamed aside.
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("original path should be vacated, stat err = %v", err)
	}
	matches, _ := filepath.Glob(path + ".corrupt-*")
	if len(matches) != 1 {
		t.Fatalf("expected one quarantined file, got %v", matches)
	}
	kept, _ := os.ReadFile(matches[0])
	if string(kept) != "{not json" {
		t.Fatalf("quarantined content altered: %q", kept)
	}

	// A fresh save must work again afterwards.
	if err := a.Save(testSnapshot(t)); err != nil {
		t.Fatalf("Save after corrupt load: %v", err)
	}
	if _, err := a.Load(); err != nil {
		t.Fatalf("Load after resave: %v", err)
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	key, err := crypto.DeriveKey("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "history.json")
	a := New(path, key)

	want := testSnapshot(t)
	if err := a.Save(want); err != nil {
		t.Fatal(err)
	}

	// Ciphertext on disk: the payload must not be readable as JSON.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "older") {
		t.Fatalf("plaintext leaked into encrypted file")
	}

	got, err := a.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entries) != 2 || got.Entries[1].Content != "older" {
		t.Fatalf("encrypted round-trip mismatch: %+v", got.Entries)
	}
}

func TestWrongPassphraseIsCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	key, _ := crypto.DeriveKey("right")
	if err := New(path, key).Save(testSnapshot(t)); err != nil {
		t.Fatal(err)
	}

	wrong, _ := crypto.DeriveKey("wrong")
	_, err := New(path, wrong).Load()
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
	matches, _ := filepath.Glob(path + ".corrupt-*")
	if len(matches) != 1 {
		t.Fatalf("expected quarantined file, got %v", matches)
	}
}
