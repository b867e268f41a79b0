package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.klb.dev/klippy/internal/clip"
	"go.klb.dev/klippy/internal/history"
	"go.klb.dev/klippy/internal/persist"
)

func newTestWatcher(t *testing.T) (*Watcher, *history.Store, *clip.Fake, string) {
	t.Helper()
	store := history.New(10)
	fake := clip.NewFake()
	path := filepath.Join(t.TempDir(), "history.json")
	w := New(store, fake, persist.New(path, nil), time.Hour) // flush driven manually
	return w, store, fake, path
}

// drain runs one capture for every pending watch signal.
func drain(w *Watcher, fake *clip.Fake) {
	for {
		select {
		case <-fake.Watch():
			w.capture()
		default:
			return
		}
	}
}

func entryContents(store *history.Store) []string {
	var out []string
	for e := range store.Search("") {
		out = append(out, e.Content)
	}
	return out
}

func TestCaptureInsertsChangedText(t *testing.T) {
	w, store, fake, _ := newTestWatcher(t)

	fake.SetText("first")
	drain(w, fake)
	fake.SetText("second")
	drain(w, fake)

	got := entryContents(store)
	if len(got) != 2 || got[0] != "second" || got[1] != "first" {
		t.Fatalf("expected [second first], got %v", got)
	}
}

func TestCaptureSkipsUnchangedText(t *testing.T) {
	w, store, fake, _ := newTestWatcher(t)

	fake.SetText("same")
	drain(w, fake)
	fake.SetText("same")
	drain(w, fake)

	if store.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", store.Len())
	}
}

func TestCaptureSkipsWhitespaceOnly(t *testing.T) {
	w, store, fake, _ := newTestWatcher(t)

	fake.SetText("  \n\t ")
	drain(w, fake)

	if store.Len() != 0 {
		t.Fatalf("whitespace-only clipboard should not be captured")
	}
	// And it must not be retried on the next signal for the same content.
	fake.SetText("real")
	drain(w, fake)
	if store.Len() != 1 {
		t.Fatalf("expected capture to resume, got %d entries", store.Len())
	}
}

func TestRecopyAfterEmptyClipboardIsCaptured(t *testing.T) {
	w, store, fake, _ := newTestWatcher(t)

	fake.SetText("hello")
	drain(w, fake)
	fake.SetText("") // clipboard cleared
	drain(w, fake)
	fake.SetText("hello") // user copies the same thing again
	drain(w, fake)

	if store.Len() != 1 {
		t.Fatalf("expected dedup to one entry, got %d", store.Len())
	}
}

func TestFlushWritesDirtyState(t *testing.T) {
	w, store, fake, path := newTestWatcher(t)

	fake.SetText("persist me")
	drain(w, fake)
	w.Flush()

	if store.Dirty() {
		t.Fatalf("store should be clean after flush")
	}
	snap, err := persist.New(path, nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].Content != "persist me" {
		t.Fatalf("unexpected persisted state: %+v", snap.Entries)
	}
}

func TestFlushSkipsWhenClean(t *testing.T) {
	w, _, _, path := newTestWatcher(t)

	w.Flush()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("flush of a clean store should not touch disk")
	}
}

func TestFlushFailureKeepsStateAndRetries(t *testing.T) {
	store := history.New(10)
	fake := clip.NewFake()
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	// A regular file where the data dir should be makes MkdirAll fail.
	if err := os.WriteFile(blocked, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	w := New(store, fake, persist.New(filepath.Join(blocked, "history.json"), nil), time.Hour)

	fake.SetText("keep me")
	drain(w, fake)
	w.Flush()

	if !store.Dirty() {
		t.Fatalf("failed save must leave the store dirty for retry")
	}
	if store.Len() != 1 {
		t.Fatalf("failed save must not drop in-memory state")
	}

	// Unblock and retry: the same flush path must now succeed.
	if err := os.Remove(blocked); err != nil {
		t.Fatal(err)
	}
	w.Flush()
	if store.Dirty() {
		t.Fatalf("retry after unblocking should have saved")
	}
}

func TestRunFinalSaveOnShutdown(t *testing.T) {
	store := history.New(10)
	fake := clip.NewFake()
	path := filepath.Join(t.TempDir(), "history.json")
	w := New(store, fake, persist.New(path, nil), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	fake.SetText("last words")
	// Wait for the running loop to pick up the capture.
	deadline := time.After(2 * time.Second)
	for store.Len() == 0 {
		select {
		case <-deadline:
			t.Fatalf("capture never happened")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done

	snap, err := persist.New(path, nil).Load()
	if err != nil {
		t.Fatalf("Load after shutdown: %v", err)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].Content != "last words" {
		t.Fatalf("final save missing: %+v", snap.Entries)
	}
}
