package wire_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"go.klb.dev/klippy/internal/history"
	"go.klb.dev/klippy/internal/message"
	"go.klb.dev/klippy/internal/wire"
)

func TestRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	cw, sw := wire.New(client), wire.New(server)
	defer cw.Close()
	defer sw.Close()

	sent := &message.Message{
		Type:  message.TypeSearch,
		Query: "multi\nline — ünïcode",
	}

	errc := make(chan error, 1)
	go func() { errc <- cw.WriteMsg(sent) }()

	got, err := sw.ReadMsg()
	if err != nil {
		t.Fatalf("ReadMsg: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("WriteMsg: %v", err)
	}
	if got.Type != sent.Type || got.Query != sent.Query {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestEntriesPayloadPreservesContent(t *testing.T) {
	client, server := net.Pipe()
	cw, sw := wire.New(client), wire.New(server)
	defer cw.Close()
	defer sw.Close()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sent := &message.Message{
		Type: message.TypeEntries,
		Entries: []history.Entry{
			{ID: "1", Content: "line one\nline two\ttabbed", CreatedAt: ts, LastUsedAt: ts, Pinned: true},
		},
	}

	go func() { _ = sw.WriteMsg(sent) }()
	got, err := cw.ReadMsg()
	if err != nil {
		t.Fatalf("ReadMsg: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.Entries))
	}
	e := got.Entries[0]
	if e.Content != "line one\nline two\ttabbed" || !e.Pinned || !e.CreatedAt.Equal(ts) {
		t.Fatalf("entry mangled in transit: %+v", e)
	}
}

func TestErrorResponseMapsToSentinel(t *testing.T) {
	resp := message.NewError(history.ErrNotFound)
	if !errors.Is(resp.Err(), history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", resp.Err())
	}

	resp = message.NewError(history.ErrInvalidArgument)
	if !errors.Is(resp.Err(), history.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", resp.Err())
	}

	ok := &message.Message{Type: message.TypeOK}
	if ok.Err() != nil {
		t.Fatalf("OK should map to nil error")
	}
}
