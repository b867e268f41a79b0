package main

import (
	"fmt"

	"go.klb.dev/klippy/internal/ipc"
	"go.klb.dev/klippy/internal/message"
	"go.klb.dev/klippy/internal/wire"
)

// roundTrip sends one request to the daemon over the IPC socket and returns
// its reply. ERROR replies surface as the matching sentinel from the history
// package so callers can errors.Is them.
func roundTrip(req *message.Message) (*message.Message, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("klippy daemon is not running (start it with 'klippy watch'): %w", err)
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("reading reply: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}
