// Package message defines the klippy control protocol.
//
// CLI sub-commands talk to the running daemon over a local socket using
// newline-delimited JSON. Each message is exactly one line: <json>\n. The
// daemon owns the history store; clients only ever see entry snapshots.
package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.klb.dev/klippy/internal/history"
)

// Type identifies the kind of message.
type Type string

// Requests.
const (
	TypeList     Type = "LIST"
	TypeSearch   Type = "SEARCH"
	TypePinned   Type = "PINNED"
	TypePin      Type = "PIN"
	TypeUnpin    Type = "UNPIN"
	TypeRemove   Type = "REMOVE"
	TypeSelect   Type = "SELECT"
	TypeClear    Type = "CLEAR"
	TypeClearAll Type = "CLEAR_ALL"
	TypeSetMax   Type = "SET_MAX"
	TypePath     Type = "PATH"
)

// Responses.
const (
	TypeEntries Type = "ENTRIES"
	TypeOK      Type = "OK"
	TypeError   Type = "ERROR"
)

// ErrorKind classifies an ERROR response so clients can react without string
// matching.
type ErrorKind string

const (
	ErrKindNotFound        ErrorKind = "not_found"
	ErrKindInvalidArgument ErrorKind = "invalid_argument"
	ErrKindInternal        ErrorKind = "internal"
)

// Message is the top-level envelope for both directions.
type Message struct {
	Type Type `json:"type"`

	// Requests: SEARCH query, entry id for PIN/UNPIN/REMOVE/SELECT, limit
	// for SET_MAX.
	Query string `json:"query,omitempty"`
	ID    string `json:"id,omitempty"`
	Max   int    `json:"max,omitempty"`

	// ENTRIES response.
	Entries []history.Entry `json:"entries,omitempty"`

	// OK response extras: entries removed by CLEAR/CLEAR_ALL, storage
	// location for PATH.
	Removed int    `json:"removed,omitempty"`
	Path    string `json:"path,omitempty"`

	// ERROR response.
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// NewError builds an ERROR response for err, classifying the store's
// sentinel errors.
func NewError(err error) *Message {
	kind := ErrKindInternal
	switch {
	case errors.Is(err, history.ErrNotFound):
		kind = ErrKindNotFound
	case errors.Is(err, history.ErrInvalidArgument):
		kind = ErrKindInvalidArgument
	}
	return &Message{Type: TypeError, Error: err.Error(), ErrorKind: kind}
}

// Err converts an ERROR response back into an error on the client side.
// Non-error messages return nil.
func (m *Message) Err() error {
	if m.Type != TypeError {
		return nil
	}
	switch m.ErrorKind {
	case ErrKindNotFound:
		return fmt.Errorf("%w (%s)", history.ErrNotFound, m.Error)
	case ErrKindInvalidArgument:
		return fmt.Errorf("%w (%s)", history.ErrInvalidArgument, m.Error)
	default:
		return errors.New(m.Error)
	}
}
