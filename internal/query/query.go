// Package query is the read-only facade over the history store consumed by
// presentation layers. Everything it returns is a snapshot copy, so callers
// can render, sort, or drop results without being able to bypass the store's
// invariants.
package query

import "go.klb.dev/klippy/internal/history"

// Facade exposes non-mutating views of a history store.
type Facade struct {
	store *history.Store
}

// New wraps store.
func New(store *history.Store) *Facade {
	return &Facade{store: store}
}

// List returns the full history, most-recently-used first.
func (f *Facade) List() []history.Entry {
	return f.Search("")
}

// Search returns entries whose content matches query (case-insensitive
// substring), in store order. An empty query returns everything.
func (f *Facade) Search(query string) []history.Entry {
	out := []history.Entry{}
	for e := range f.store.Search(query) {
		out = append(out, e)
	}
	return out
}

// PinnedOnly returns just the pinned entries, in store order.
func (f *Facade) PinnedOnly() []history.Entry {
	out := []history.Entry{}
	for e := range f.store.Search("") {
		if e.Pinned {
			out = append(out, e)
		}
	}
	return out
}

// Settings returns the current retention limit.
func (f *Facade) Settings() (maxEntries int) {
	return f.store.MaxEntries()
}
