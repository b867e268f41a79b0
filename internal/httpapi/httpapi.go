// Package httpapi exposes the history over a local HTTP API so external
// presentation layers (pickers, bars, editor plugins) can render and drive
// the history without linking against the daemon. Reads come from the query
// facade; mutations go through the store and are picked up by the watcher's
// next flush.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go.klb.dev/klippy/internal/clip"
	"go.klb.dev/klippy/internal/history"
	"go.klb.dev/klippy/internal/query"
)

// Handler returns the API router.
//
//	GET    /api/history             full history, most recent first
//	GET    /api/history/pinned      pinned entries only
//	GET    /api/search?q=...        case-insensitive substring search
//	POST   /api/history/{id}/pin    exempt from eviction
//	POST   /api/history/{id}/unpin
//	POST   /api/history/{id}/select restore entry to the OS clipboard
//	DELETE /api/history/{id}        remove one entry
//	DELETE /api/history             clear unpinned (?all=true clears pinned too)
//	GET    /api/settings            current retention limit
//	PUT    /api/settings            update retention limit
//	GET    /api/path                storage location of the history file
func Handler(store *history.Store, facade *query.Facade, backend clip.Backend, storagePath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	h := &handler{store: store, facade: facade, backend: backend, storagePath: storagePath}

	r.Get("/api/history", h.list)
	r.Get("/api/history/pinned", h.pinned)
	r.Get("/api/search", h.search)
	r.Post("/api/history/{id}/pin", h.pin)
	r.Post("/api/history/{id}/unpin", h.unpin)
	r.Post("/api/history/{id}/select", h.selectEntry)
	r.Delete("/api/history/{id}", h.remove)
	r.Delete("/api/history", h.clear)
	r.Get("/api/settings", h.getSettings)
	r.Put("/api/settings", h.putSettings)
	r.Get("/api/path", h.path)

	return r
}

type handler struct {
	store       *history.Store
	facade      *query.Facade
	backend     clip.Backend
	storagePath string
}

type settingsPayload struct {
	MaxEntries int `json:"max_entries"`
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.facade.List())
}

func (h *handler) pinned(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.facade.PinnedOnly())
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.facade.Search(r.URL.Query().Get("q")))
}

func (h *handler) pin(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, h.store.Pin(chi.URLParam(r, "id")))
}

func (h *handler) unpin(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, h.store.Unpin(chi.URLParam(r, "id")))
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, h.store.Remove(chi.URLParam(r, "id")))
}

func (h *handler) selectEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.Select(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.backend.Write(e.Content); err != nil {
		http.Error(w, "clipboard write failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, e)
}

func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	var removed int
	if all {
		removed = h.store.ClearAll()
	} else {
		removed = h.store.Clear()
	}
	writeJSON(w, map[string]int{"removed": removed})
}

func (h *handler) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, settingsPayload{MaxEntries: h.facade.Settings()})
}

func (h *handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var p settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.SetMaxEntries(p.MaxEntries); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, settingsPayload{MaxEntries: h.facade.Settings()})
}

func (h *handler) path(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"path": h.storagePath})
}

// mutate writes a 204 for a successful mutation or maps the error.
func (h *handler) mutate(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, history.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
