// Package api exposes the read-only health and debug HTTP endpoints.
package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/distantsignal/distantsignal/internal/display"
)

// Status is the control loop's published view of itself. The loop writes a
// fresh value after every tick; handlers only ever read copies.
type Status struct {
	ConnState    string          `json:"conn_state"`
	ScriptHash   string          `json:"script_hash"`
	ActiveState  string          `json:"active_state"`
	ActiveBlocks map[string]bool `json:"active_blocks"`
}

// StatusStore holds the latest Status for the HTTP read side.
type StatusStore struct {
	mu sync.Mutex
	s  Status
}

// Set publishes a new status value.
func (st *StatusStore) Set(s Status) {
	st.mu.Lock()
	st.s = s
	st.mu.Unlock()
}

// Get returns the last published status.
func (st *StatusStore) Get() Status {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

// NewRouter creates the chi router with health and debug routes.
func NewRouter(status *StatusStore, snap *display.Snapshot) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !snap.HasRoot() {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("no scene rendered yet"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/debug/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, status.Get())
	})
	r.Get("/debug/scene", func(w http.ResponseWriter, _ *http.Request) {
		type node struct {
			Kind string `json:"kind"`
			Node any    `json:"node"`
		}
		nodes := snap.VisibleNodes()
		out := make([]node, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, node{Kind: n.Kind(), Node: n})
		}
		writeJSON(w, http.StatusOK, map[string]any{"visible": out})
	})

	return r
}
