package api

import (
	"net/http"
	"net/url"

	"github.com/cryptforge/forge-studio/internal/sse"
)

// registerEventRoutes mounts the SSE streams on chi directly; huma does
// not model streaming responses.
func (s *Server) registerEventRoutes() {
	if s.sseHandler == nil {
		return
	}
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	s.router.Get("/api/v1/sync/events", s.handleSyncEvents)
}

// handleSyncEvents streams only sync status transitions.
func (s *Server) handleSyncEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("topics", sse.EventSyncStatus.Topic())
	r2 := r.Clone(r.Context())
	r2.URL = &url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	s.sseHandler.ServeHTTP(w, r2)
}
