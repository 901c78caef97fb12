package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artdiscover/artdiscover-server/internal/http/response"
)

// handleSessionEvents streams a session's feed events.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.services.Sessions.Get(id); err != nil {
		response.NotFound(w, "Session not found", s.logger)
		return
	}
	if s.sseHandler == nil {
		response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Event streaming is disabled", s.logger)
		return
	}
	s.sseHandler.Serve(w, r, id)
}
