package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxfront/voxfront/internal/customer"
	"github.com/voxfront/voxfront/internal/session"
)

// configStatusResponse reports which external services are configured.
type configStatusResponse struct {
	Room     bool   `json:"room"`
	Realtime bool   `json:"realtime"`
	Ready    bool   `json:"ready"`
	Message  string `json:"message"`
}

// handleConfigStatus serves GET /api/demo/config.
func (s *Server) handleConfigStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.cfg.Status()
	resp := configStatusResponse{
		Room:     status.Room,
		Realtime: status.Realtime,
		Ready:    status.Ready(),
	}
	if resp.Ready {
		resp.Message = "Ready!"
	} else {
		resp.Message = "Missing: " + strings.Join(status.Missing(), ", ")
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateSession serves POST /api/demo/session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.sessions.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("customer %q not found", req.CustomerID))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.SessionsCreated.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("customer", created.CustomerName),
			attribute.String("mode", created.Mode),
		))
	}
	writeJSON(w, http.StatusOK, created)
}

// handleGetSession serves GET /api/demo/session/{id}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleEndSession serves POST /api/demo/session/{id}/end. Ending an unknown
// session is not an error; the endpoint is idempotent.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.sessions.End(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended", "session_id": id})
}

// sessionList is the body of GET /api/demo/sessions.
type sessionList struct {
	Count    int              `json:"count"`
	Sessions []session.Record `json:"sessions"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	records := s.sessions.List()
	writeJSON(w, http.StatusOK, sessionList{Count: len(records), Sessions: records})
}
