package handler

import "net/http"

// HandleRecentAudit serves GET /api/audit, newest events first.
func (s *Service) HandleRecentAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", false)
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	events, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read audit events", false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
