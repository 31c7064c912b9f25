package handler

import (
	"net/http"

	"queryscope/internal/metrics"
	"queryscope/internal/suggestion"
)

// HandleSuggestions returns the session's current suggestion state.
func (s *Service) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", false)
		return
	}
	writeJSON(w, http.StatusOK, s.suggestions.Get(sessionID(r)))
}

// HandleToggleSelect flips one suggestion's selection.
func (s *Service) HandleToggleSelect(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, s.suggestions.Dispatch(sessionID(r), suggestion.ToggleSelect{ID: body.ID}))
}

// HandleSelectAll selects every suggestion in the session.
func (s *Service) HandleSelectAll(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.suggestions.Dispatch(sessionID(r), suggestion.SelectAll{}))
}

// HandleClearSelection empties the session's selection.
func (s *Service) HandleClearSelection(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.suggestions.Dispatch(sessionID(r), suggestion.ClearSelection{}))
}

// HandleRename renames one suggestion. The suggestion keeps its id.
func (s *Service) HandleRename(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, s.suggestions.Dispatch(sessionID(r), suggestion.Rename{ID: body.ID, Name: body.Name}))
}

// HandleUpdateMembership replaces one suggestion's query set. The member
// rows are re-read from the query store and the aggregate is recomputed
// here, before dispatch, so an edited suggestion never carries a stale
// snapshot.
func (s *Service) HandleUpdateMembership(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body struct {
		ID       string   `json:"id"`
		QueryIDs []string `json:"queryIds"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	rows, err := s.queries.Get(r.Context(), body.QueryIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "resolving queries failed", false)
		return
	}
	agg, _ := metrics.Aggregate(rows)
	writeJSON(w, http.StatusOK, s.suggestions.Dispatch(sessionID(r), suggestion.UpdateMembership{
		ID:      body.ID,
		Queries: rows,
		Metrics: agg,
	}))
}

// HandleDiscard removes one suggestion from the session.
func (s *Service) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, s.suggestions.Dispatch(sessionID(r), suggestion.Discard{ID: body.ID}))
}

// HandleReset drops the whole suggestion set for the session.
func (s *Service) HandleReset(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.suggestions.Dispatch(sessionID(r), suggestion.SetAll{}))
}
