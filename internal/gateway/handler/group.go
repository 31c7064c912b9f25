package handler

import (
	"net/http"

	"queryscope/internal/gateway/repository/groupstore"
)

// HandleListGroups returns the owner's groups, newest first.
func (s *Service) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", false)
		return
	}
	groups, err := s.groups.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing groups failed", false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// HandleRenameGroup renames a durable group. Duplicate names come back as a
// 409, not a 500; they are an expected outcome.
func (s *Service) HandleRenameGroup(w http.ResponseWriter, r *http.Request) {
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
	res, err := s.groups.Rename(r.Context(), body.ID, body.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "renaming group failed", false)
		return
	}
	switch res.Status {
	case groupstore.StatusNotFound:
		writeError(w, http.StatusNotFound, "group not found", false)
	case groupstore.StatusDuplicateName:
		writeError(w, http.StatusConflict, "a group with that name already exists", false)
	default:
		writeJSON(w, http.StatusOK, res.Group)
	}
}

// HandleDeleteGroup removes a group and its membership rows.
func (s *Service) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.groups.Delete(r.Context(), body.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting group failed", false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": body.ID})
}
