package handler

import (
	"errors"
	"fmt"
	"net/http"

	"queryscope/internal/accept"
	"queryscope/internal/cluster"
	"queryscope/internal/gateway/repository/groupstore"
	"queryscope/internal/suggestion"
)

// HandleGenerate runs a full clustering pass and replaces the session's
// suggestion list with the result. The error body distinguishes "try again
// later" upstream failures from fatal contract breaks; on any failure the
// session keeps no half-built suggestions.
func (s *Service) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	session := sessionID(r)

	s.suggestions.SetGenerating(session, true, "Generating cluster suggestions")
	out, err := s.generator.Generate(r.Context())
	if err != nil {
		s.suggestions.SetGenerating(session, false, "Cluster generation failed")
		switch {
		case cluster.IsRetryable(err):
			writeError(w, http.StatusServiceUnavailable, "completion service unavailable, try again later", true)
		case errors.Is(err, cluster.ErrMalformedResponse):
			writeError(w, http.StatusBadGateway, "completion service returned a malformed response", false)
		default:
			writeError(w, http.StatusBadGateway, "cluster generation failed", false)
		}
		return
	}

	models := suggestion.FromGenerated(out)
	s.suggestions.Dispatch(session, suggestion.SetAll{Suggestions: models})
	s.suggestions.SetGenerating(session, false, fmt.Sprintf("%d clusters suggested", len(models)))

	writeJSON(w, http.StatusOK, s.suggestions.Get(session))
}

type acceptResponse struct {
	Created  []groupstore.Group   `json:"created"`
	Failures []accept.ItemFailure `json:"failures"`
}

// HandleAccept persists the session's selected suggestions as durable
// groups. Partial success is reported as-is: the body lists both what was
// created and which items failed, because that is the durable truth.
func (s *Service) HandleAccept(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	session := sessionID(r)
	owner := ownerID(r)

	selected := s.suggestions.Get(session).SelectedModels()

	s.suggestions.SetAccepting(session, true, "Saving selected clusters")
	res, err := s.orchestrator.Accept(r.Context(), owner, selected)
	s.suggestions.SetAccepting(session, false, acceptStatus(res, err))

	switch {
	case errors.Is(err, accept.ErrNoSelection):
		writeError(w, http.StatusBadRequest, "no clusters selected", false)
		return
	case errors.Is(err, accept.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, "invalid clusters selected", false)
		return
	}

	// Drop the suggestions that made it to the durable store, keep the
	// failed ones for another attempt.
	failed := make(map[string]bool, len(res.Failures))
	for _, f := range res.Failures {
		failed[f.SuggestionID] = true
	}
	for _, vm := range selected {
		if !failed[vm.ID] {
			s.suggestions.Dispatch(session, suggestion.Discard{ID: vm.ID})
		}
	}

	var pErr *accept.PartialError
	if err != nil && !errors.As(err, &pErr) {
		writeError(w, http.StatusInternalServerError, "accepting clusters failed", false)
		return
	}
	writeJSON(w, http.StatusOK, acceptResponse{Created: res.Created, Failures: res.Failures})
}

func acceptStatus(res accept.Result, err error) string {
	switch {
	case errors.Is(err, accept.ErrNoSelection):
		return "No clusters selected"
	case errors.Is(err, accept.ErrInvalidSelection):
		return "Invalid clusters selected"
	case len(res.Failures) > 0:
		return fmt.Sprintf("%d groups created, %d failed", len(res.Created), len(res.Failures))
	default:
		return fmt.Sprintf("%d groups created", len(res.Created))
	}
}
