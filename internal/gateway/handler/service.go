package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"queryscope/internal/accept"
	"queryscope/internal/cluster"
	"queryscope/internal/gateway/repository/auditstore"
	"queryscope/internal/gateway/repository/groupstore"
	"queryscope/internal/gateway/repository/querystore"
	"queryscope/internal/suggestion"
)

// Service bundles the handler dependencies.
type Service struct {
	queries      *querystore.Store
	groups       *groupstore.Store
	audit        *auditstore.Store
	suggestions  *suggestion.Store
	generator    *cluster.Generator
	orchestrator *accept.Orchestrator
	hub          *GenerationHub
}

func NewService(
	queries *querystore.Store,
	groups *groupstore.Store,
	audit *auditstore.Store,
	suggestions *suggestion.Store,
	generator *cluster.Generator,
	orchestrator *accept.Orchestrator,
	hub *GenerationHub,
) *Service {
	return &Service{
		queries:      queries,
		groups:       groups,
		audit:        audit,
		suggestions:  suggestions,
		generator:    generator,
		orchestrator: orchestrator,
		hub:          hub,
	}
}

// sessionID resolves the dashboard session, preferring the header set by
// the frontend over a query parameter.
func sessionID(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Session-Id")); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("sessionId")); v != "" {
		return v
	}
	return "default"
}

func ownerID(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("ownerId")); v != "" {
		return v
	}
	return "default"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handler: write response: %v", err)
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, retryable bool) {
	writeJSON(w, status, errorBody{Error: msg, Retryable: retryable})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", false)
		return false
	}
	return true
}
