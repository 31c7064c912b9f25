package server

import (
	"net/http"

	"queryscope/internal/gateway/handler"
	"queryscope/internal/gateway/middleware"
)

// NewMux wires the dashboard API routes onto a mux and applies CORS.
func NewMux(svc *handler.Service, hub *handler.GenerationHub) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/queries", svc.HandleListQueries)

	mux.HandleFunc("/api/clusters/generate", svc.HandleGenerate)
	mux.HandleFunc("/api/clusters/accept", svc.HandleAccept)

	mux.HandleFunc("/api/suggestions", svc.HandleSuggestions)
	mux.HandleFunc("/api/suggestions/select", svc.HandleToggleSelect)
	mux.HandleFunc("/api/suggestions/select-all", svc.HandleSelectAll)
	mux.HandleFunc("/api/suggestions/clear", svc.HandleClearSelection)
	mux.HandleFunc("/api/suggestions/rename", svc.HandleRename)
	mux.HandleFunc("/api/suggestions/membership", svc.HandleUpdateMembership)
	mux.HandleFunc("/api/suggestions/discard", svc.HandleDiscard)
	mux.HandleFunc("/api/suggestions/reset", svc.HandleReset)

	mux.HandleFunc("/api/groups", svc.HandleListGroups)
	mux.HandleFunc("/api/groups/rename", svc.HandleRenameGroup)
	mux.HandleFunc("/api/groups/delete", svc.HandleDeleteGroup)

	mux.HandleFunc("/api/audit", svc.HandleRecentAudit)

	mux.HandleFunc("/ws/generation", hub.HandleWS)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.CORS(mux)
}
