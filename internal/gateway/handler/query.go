package handler

import (
	"net/http"
	"strconv"
	"strings"

	"queryscope/internal/gateway/repository/querystore"
	"queryscope/internal/types"
)

type queryListResponse struct {
	Queries []types.QueryRecord `json:"queries"`
	Total   int                 `json:"total"`
}

// HandleListQueries serves the dashboard table: GET /api/queries with
// q, opportunities, sort, dir, limit and offset parameters.
func (s *Service) HandleListQueries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", false)
		return
	}
	q := r.URL.Query()

	opts := querystore.ListOptions{
		Search:            q.Get("q"),
		OnlyOpportunities: parseBool(q.Get("opportunities")),
		SortBy:            parseSortField(q.Get("sort")),
		Descending:        !strings.EqualFold(q.Get("dir"), "asc"),
		Limit:             parseIntDefault(q.Get("limit"), 50),
		Offset:            parseIntDefault(q.Get("offset"), 0),
	}
	if opts.Limit > 500 {
		opts.Limit = 500
	}

	rows, total, err := s.queries.List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing queries failed", false)
		return
	}
	writeJSON(w, http.StatusOK, queryListResponse{Queries: rows, Total: total})
}

func parseSortField(v string) querystore.SortField {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "clicks":
		return querystore.SortClicks
	case "ctr":
		return querystore.SortCTR
	case "position":
		return querystore.SortPosition
	default:
		return querystore.SortImpressions
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func parseIntDefault(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
