package cluster

import (
	"unicode/utf8"

	"queryscope/internal/metrics"
	"queryscope/internal/types"
)

// Cluster-size contract sent to the model and enforced on its output.
const (
	MinClusterSize = 3
	MinClusters    = 3
	MaxClusters    = 7
)

// Suggestion is one ephemeral proposed grouping. It is rebuilt from scratch
// on every generation and is never persisted as-is; acceptance re-derives a
// durable group from it.
type Suggestion struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Queries    []types.QueryRecord `json:"queries"`
	QueryCount int                 `json:"queryCount"`
	Metrics    metrics.Aggregated  `json:"metrics"`
}

// queryPayload is the compact per-query shape sent to the model.
type queryPayload struct {
	ID          string  `json:"id"`
	Q           string  `json:"q"`
	Impressions int64   `json:"imp"`
	Clicks      int64   `json:"clk"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"pos"`
	Opportunity bool    `json:"opp"`
}

type constraintsPayload struct {
	MinClusterSize     int  `json:"minClusterSize"`
	MinClusters        int  `json:"minClusters"`
	MaxClusters        int  `json:"maxClusters"`
	UseOnlyProvidedIDs bool `json:"useOnlyProvidedIds"`
}

type batchPayload struct {
	Queries     []queryPayload     `json:"queries"`
	Constraints constraintsPayload `json:"constraints"`
}

// responseEnvelope is the declared output contract for one batch.
type responseEnvelope struct {
	Clusters []responseCluster `json:"clusters"`
}

type responseCluster struct {
	Name     string   `json:"name"`
	QueryIDs []string `json:"queryIds"`
}

// maxQueryTextLen bounds the query text sent per row so one long query
// cannot blow the request budget.
const maxQueryTextLen = 120

func buildPayload(queries []types.QueryRecord) batchPayload {
	payload := batchPayload{
		Queries: make([]queryPayload, 0, len(queries)),
		Constraints: constraintsPayload{
			MinClusterSize:     MinClusterSize,
			MinClusters:        MinClusters,
			MaxClusters:        MaxClusters,
			UseOnlyProvidedIDs: true,
		},
	}
	for _, q := range queries {
		text := q.Text
		if utf8.RuneCountInString(text) > maxQueryTextLen {
			text = string([]rune(text)[:maxQueryTextLen])
		}
		payload.Queries = append(payload.Queries, queryPayload{
			ID:          q.ID,
			Q:           text,
			Impressions: q.Impressions,
			Clicks:      q.Clicks,
			CTR:         q.CTR,
			Position:    q.AvgPosition,
			Opportunity: q.IsOpportunity,
		})
	}
	return payload
}
