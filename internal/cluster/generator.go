package cluster

import (
	"context"
	"errors"
	"fmt"
	"log"

	"queryscope/internal/batch"
	"queryscope/internal/identity"
	"queryscope/internal/llm"
	"queryscope/internal/metrics"
	"queryscope/internal/types"
)

// CandidateSource reads the candidate-query window for one generation,
// ordered by impressions desc then recency desc.
type CandidateSource interface {
	ListCandidates(ctx context.Context, limit int) ([]types.QueryRecord, error)
}

// Auditor records generation events. Failures are swallowed by the caller.
type Auditor interface {
	Log(ctx context.Context, eventType string, metadata map[string]any) error
}

// Progress describes one completed batch inside a generation run.
type Progress struct {
	BatchIndex    int `json:"batchIndex"`
	BatchCount    int `json:"batchCount"`
	ClustersSoFar int `json:"clustersSoFar"`
}

// Generator turns the candidate-query window into cluster suggestions by
// prompting the completion service one batch at a time.
type Generator struct {
	client llm.Client
	source CandidateSource
	audit  Auditor

	batchSize      int
	candidateLimit int

	// OnProgress, when set, is called after each batch completes. Calls are
	// sequential, from the generation goroutine.
	OnProgress func(Progress)
}

func NewGenerator(client llm.Client, source CandidateSource, audit Auditor) *Generator {
	return &Generator{
		client:         client,
		source:         source,
		audit:          audit,
		batchSize:      batch.DefaultSize,
		candidateLimit: batch.DefaultCandidateLimit,
	}
}

// SetLimits overrides the batch size and candidate cap. Non-positive values
// keep the defaults.
func (g *Generator) SetLimits(batchSize, candidateLimit int) {
	if batchSize > 0 {
		g.batchSize = batchSize
	}
	if candidateLimit > 0 {
		g.candidateLimit = candidateLimit
	}
}

// Generate runs the full clustering pass. Batches are processed
// sequentially; a malformed envelope or a permanent upstream failure aborts
// the whole run with no partial result, while transient upstream failures
// come back wrapped in RetryableError. An empty candidate window yields an
// empty result and no completion call.
func (g *Generator) Generate(ctx context.Context) ([]Suggestion, error) {
	candidates, err := g.source.ListCandidates(ctx, g.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("cluster: list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []Suggestion{}, nil
	}

	batches := batch.Plan(candidates, g.batchSize)
	system := systemPrompt()

	suggestions := make([]Suggestion, 0, MaxClusters*len(batches))
	var stats validationStats
	for i, b := range batches {
		raw, err := g.client.GenerateJSON(ctx, system, buildPayload(b))
		if err != nil {
			if errors.Is(err, llm.ErrInvalidJSON) {
				return nil, fmt.Errorf("%w: provider returned non-JSON output", ErrMalformedResponse)
			}
			if llm.IsPermanent(err) {
				return nil, fmt.Errorf("cluster: completion request rejected: %w", err)
			}
			return nil, &RetryableError{Err: err}
		}

		env, err := parseEnvelope(raw)
		if err != nil {
			return nil, err
		}
		resolved, batchStats := resolveClusters(env, b)
		stats.invalidIDs += batchStats.invalidIDs
		stats.unresolvedIDs += batchStats.unresolvedIDs
		stats.smallClusters += batchStats.smallClusters

		for _, rc := range resolved {
			ids := make([]string, len(rc.queries))
			for j, q := range rc.queries {
				ids[j] = q.ID
			}
			agg, count := metrics.Aggregate(rc.queries)
			suggestions = append(suggestions, Suggestion{
				ID:         identity.SuggestionID(rc.name, ids),
				Name:       rc.name,
				Queries:    rc.queries,
				QueryCount: count,
				Metrics:    agg,
			})
		}

		if g.OnProgress != nil {
			g.OnProgress(Progress{BatchIndex: i + 1, BatchCount: len(batches), ClustersSoFar: len(suggestions)})
		}
	}

	if stats.invalidIDs > 0 || stats.unresolvedIDs > 0 || stats.smallClusters > 0 {
		log.Printf("cluster: repaired model output: %d invalid ids, %d unresolved ids, %d clusters dropped",
			stats.invalidIDs, stats.unresolvedIDs, stats.smallClusters)
	}

	totalQueries := 0
	for _, s := range suggestions {
		totalQueries += s.QueryCount
	}
	if g.audit != nil {
		if err := g.audit.Log(ctx, "clusters_generated", map[string]any{
			"clusterCount":           len(suggestions),
			"totalQueriesInClusters": totalQueries,
			"batchCount":             len(batches),
		}); err != nil {
			log.Printf("cluster: audit write failed: %v", err)
		}
	}

	return suggestions, nil
}
