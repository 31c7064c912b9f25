// Package batch splits candidate-query sets into bounded batches so a single
// completion request stays inside the provider's context and throughput
// limits.
package batch

import "queryscope/internal/types"

const (
	// DefaultSize is the per-request batch bound.
	DefaultSize = 1000
	// DefaultCandidateLimit caps how many queries are fetched per generation,
	// ordered by impressions desc then recency desc so the budget is spent on
	// high-value queries.
	DefaultCandidateLimit = 500
)

// Plan partitions queries into ordered batches of at most size elements.
// Input order is preserved within and across batches, every query appears
// exactly once, and an empty input yields an empty plan. size values below 1
// fall back to DefaultSize.
func Plan(queries []types.QueryRecord, size int) [][]types.QueryRecord {
	if size < 1 {
		size = DefaultSize
	}
	if len(queries) == 0 {
		return nil
	}
	batches := make([][]types.QueryRecord, 0, (len(queries)+size-1)/size)
	for start := 0; start < len(queries); start += size {
		end := start + size
		if end > len(queries) {
			end = len(queries)
		}
		batches = append(batches, queries[start:end:end])
	}
	return batches
}
