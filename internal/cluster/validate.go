package cluster

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"queryscope/internal/types"
)

var uuidV4Re = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// parseEnvelope decodes one batch response. Any deviation from the declared
// {clusters:[{name,queryIds}]} shape is malformed.
func parseEnvelope(raw json.RawMessage) (responseEnvelope, error) {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return responseEnvelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.Clusters == nil {
		return responseEnvelope{}, fmt.Errorf("%w: missing clusters field", ErrMalformedResponse)
	}
	return env, nil
}

// validationStats counts what local repair dropped from a batch response.
type validationStats struct {
	invalidIDs    int
	unresolvedIDs int
	smallClusters int
}

// resolveClusters repairs an untrusted envelope against the batch's candidate
// set: ids that are not UUID-v4 shaped or do not resolve to a batch query are
// dropped and counted; duplicate ids within a cluster are collapsed; clusters
// whose surviving member count falls below MinClusterSize are dropped whole
// rather than trimmed and kept.
func resolveClusters(env responseEnvelope, batchQueries []types.QueryRecord) ([]resolvedCluster, validationStats) {
	byID := make(map[string]types.QueryRecord, len(batchQueries))
	for _, q := range batchQueries {
		byID[q.ID] = q
	}

	var stats validationStats
	out := make([]resolvedCluster, 0, len(env.Clusters))
	for _, rc := range env.Clusters {
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			stats.smallClusters++
			continue
		}
		seen := make(map[string]bool, len(rc.QueryIDs))
		members := make([]types.QueryRecord, 0, len(rc.QueryIDs))
		for _, id := range rc.QueryIDs {
			if !uuidV4Re.MatchString(id) {
				stats.invalidIDs++
				continue
			}
			q, ok := byID[id]
			if !ok {
				stats.unresolvedIDs++
				continue
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			members = append(members, q)
		}
		if len(members) < MinClusterSize {
			stats.smallClusters++
			continue
		}
		out = append(out, resolvedCluster{name: name, queries: members})
	}
	return out, stats
}

type resolvedCluster struct {
	name    string
	queries []types.QueryRecord
}
