package metrics

import (
	"math"

	"queryscope/internal/types"
)

// Aggregated is the denormalized metrics snapshot for a set of queries.
type Aggregated struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
	AvgPosition float64 `json:"avgPosition"`
}

// Aggregate reduces queries into summed impressions/clicks, a CTR derived
// from the sums, and the unweighted mean of finite positions. CTR is derived
// after summing rather than averaged per row, so rows with tiny impression
// counts cannot skew the ratio. Rounding happens once here: CTR to 4
// decimals, position to 1. Deterministic and order-independent.
func Aggregate(queries []types.QueryRecord) (Aggregated, int) {
	var impressions, clicks int64
	var posSum float64
	var posCount int

	for _, q := range queries {
		if q.Impressions > 0 {
			impressions += q.Impressions
		}
		if q.Clicks > 0 {
			clicks += q.Clicks
		}
		if isFinite(q.AvgPosition) {
			posSum += q.AvgPosition
			posCount++
		}
	}

	var ctr float64
	if impressions > 0 {
		ctr = roundTo(float64(clicks)/float64(impressions), 4)
	}
	var avgPos float64
	if posCount > 0 {
		avgPos = roundTo(posSum/float64(posCount), 1)
	}
	return Aggregated{
		Impressions: impressions,
		Clicks:      clicks,
		CTR:         ctr,
		AvgPosition: avgPos,
	}, len(queries)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
