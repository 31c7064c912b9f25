package types

import "time"

// QueryRecord is one imported search-analytics row. Rows are produced by the
// nightly import pipeline and are read-only everywhere else.
type QueryRecord struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	URL           string    `json:"url"`
	Impressions   int64     `json:"impressions"`
	Clicks        int64     `json:"clicks"`
	CTR           float64   `json:"ctr"`
	AvgPosition   float64   `json:"avgPosition"`
	IsOpportunity bool      `json:"isOpportunity"`
	LastSeen      time.Time `json:"lastSeen"`
}
