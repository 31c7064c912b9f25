package querystore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryscope/internal/types"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s := New()
	err := s.Upsert(context.Background(), []types.QueryRecord{
		{ID: "q1", Text: "buy running shoes", Impressions: 1000, Clicks: 40, CTR: 0.04, AvgPosition: 3.2, LastSeen: base},
		{ID: "q2", Text: "running shoes sale", Impressions: 1000, Clicks: 10, CTR: 0.01, AvgPosition: 8.5, IsOpportunity: true, LastSeen: base.Add(24 * time.Hour)},
		{ID: "q3", Text: "trail boots", Impressions: 300, Clicks: 30, CTR: 0.1, AvgPosition: 1.4, LastSeen: base},
		{ID: "q4", Text: "hiking socks", Impressions: 50, Clicks: 1, CTR: 0.02, AvgPosition: 12.0, IsOpportunity: true, LastSeen: base},
	})
	require.NoError(t, err)
	return s
}

func TestListCandidatesOrdering(t *testing.T) {
	s := seedStore(t)

	rows, err := s.ListCandidates(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Impressions desc, recency breaks the q1/q2 tie.
	assert.Equal(t, "q2", rows[0].ID)
	assert.Equal(t, "q1", rows[1].ID)
	assert.Equal(t, "q3", rows[2].ID)
}

func TestListCandidatesNonPositiveLimit(t *testing.T) {
	s := seedStore(t)
	rows, err := s.ListCandidates(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListFiltersAndTotal(t *testing.T) {
	s := seedStore(t)

	rows, total, err := s.List(context.Background(), ListOptions{Search: "RUNNING"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Contains(t, r.Text, "running")
	}

	rows, total, err = s.List(context.Background(), ListOptions{OnlyOpportunities: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, r := range rows {
		assert.True(t, r.IsOpportunity)
	}
}

func TestListSortAndPage(t *testing.T) {
	s := seedStore(t)

	rows, total, err := s.List(context.Background(), ListOptions{
		SortBy:     SortClicks,
		Descending: true,
		Limit:      2,
		Offset:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "q3", rows[0].ID)
	assert.Equal(t, "q2", rows[1].ID)
}

func TestListOffsetPastEnd(t *testing.T) {
	s := seedStore(t)

	rows, total, err := s.List(context.Background(), ListOptions{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Empty(t, rows)
}

func TestGetSkipsMissing(t *testing.T) {
	s := seedStore(t)

	rows, err := s.Get(context.Background(), []string{"q1", "missing", "q4"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "q1", rows[0].ID)
	assert.Equal(t, "q4", rows[1].ID)
}

func TestUpsertReplaces(t *testing.T) {
	s := seedStore(t)

	err := s.Upsert(context.Background(), []types.QueryRecord{
		{ID: "q1", Text: "buy running shoes", Impressions: 2000, Clicks: 80, CTR: 0.04},
	})
	require.NoError(t, err)

	rows, err := s.Get(context.Background(), []string{"q1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2000), rows[0].Impressions)
}
