package querystore

import (
	"sort"
	"strings"

	"queryscope/internal/types"
)

func (s *Store) upsertMem(records []types.QueryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			continue
		}
		s.byID[r.ID] = r
	}
}

func (s *Store) snapshotMem() []types.QueryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.QueryRecord, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r)
	}
	return out
}

func (s *Store) listCandidatesMem(limit int) []types.QueryRecord {
	out := s.snapshotMem()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Impressions != out[j].Impressions {
			return out[i].Impressions > out[j].Impressions
		}
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) listMem(opts ListOptions) ([]types.QueryRecord, int, error) {
	out := s.snapshotMem()

	if search := strings.ToLower(strings.TrimSpace(opts.Search)); search != "" {
		filtered := out[:0]
		for _, r := range out {
			if strings.Contains(strings.ToLower(r.Text), search) {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}
	if opts.OnlyOpportunities {
		filtered := out[:0]
		for _, r := range out {
			if r.IsOpportunity {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}

	less := memLess(opts.SortBy)
	sort.Slice(out, func(i, j int) bool {
		if opts.Descending {
			i, j = j, i
		}
		return less(out[i], out[j])
	})

	total := len(out)
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []types.QueryRecord{}, total, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, total, nil
}

func memLess(field SortField) func(a, b types.QueryRecord) bool {
	switch field {
	case SortClicks:
		return func(a, b types.QueryRecord) bool {
			if a.Clicks != b.Clicks {
				return a.Clicks < b.Clicks
			}
			return a.ID < b.ID
		}
	case SortCTR:
		return func(a, b types.QueryRecord) bool {
			if a.CTR != b.CTR {
				return a.CTR < b.CTR
			}
			return a.ID < b.ID
		}
	case SortPosition:
		return func(a, b types.QueryRecord) bool {
			if a.AvgPosition != b.AvgPosition {
				return a.AvgPosition < b.AvgPosition
			}
			return a.ID < b.ID
		}
	default:
		return func(a, b types.QueryRecord) bool {
			if a.Impressions != b.Impressions {
				return a.Impressions < b.Impressions
			}
			return a.ID < b.ID
		}
	}
}

func (s *Store) getMem(ids []string) []types.QueryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.QueryRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
