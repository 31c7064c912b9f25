package groupstore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"queryscope/internal/metrics"
)

func (s *Store) createMem(ownerID, name string, aiGenerated bool) (CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trimmed := strings.TrimSpace(name)
	for _, g := range s.byID {
		if g.OwnerID == ownerID && strings.EqualFold(g.Name, trimmed) {
			return CreateResult{Status: StatusDuplicateName}, nil
		}
	}
	g := Group{
		ID:          newGroupID(),
		OwnerID:     ownerID,
		Name:        trimmed,
		AIGenerated: aiGenerated,
		CreatedAt:   time.Now().UTC(),
	}
	s.byID[g.ID] = g
	s.members[g.ID] = make(map[string]bool)
	return CreateResult{Status: StatusCreated, Group: g}, nil
}

func (s *Store) addItemsMem(groupID string, queryIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.members[groupID]
	if !ok {
		return 0, fmt.Errorf("groupstore: group %s not found", groupID)
	}
	added := 0
	for _, id := range queryIDs {
		if id == "" || set[id] {
			continue
		}
		set[id] = true
		added++
	}
	return added, nil
}

func (s *Store) memberIDsMem(groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.members[groupID]
	if !ok {
		return nil, fmt.Errorf("groupstore: group %s not found", groupID)
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) storeMetricsMem(groupID string, agg metrics.Aggregated, queryCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byID[groupID]
	if !ok {
		return fmt.Errorf("groupstore: group %s not found", groupID)
	}
	g.Metrics = agg
	g.QueryCount = queryCount
	s.byID[groupID] = g
	return nil
}

func (s *Store) getMem(groupID string) (Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.byID[groupID]
	return g, ok
}

func (s *Store) listMem(ownerID string) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Group, 0, len(s.byID))
	for _, g := range s.byID {
		if g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) renameMem(groupID, newName string) (CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byID[groupID]
	if !ok {
		return CreateResult{Status: StatusNotFound}, nil
	}
	trimmed := strings.TrimSpace(newName)
	for id, other := range s.byID {
		if id != groupID && other.OwnerID == g.OwnerID && strings.EqualFold(other.Name, trimmed) {
			return CreateResult{Status: StatusDuplicateName}, nil
		}
	}
	g.Name = trimmed
	s.byID[groupID] = g
	return CreateResult{Status: StatusCreated, Group: g}, nil
}

func (s *Store) deleteMem(groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, groupID)
	delete(s.members, groupID)
	return nil
}
