package groupstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"queryscope/internal/metrics"
)

func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS groups (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  ai_generated BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  impressions BIGINT NOT NULL DEFAULT 0,
  clicks BIGINT NOT NULL DEFAULT 0,
  ctr DOUBLE PRECISION NOT NULL DEFAULT 0,
  avg_position DOUBLE PRECISION NOT NULL DEFAULT 0,
  query_count INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_groups_owner_name ON groups (owner_id, LOWER(name));

CREATE TABLE IF NOT EXISTS group_items (
  group_id TEXT NOT NULL REFERENCES groups (id) ON DELETE CASCADE,
  query_id TEXT NOT NULL,
  PRIMARY KEY (group_id, query_id)
);
CREATE INDEX IF NOT EXISTS idx_group_items_group_id ON group_items (group_id);
`)
	})
	return s.schemaErr
}

func (s *Store) createDB(ctx context.Context, ownerID, name string, aiGenerated bool) (CreateResult, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return CreateResult{}, err
	}
	trimmed := strings.TrimSpace(name)
	g := Group{
		ID:          newGroupID(),
		OwnerID:     ownerID,
		Name:        trimmed,
		AIGenerated: aiGenerated,
		CreatedAt:   time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO groups (id, owner_id, name, ai_generated, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (owner_id, LOWER(name)) DO NOTHING`,
		g.ID, g.OwnerID, g.Name, g.AIGenerated, g.CreatedAt)
	if err != nil {
		return CreateResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return CreateResult{}, err
	}
	if n == 0 {
		return CreateResult{Status: StatusDuplicateName}, nil
	}
	s.invalidateList(ownerID)
	return CreateResult{Status: StatusCreated, Group: g}, nil
}

func (s *Store) addItemsDB(ctx context.Context, groupID string, queryIDs []string) (int, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	added := 0
	for _, id := range queryIDs {
		if strings.TrimSpace(id) == "" {
			continue
		}
		res, err := tx.ExecContext(ctx, `
INSERT INTO group_items (group_id, query_id)
VALUES ($1,$2)
ON CONFLICT (group_id, query_id) DO NOTHING`, groupID, id)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

func (s *Store) memberIDsDB(ctx context.Context, groupID string) ([]string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT query_id FROM group_items WHERE group_id = $1 ORDER BY query_id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0, 32)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) storeMetricsDB(ctx context.Context, groupID string, agg metrics.Aggregated, queryCount int) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE groups
SET impressions=$2, clicks=$3, ctr=$4, avg_position=$5, query_count=$6
WHERE id=$1`,
		groupID, agg.Impressions, agg.Clicks, agg.CTR, agg.AvgPosition, queryCount)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("groupstore: group %s not found", groupID)
	}
	if g, ok := s.getDB(ctx, groupID); ok {
		s.invalidateList(g.OwnerID)
	}
	return nil
}

func (s *Store) getDB(ctx context.Context, groupID string) (Group, bool) {
	if err := s.ensureSchema(ctx); err != nil {
		return Group{}, false
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, owner_id, name, ai_generated, created_at, impressions, clicks, ctr, avg_position, query_count
FROM groups WHERE id = $1`, groupID)
	var g Group
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.AIGenerated, &g.CreatedAt,
		&g.Metrics.Impressions, &g.Metrics.Clicks, &g.Metrics.CTR, &g.Metrics.AvgPosition, &g.QueryCount)
	if err != nil {
		return Group{}, false
	}
	return g, true
}

func (s *Store) listDB(ctx context.Context, ownerID string) ([]Group, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, owner_id, name, ai_generated, created_at, impressions, clicks, ctr, avg_position, query_count
FROM groups WHERE owner_id = $1
ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Group, 0, 32)
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.AIGenerated, &g.CreatedAt,
			&g.Metrics.Impressions, &g.Metrics.Clicks, &g.Metrics.CTR, &g.Metrics.AvgPosition, &g.QueryCount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) renameDB(ctx context.Context, groupID, newName string) (CreateResult, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return CreateResult{}, err
	}
	g, ok := s.getDB(ctx, groupID)
	if !ok {
		return CreateResult{Status: StatusNotFound}, nil
	}
	trimmed := strings.TrimSpace(newName)
	var clash int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(1) FROM groups
WHERE owner_id = $1 AND LOWER(name) = LOWER($2) AND id <> $3`,
		g.OwnerID, trimmed, groupID).Scan(&clash)
	if err != nil {
		return CreateResult{}, err
	}
	if clash > 0 {
		return CreateResult{Status: StatusDuplicateName}, nil
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE groups SET name=$2 WHERE id=$1`, groupID, trimmed); err != nil {
		return CreateResult{}, err
	}
	g.Name = trimmed
	s.invalidateList(g.OwnerID)
	return CreateResult{Status: StatusCreated, Group: g}, nil
}

func (s *Store) deleteDB(ctx context.Context, groupID string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	g, ok := s.getDB(ctx, groupID)
	_, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err == nil && ok {
		s.invalidateList(g.OwnerID)
	}
	return err
}
