package querystore

import (
	"context"
	"fmt"
	"strings"

	"queryscope/internal/types"
)

const queryColumns = `id, text, url, impressions, clicks, ctr, avg_position, is_opportunity, last_seen`

func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS query_records (
  id TEXT PRIMARY KEY,
  text TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  impressions BIGINT NOT NULL DEFAULT 0,
  clicks BIGINT NOT NULL DEFAULT 0,
  ctr DOUBLE PRECISION NOT NULL DEFAULT 0,
  avg_position DOUBLE PRECISION NOT NULL DEFAULT 0,
  is_opportunity BOOLEAN NOT NULL DEFAULT FALSE,
  last_seen TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_query_records_impressions ON query_records (impressions DESC, last_seen DESC);
`)
	})
	return s.schemaErr
}

func scanQueryRows(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]types.QueryRecord, error) {
	out := make([]types.QueryRecord, 0, 64)
	for rows.Next() {
		var r types.QueryRecord
		if err := rows.Scan(&r.ID, &r.Text, &r.URL, &r.Impressions, &r.Clicks,
			&r.CTR, &r.AvgPosition, &r.IsOpportunity, &r.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) listCandidatesDB(ctx context.Context, limit int) ([]types.QueryRecord, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+queryColumns+`
FROM query_records
ORDER BY impressions DESC, last_seen DESC, id ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueryRows(rows)
}

func sortColumn(field SortField) string {
	switch field {
	case SortClicks:
		return "clicks"
	case SortCTR:
		return "ctr"
	case SortPosition:
		return "avg_position"
	default:
		return "impressions"
	}
}

func (s *Store) listDB(ctx context.Context, opts ListOptions) ([]types.QueryRecord, int, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, 0, err
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if search := strings.TrimSpace(opts.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		where = append(where, fmt.Sprintf("LOWER(text) LIKE $%d", len(args)))
	}
	if opts.OnlyOpportunities {
		where = append(where, "is_opportunity")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM query_records`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}
	q := fmt.Sprintf(`SELECT %s FROM query_records%s ORDER BY %s %s, id ASC`,
		queryColumns, clause, sortColumn(opts.SortBy), dir)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := scanQueryRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) getDB(ctx context.Context, ids []string) ([]types.QueryRecord, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queryColumns+` FROM query_records WHERE id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueryRows(rows)
}

func (s *Store) upsertDB(ctx context.Context, records []types.QueryRecord) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO query_records (`+queryColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id)
DO UPDATE SET text=EXCLUDED.text,
  url=EXCLUDED.url,
  impressions=EXCLUDED.impressions,
  clicks=EXCLUDED.clicks,
  ctr=EXCLUDED.ctr,
  avg_position=EXCLUDED.avg_position,
  is_opportunity=EXCLUDED.is_opportunity,
  last_seen=EXCLUDED.last_seen`,
			r.ID, r.Text, r.URL, r.Impressions, r.Clicks, r.CTR, r.AvgPosition, r.IsOpportunity, r.LastSeen)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
