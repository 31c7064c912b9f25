// Package querystore reads the imported search-analytics rows. The rows are
// written by the nightly import pipeline through Upsert and are read-only
// for the rest of the service.
package querystore

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"queryscope/internal/types"
)

// SortField selects the dashboard table's sort column.
type SortField string

const (
	SortImpressions SortField = "impressions"
	SortClicks      SortField = "clicks"
	SortCTR         SortField = "ctr"
	SortPosition    SortField = "position"
)

// ListOptions filters, sorts and pages the dashboard table.
type ListOptions struct {
	Search            string
	OnlyOpportunities bool
	SortBy            SortField
	Descending        bool
	Limit             int
	Offset            int
}

// Store reads query rows from Postgres when a DSN is configured, or from an
// in-memory backend otherwise. Candidate reads are LRU-cached per limit;
// Upsert invalidates the cache.
type Store struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	mu   sync.RWMutex
	byID map[string]types.QueryRecord

	candidateCache *lru.Cache[int, []types.QueryRecord]
}

func New() *Store {
	return &Store{byID: make(map[string]types.QueryRecord)}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[int, []types.QueryRecord](8)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, candidateCache: cache}, nil
}

func NewFromEnv(dsn string) *Store {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return New()
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New()
	}
	return s
}

// ListCandidates returns up to limit rows ordered by impressions desc then
// recency desc, the clustering candidate window.
func (s *Store) ListCandidates(ctx context.Context, limit int) ([]types.QueryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	if s.db != nil {
		if s.candidateCache != nil {
			if cached, ok := s.candidateCache.Get(limit); ok {
				return cached, nil
			}
		}
		rows, err := s.listCandidatesDB(ctx, limit)
		if err != nil {
			return nil, err
		}
		if s.candidateCache != nil {
			s.candidateCache.Add(limit, rows)
		}
		return rows, nil
	}
	return s.listCandidatesMem(limit), nil
}

// List returns the filtered, sorted, paged dashboard table slice plus the
// total row count before paging.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.QueryRecord, int, error) {
	if s.db != nil {
		return s.listDB(ctx, opts)
	}
	return s.listMem(opts)
}

// Get fetches single rows by id; missing ids are skipped.
func (s *Store) Get(ctx context.Context, ids []string) ([]types.QueryRecord, error) {
	if s.db != nil {
		return s.getDB(ctx, ids)
	}
	return s.getMem(ids), nil
}

// Upsert writes imported rows, replacing rows with the same id. This is the
// import pipeline's write path.
func (s *Store) Upsert(ctx context.Context, records []types.QueryRecord) error {
	if s.db != nil {
		if err := s.upsertDB(ctx, records); err != nil {
			return err
		}
		if s.candidateCache != nil {
			s.candidateCache.Purge()
		}
		return nil
	}
	s.upsertMem(records)
	return nil
}
