package groupstore

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"queryscope/internal/metrics"
)

// Store persists groups and their membership rows. With a DSN it runs on
// Postgres; without one it falls back to an in-memory backend suitable for
// tests and local runs.
type Store struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	mu      sync.RWMutex
	byID    map[string]Group
	members map[string]map[string]bool

	listCache *lru.Cache[string, []Group]
}

func New() *Store {
	return &Store{
		byID:    make(map[string]Group),
		members: make(map[string]map[string]bool),
	}
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
	cache, err := lru.New[string, []Group](256)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, listCache: cache}, nil
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

// Create inserts a new empty group. A name that collides case-insensitively
// with an existing group of the same owner yields StatusDuplicateName.
func (s *Store) Create(ctx context.Context, ownerID, name string, aiGenerated bool) (CreateResult, error) {
	if s.db != nil {
		return s.createDB(ctx, ownerID, name, aiGenerated)
	}
	return s.createMem(ownerID, name, aiGenerated)
}

// AddItems appends membership rows, skipping ids already in the group.
// Returns how many rows were actually added.
func (s *Store) AddItems(ctx context.Context, groupID string, queryIDs []string) (int, error) {
	if s.db != nil {
		return s.addItemsDB(ctx, groupID, queryIDs)
	}
	return s.addItemsMem(groupID, queryIDs)
}

// MemberIDs returns the group's current membership from the durable rows.
func (s *Store) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	if s.db != nil {
		return s.memberIDsDB(ctx, groupID)
	}
	return s.memberIDsMem(groupID)
}

// StoreMetrics writes the denormalized metrics snapshot onto the group row.
func (s *Store) StoreMetrics(ctx context.Context, groupID string, agg metrics.Aggregated, queryCount int) error {
	if s.db != nil {
		return s.storeMetricsDB(ctx, groupID, agg, queryCount)
	}
	return s.storeMetricsMem(groupID, agg, queryCount)
}

// Get fetches one group row.
func (s *Store) Get(ctx context.Context, groupID string) (Group, bool) {
	if s.db != nil {
		return s.getDB(ctx, groupID)
	}
	return s.getMem(groupID)
}

// List returns the owner's groups, newest first.
func (s *Store) List(ctx context.Context, ownerID string) ([]Group, error) {
	if s.db != nil {
		if s.listCache != nil {
			if cached, ok := s.listCache.Get(ownerID); ok {
				return cached, nil
			}
		}
		groups, err := s.listDB(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if s.listCache != nil {
			s.listCache.Add(ownerID, groups)
		}
		return groups, nil
	}
	return s.listMem(ownerID)
}

// Rename changes a group's name, subject to the same per-owner
// case-insensitive uniqueness as Create.
func (s *Store) Rename(ctx context.Context, groupID, newName string) (CreateResult, error) {
	if s.db != nil {
		return s.renameDB(ctx, groupID, newName)
	}
	return s.renameMem(groupID, newName)
}

// Delete removes the group and its membership rows.
func (s *Store) Delete(ctx context.Context, groupID string) error {
	if s.db != nil {
		return s.deleteDB(ctx, groupID)
	}
	return s.deleteMem(groupID)
}

func (s *Store) invalidateList(ownerID string) {
	if s.listCache != nil {
		s.listCache.Remove(ownerID)
	}
}
