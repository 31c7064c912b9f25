// Package auditstore appends fire-and-forget audit records. Callers treat
// every write as best-effort; a failed audit write never fails the
// operation that produced it.
package auditstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Event is one recorded audit row.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Store appends audit events to Postgres when a DSN is configured, or to a
// bounded in-memory ring otherwise. An optional object-storage archive
// mirrors each record as a JSON object.
type Store struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	mu     sync.Mutex
	events []Event

	archive *Archive
}

const memoryCap = 1024

func New() *Store {
	return &Store{}
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
	return &Store{db: db}, nil
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

// SetArchive attaches an object-storage mirror for audit records.
func (s *Store) SetArchive(a *Archive) { s.archive = a }

func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS audit_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  metadata JSONB NOT NULL DEFAULT '{}',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events (created_at DESC);
`)
	})
	return s.schemaErr
}

// Log appends one audit event. The archive mirror is itself best-effort and
// never surfaces its failure here.
func (s *Store) Log(ctx context.Context, eventType string, metadata map[string]any) error {
	ev := Event{
		ID:        newEventID(),
		Type:      eventType,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, ev); err != nil {
			log.Printf("auditstore: archive write failed: %v", err)
		}
	}

	if s.db != nil {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		meta, err := json.Marshal(ev.Metadata)
		if err != nil {
			meta = []byte(`{}`)
		}
		_, err = s.db.ExecContext(ctx, `
INSERT INTO audit_events (id, event_type, metadata, created_at)
VALUES ($1,$2,$3,$4)`, ev.ID, ev.Type, meta, ev.CreatedAt)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if len(s.events) > memoryCap {
		s.events = s.events[len(s.events)-memoryCap:]
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if s.db != nil {
		return s.recentDB(ctx, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *Store) recentDB(ctx context.Context, limit int) ([]Event, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, event_type, metadata, created_at
FROM audit_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Event, 0, limit)
	for rows.Next() {
		var ev Event
		var meta []byte
		if err := rows.Scan(&ev.ID, &ev.Type, &meta, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &ev.Metadata)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
