package groupstore

import (
	"time"

	"queryscope/internal/metrics"
)

// Group is a durable, named collection of queries with a denormalized
// metrics snapshot. The snapshot is only written through StoreMetrics, and
// callers derive it from the group's actual membership rows.
type Group struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"ownerId"`
	Name        string             `json:"name"`
	AIGenerated bool               `json:"aiGenerated"`
	CreatedAt   time.Time          `json:"createdAt"`
	Metrics     metrics.Aggregated `json:"metrics"`
	QueryCount  int                `json:"queryCount"`
}

// CreateStatus tags the outcome of a Create or Rename call. Name conflicts
// are an expected outcome, not an exceptional one, so they come back as a
// variant the caller branches on.
type CreateStatus int

const (
	StatusCreated CreateStatus = iota
	StatusDuplicateName
	StatusNotFound
)

// CreateResult is the tagged outcome of Create.
type CreateResult struct {
	Status CreateStatus
	Group  Group
}
