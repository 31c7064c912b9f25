// Package accept turns selected suggestion view models into durable groups.
package accept

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"queryscope/internal/gateway/repository/groupstore"
	"queryscope/internal/metrics"
	"queryscope/internal/suggestion"
	"queryscope/internal/types"
)

// MaxNameLen bounds the trimmed group name.
const MaxNameLen = 120

// GroupStore is the durable group collaborator. Name conflicts come back as
// tagged results, not errors.
type GroupStore interface {
	Create(ctx context.Context, ownerID, name string, aiGenerated bool) (groupstore.CreateResult, error)
	AddItems(ctx context.Context, groupID string, queryIDs []string) (int, error)
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
	StoreMetrics(ctx context.Context, groupID string, agg metrics.Aggregated, queryCount int) error
	Get(ctx context.Context, groupID string) (groupstore.Group, bool)
}

// QueryReader resolves query rows for metric recomputation.
type QueryReader interface {
	Get(ctx context.Context, ids []string) ([]types.QueryRecord, error)
}

// Auditor records acceptance events; failures are swallowed.
type Auditor interface {
	Log(ctx context.Context, eventType string, metadata map[string]any) error
}

// ItemFailure reports one selected suggestion that could not be persisted.
type ItemFailure struct {
	SuggestionID string `json:"suggestionId"`
	Name         string `json:"name"`
	Reason       string `json:"reason"`
}

// Result is the observable truth of one accept call: which groups were
// created (in acceptance order) and which items failed. Acceptance is not
// atomic across items; groups created before a failure stay persisted.
type Result struct {
	Created  []groupstore.Group `json:"created"`
	Failures []ItemFailure      `json:"failures"`
}

// Orchestrator persists accepted suggestions one at a time.
type Orchestrator struct {
	groups  GroupStore
	queries QueryReader
	audit   Auditor
}

func NewOrchestrator(groups GroupStore, queries QueryReader, audit Auditor) *Orchestrator {
	return &Orchestrator{groups: groups, queries: queries, audit: audit}
}

// Accept validates the whole selection up front (no persistence happens if
// any item is invalid), then creates one group per item in selection order:
// create row, add deduplicated membership, recompute metrics from what is
// durably stored. A per-item persistence failure is recorded and the loop
// continues; the result lists both outcomes.
func (o *Orchestrator) Accept(ctx context.Context, ownerID string, selected []suggestion.ViewModel) (Result, error) {
	if len(selected) == 0 {
		return Result{}, ErrNoSelection
	}
	for _, vm := range selected {
		if !validName(vm.Name) || len(vm.Queries) == 0 {
			return Result{}, ErrInvalidSelection
		}
	}

	var res Result
	for _, vm := range selected {
		cmd := buildCommand(vm)

		created, err := o.groups.Create(ctx, ownerID, cmd.Name, true)
		if err != nil {
			res.Failures = append(res.Failures, ItemFailure{SuggestionID: vm.ID, Name: cmd.Name, Reason: err.Error()})
			continue
		}
		if created.Status == groupstore.StatusDuplicateName {
			res.Failures = append(res.Failures, ItemFailure{
				SuggestionID: vm.ID,
				Name:         cmd.Name,
				Reason:       fmt.Sprintf("a group named %q already exists", cmd.Name),
			})
			continue
		}

		groupID := created.Group.ID
		if _, err := o.groups.AddItems(ctx, groupID, cmd.QueryIDs); err != nil {
			res.Failures = append(res.Failures, ItemFailure{SuggestionID: vm.ID, Name: cmd.Name, Reason: err.Error()})
			continue
		}
		group, err := o.recompute(ctx, groupID)
		if err != nil {
			res.Failures = append(res.Failures, ItemFailure{SuggestionID: vm.ID, Name: cmd.Name, Reason: err.Error()})
			continue
		}
		res.Created = append(res.Created, group)
	}

	if o.audit != nil {
		ids := make([]string, len(res.Created))
		for i, g := range res.Created {
			ids[i] = g.ID
		}
		if err := o.audit.Log(ctx, "clusters_accepted", map[string]any{
			"acceptedCount":   len(res.Created),
			"createdGroupIds": ids,
		}); err != nil {
			log.Printf("accept: audit write failed: %v", err)
		}
	}

	if len(res.Failures) > 0 {
		return res, &PartialError{Result: res}
	}
	return res, nil
}

// recompute re-reads the group's actual membership from the durable store
// rather than trusting the client-supplied list, so the persisted snapshot
// reflects what is durably true even if AddItems deduplicated something.
func (o *Orchestrator) recompute(ctx context.Context, groupID string) (groupstore.Group, error) {
	ids, err := o.groups.MemberIDs(ctx, groupID)
	if err != nil {
		return groupstore.Group{}, err
	}
	rows, err := o.queries.Get(ctx, ids)
	if err != nil {
		return groupstore.Group{}, err
	}
	agg, count := metrics.Aggregate(rows)
	if err := o.groups.StoreMetrics(ctx, groupID, agg, count); err != nil {
		return groupstore.Group{}, err
	}
	group, ok := o.groups.Get(ctx, groupID)
	if !ok {
		return groupstore.Group{}, fmt.Errorf("accept: group %s vanished after create", groupID)
	}
	return group, nil
}

// acceptCommand is what actually gets persisted for one suggestion: the
// trimmed name and the deduplicated member ids.
type acceptCommand struct {
	Name     string
	QueryIDs []string
}

func buildCommand(vm suggestion.ViewModel) acceptCommand {
	seen := make(map[string]bool, len(vm.Queries))
	ids := make([]string, 0, len(vm.Queries))
	for _, q := range vm.Queries {
		if q.ID == "" || seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		ids = append(ids, q.ID)
	}
	return acceptCommand{Name: strings.TrimSpace(vm.Name), QueryIDs: ids}
}

func validName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 1 && n <= MaxNameLen
}
