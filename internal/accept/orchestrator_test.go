package accept

import (
	"context"
	"errors"
	"strings"
	"testing"

	"queryscope/internal/gateway/repository/groupstore"
	"queryscope/internal/gateway/repository/querystore"
	"queryscope/internal/suggestion"
	"queryscope/internal/types"
)

type countingAudit struct {
	events []string
	meta   []map[string]any
	err    error
}

func (a *countingAudit) Log(_ context.Context, eventType string, metadata map[string]any) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, eventType)
	a.meta = append(a.meta, metadata)
	return nil
}

func fixtureStores(t *testing.T) (*groupstore.Store, *querystore.Store) {
	t.Helper()
	groups := groupstore.New()
	queries := querystore.New()
	err := queries.Upsert(context.Background(), []types.QueryRecord{
		{ID: "q1", Text: "pricing plans", Impressions: 100, Clicks: 10, AvgPosition: 2},
		{ID: "q2", Text: "pricing faq", Impressions: 50, Clicks: 5, AvgPosition: 4},
		{ID: "q3", Text: "cost calculator", Impressions: 150, Clicks: 3, AvgPosition: 6},
	})
	if err != nil {
		t.Fatal(err)
	}
	return groups, queries
}

func vm(id, name string, queryIDs ...string) suggestion.ViewModel {
	qs := make([]types.QueryRecord, len(queryIDs))
	for i, qid := range queryIDs {
		qs[i] = types.QueryRecord{ID: qid}
	}
	return suggestion.ViewModel{ID: id, Name: name, Queries: qs, QueryCount: len(qs)}
}

func TestAccept_EmptySelectionRejected(t *testing.T) {
	groups, queries := fixtureStores(t)
	o := NewOrchestrator(groups, queries, &countingAudit{})
	_, err := o.Accept(context.Background(), "owner", nil)
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestAccept_InvalidItemRejectsWholeBatch(t *testing.T) {
	groups, queries := fixtureStores(t)
	o := NewOrchestrator(groups, queries, &countingAudit{})

	cases := []suggestion.ViewModel{
		vm("cluster-1", "   ", "q1"),
		vm("cluster-2", strings.Repeat("x", 121), "q1"),
		vm("cluster-3", "No members"),
	}
	for _, bad := range cases {
		_, err := o.Accept(context.Background(), "owner", []suggestion.ViewModel{vm("ok", "Fine", "q1"), bad})
		if !errors.Is(err, ErrInvalidSelection) {
			t.Fatalf("item %q: expected ErrInvalidSelection, got %v", bad.Name, err)
		}
		list, _ := groups.List(context.Background(), "owner")
		if len(list) != 0 {
			t.Fatalf("item %q: persistence happened despite rejection", bad.Name)
		}
	}
}

func TestAccept_PersistsGroupWithRecomputedMetrics(t *testing.T) {
	groups, queries := fixtureStores(t)
	audit := &countingAudit{}
	o := NewOrchestrator(groups, queries, audit)

	// Stale view-model metrics must be ignored in favor of the durable rows.
	item := vm("cluster-1", "  Pricing questions  ", "q1", "q2", "q2")
	item.Metrics.Impressions = 999999

	res, err := o.Accept(context.Background(), "owner", []suggestion.ViewModel{item})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("created %d groups, want 1", len(res.Created))
	}
	g := res.Created[0]
	if g.Name != "Pricing questions" {
		t.Fatalf("name not trimmed: %q", g.Name)
	}
	if !g.AIGenerated {
		t.Fatal("group not flagged aiGenerated")
	}
	if g.QueryCount != 2 {
		t.Fatalf("queryCount = %d, want 2 (deduplicated)", g.QueryCount)
	}
	if g.Metrics.Impressions != 150 || g.Metrics.Clicks != 15 {
		t.Fatalf("metrics not recomputed from store: %+v", g.Metrics)
	}
	if g.Metrics.CTR != 0.1 {
		t.Fatalf("ctr = %v, want 0.1", g.Metrics.CTR)
	}
	if g.Metrics.AvgPosition != 3.0 {
		t.Fatalf("avgPosition = %v, want 3.0", g.Metrics.AvgPosition)
	}
	if len(audit.events) != 1 || audit.events[0] != "clusters_accepted" {
		t.Fatalf("audit events = %v", audit.events)
	}
	if audit.meta[0]["acceptedCount"] != 1 {
		t.Fatalf("audit metadata = %v", audit.meta[0])
	}
}

func TestAccept_DuplicateNameFailsItemNotBatch(t *testing.T) {
	groups, queries := fixtureStores(t)
	o := NewOrchestrator(groups, queries, &countingAudit{})

	if _, err := groups.Create(context.Background(), "owner", "A", false); err != nil {
		t.Fatal(err)
	}

	res, err := o.Accept(context.Background(), "owner", []suggestion.ViewModel{
		vm("cluster-a", "A", "q1", "q2"),
		vm("cluster-b", "B", "q2", "q3"),
	})
	var pErr *PartialError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PartialError, got %v", err)
	}
	if len(res.Created) != 1 || res.Created[0].Name != "B" {
		t.Fatalf("expected only B created, got %+v", res.Created)
	}
	if len(res.Failures) != 1 || res.Failures[0].Name != "A" {
		t.Fatalf("expected failure for A, got %+v", res.Failures)
	}

	// The pre-existing "A" must not have gained any items.
	list, _ := groups.List(context.Background(), "owner")
	for _, g := range list {
		if g.Name == "A" {
			ids, _ := groups.MemberIDs(context.Background(), g.ID)
			if len(ids) != 0 {
				t.Fatalf("conflicting group gained items: %v", ids)
			}
		}
	}
}

func TestAccept_DuplicateNameCaseInsensitive(t *testing.T) {
	groups, queries := fixtureStores(t)
	o := NewOrchestrator(groups, queries, &countingAudit{})

	if _, err := groups.Create(context.Background(), "owner", "Pricing", false); err != nil {
		t.Fatal(err)
	}
	res, err := o.Accept(context.Background(), "owner", []suggestion.ViewModel{
		vm("cluster-a", "PRICING", "q1", "q2"),
	})
	var pErr *PartialError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PartialError, got %v", err)
	}
	if len(res.Created) != 0 {
		t.Fatalf("case-variant duplicate was created: %+v", res.Created)
	}
}

func TestAccept_OrderPreserved(t *testing.T) {
	groups, queries := fixtureStores(t)
	o := NewOrchestrator(groups, queries, &countingAudit{})

	res, err := o.Accept(context.Background(), "owner", []suggestion.ViewModel{
		vm("cluster-1", "First", "q1", "q2"),
		vm("cluster-2", "Second", "q2", "q3"),
		vm("cluster-3", "Third", "q1", "q3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"First", "Second", "Third"}
	if len(res.Created) != 3 {
		t.Fatalf("created %d groups, want 3", len(res.Created))
	}
	for i, g := range res.Created {
		if g.Name != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, g.Name, want[i])
		}
	}
}

func TestAccept_AuditFailureSwallowed(t *testing.T) {
	groups, queries := fixtureStores(t)
	o := NewOrchestrator(groups, queries, &countingAudit{err: errors.New("audit down")})
	res, err := o.Accept(context.Background(), "owner", []suggestion.ViewModel{
		vm("cluster-1", "Fine", "q1", "q2"),
	})
	if err != nil {
		t.Fatalf("audit failure leaked: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("created %d groups, want 1", len(res.Created))
	}
}
