package suggestion

import (
	"testing"

	"queryscope/internal/metrics"
	"queryscope/internal/types"
)

func seedState() State {
	st := NewState()
	return Reduce(st, SetAll{Suggestions: []ViewModel{
		{ID: "cluster-1", Name: "Alpha", Queries: []types.QueryRecord{{ID: "a"}, {ID: "b"}, {ID: "c"}}, QueryCount: 3},
		{ID: "cluster-2", Name: "Beta", Queries: []types.QueryRecord{{ID: "d"}, {ID: "e"}, {ID: "f"}}, QueryCount: 3},
		{ID: "cluster-3", Name: "Gamma", Queries: []types.QueryRecord{{ID: "g"}, {ID: "h"}, {ID: "i"}}, QueryCount: 3},
	}})
}

func TestSetAll_ReplacesListAndClearsSelection(t *testing.T) {
	st := seedState()
	st = Reduce(st, ToggleSelect{ID: "cluster-1"})
	st = Reduce(st, SetAll{Suggestions: []ViewModel{{ID: "cluster-9", Name: "New"}}})
	if len(st.Suggestions) != 1 || st.Suggestions[0].ID != "cluster-9" {
		t.Fatalf("list not replaced: %+v", st.Suggestions)
	}
	if len(st.Selected) != 0 {
		t.Fatalf("selection not cleared: %v", st.Selected)
	}
}

func TestToggleSelect_FlipsAndIgnoresUnknown(t *testing.T) {
	st := seedState()
	st = Reduce(st, ToggleSelect{ID: "cluster-2"})
	if !st.Selected["cluster-2"] {
		t.Fatal("id not selected after toggle")
	}
	st = Reduce(st, ToggleSelect{ID: "cluster-2"})
	if st.Selected["cluster-2"] {
		t.Fatal("id still selected after second toggle")
	}
	before := st
	st = Reduce(st, ToggleSelect{ID: "cluster-404"})
	if len(st.Selected) != len(before.Selected) {
		t.Fatal("unknown id changed the selection")
	}
}

func TestSelectAllAndClear(t *testing.T) {
	st := seedState()
	st = Reduce(st, SelectAll{})
	if len(st.Selected) != 3 {
		t.Fatalf("selected %d, want 3", len(st.Selected))
	}
	st = Reduce(st, ClearSelection{})
	if len(st.Selected) != 0 {
		t.Fatalf("selection not cleared: %v", st.Selected)
	}
}

func TestRename_SetsDirtyKeepsID(t *testing.T) {
	st := seedState()
	st = Reduce(st, Rename{ID: "cluster-2", Name: "Beta renamed"})
	vm := st.Suggestions[1]
	if vm.ID != "cluster-2" {
		t.Fatalf("rename changed the id to %q", vm.ID)
	}
	if vm.Name != "Beta renamed" || !vm.IsDirty {
		t.Fatalf("rename not applied: %+v", vm)
	}
	if st.Suggestions[0].IsDirty {
		t.Fatal("rename leaked onto another item")
	}
}

func TestUpdateMembership_ReplacesQueriesAndMetrics(t *testing.T) {
	st := seedState()
	newQueries := []types.QueryRecord{{ID: "a", Impressions: 10, Clicks: 1}, {ID: "b", Impressions: 30, Clicks: 3}}
	agg, _ := metrics.Aggregate(newQueries)
	st = Reduce(st, UpdateMembership{ID: "cluster-1", Queries: newQueries, Metrics: agg})
	vm := st.Suggestions[0]
	if vm.QueryCount != 2 || len(vm.Queries) != 2 {
		t.Fatalf("membership not replaced: %+v", vm)
	}
	if vm.Metrics != agg || !vm.IsDirty {
		t.Fatalf("metrics/dirty not applied: %+v", vm)
	}
	if vm.ID != "cluster-1" {
		t.Fatalf("membership edit changed the id to %q", vm.ID)
	}
}

func TestDiscard_RemovesFromListAndSelection(t *testing.T) {
	st := seedState()
	st = Reduce(st, ToggleSelect{ID: "cluster-3"})
	st = Reduce(st, Discard{ID: "cluster-3"})
	if len(st.Suggestions) != 2 {
		t.Fatalf("list length %d, want 2", len(st.Suggestions))
	}
	if hasID(st.Suggestions, "cluster-3") {
		t.Fatal("discarded item still in list")
	}
	if st.Selected["cluster-3"] {
		t.Fatal("discarded item still selected")
	}
}

func TestReduce_DoesNotMutateInputState(t *testing.T) {
	st := seedState()
	_ = Reduce(st, Rename{ID: "cluster-1", Name: "changed"})
	if st.Suggestions[0].Name != "Alpha" || st.Suggestions[0].IsDirty {
		t.Fatalf("reducer mutated its input: %+v", st.Suggestions[0])
	}
	_ = Reduce(st, ToggleSelect{ID: "cluster-1"})
	if len(st.Selected) != 0 {
		t.Fatal("reducer mutated the input selection")
	}
}

func TestSelectedModels_ListOrder(t *testing.T) {
	st := seedState()
	st = Reduce(st, ToggleSelect{ID: "cluster-3"})
	st = Reduce(st, ToggleSelect{ID: "cluster-1"})
	sel := st.SelectedModels()
	if len(sel) != 2 || sel[0].ID != "cluster-1" || sel[1].ID != "cluster-3" {
		t.Fatalf("selection order wrong: %+v", sel)
	}
}

func TestStore_SessionsIsolated(t *testing.T) {
	store := NewStore()
	store.Dispatch("s1", SetAll{Suggestions: []ViewModel{{ID: "cluster-1", Name: "A"}}})
	store.Dispatch("s2", SetAll{Suggestions: []ViewModel{{ID: "cluster-2", Name: "B"}}})

	if got := store.Get("s1"); len(got.Suggestions) != 1 || got.Suggestions[0].ID != "cluster-1" {
		t.Fatalf("s1 state wrong: %+v", got)
	}
	if got := store.Get("s2"); len(got.Suggestions) != 1 || got.Suggestions[0].ID != "cluster-2" {
		t.Fatalf("s2 state wrong: %+v", got)
	}
	if got := store.Get("unknown"); len(got.Suggestions) != 0 {
		t.Fatalf("unknown session not empty: %+v", got)
	}
}

func TestStore_Flags(t *testing.T) {
	store := NewStore()
	store.SetGenerating("s1", true, "Generating clusters")
	st := store.Get("s1")
	if !st.IsGenerating || st.Status != "Generating clusters" {
		t.Fatalf("flags not applied: %+v", st)
	}
	store.SetGenerating("s1", false, "3 clusters suggested")
	st = store.Get("s1")
	if st.IsGenerating || st.Status != "3 clusters suggested" {
		t.Fatalf("flags not cleared: %+v", st)
	}
}
