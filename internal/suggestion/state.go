// Package suggestion holds the ephemeral, client-facing suggestion state:
// an ordered list of editable view models plus a selection set, driven by a
// closed action set through a pure reducer. Nothing here touches the
// network or mutates a query record.
package suggestion

import (
	"queryscope/internal/cluster"
	"queryscope/internal/metrics"
	"queryscope/internal/types"
)

// ViewModel is one editable suggestion. The id is derived from the original
// generated content and is never recomputed after edits, so renames and
// membership changes keep the same list key.
type ViewModel struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Queries    []types.QueryRecord `json:"queries"`
	QueryCount int                 `json:"queryCount"`
	Metrics    metrics.Aggregated  `json:"metrics"`
	IsDirty    bool                `json:"isDirty"`
}

// FromGenerated converts freshly generated suggestions into clean view
// models.
func FromGenerated(suggestions []cluster.Suggestion) []ViewModel {
	out := make([]ViewModel, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, ViewModel{
			ID:         s.ID,
			Name:       s.Name,
			Queries:    s.Queries,
			QueryCount: s.QueryCount,
			Metrics:    s.Metrics,
		})
	}
	return out
}

// State is one dashboard session's suggestion state. Values are treated as
// immutable: the reducer returns a fresh State and never aliases mutable
// internals with its input.
type State struct {
	Suggestions  []ViewModel     `json:"suggestions"`
	Selected     map[string]bool `json:"selected"`
	IsGenerating bool            `json:"isGenerating"`
	IsAccepting  bool            `json:"isAccepting"`
	Status       string          `json:"status"`
}

// NewState returns an empty session state.
func NewState() State {
	return State{Suggestions: []ViewModel{}, Selected: map[string]bool{}}
}

// SelectedModels returns the selected view models in list order.
func (s State) SelectedModels() []ViewModel {
	out := make([]ViewModel, 0, len(s.Selected))
	for _, vm := range s.Suggestions {
		if s.Selected[vm.ID] {
			out = append(out, vm)
		}
	}
	return out
}

func (s State) clone() State {
	next := s
	next.Suggestions = make([]ViewModel, len(s.Suggestions))
	copy(next.Suggestions, s.Suggestions)
	next.Selected = make(map[string]bool, len(s.Selected))
	for id := range s.Selected {
		next.Selected[id] = true
	}
	return next
}
