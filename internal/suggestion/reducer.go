package suggestion

import (
	"queryscope/internal/metrics"
	"queryscope/internal/types"
)

// Action is one member of the closed transition set. All transitions are
// synchronous and pure; operations that talk to the network live a layer
// above and feed their results back in through SetAll.
type Action interface{ isAction() }

// SetAll replaces the whole list and clears the selection. Used after a
// successful generation and to reset on a whole-set discard.
type SetAll struct{ Suggestions []ViewModel }

// ToggleSelect flips one id's membership in the selection set. Unknown ids
// are a no-op.
type ToggleSelect struct{ ID string }

// SelectAll selects every suggestion currently in the list.
type SelectAll struct{}

// ClearSelection empties the selection set.
type ClearSelection struct{}

// Rename updates the matching item's name and marks it dirty. The item's id
// is deliberately left alone so the list key survives the edit.
type Rename struct {
	ID   string
	Name string
}

// UpdateMembership replaces the matching item's query list and marks it
// dirty. The caller recomputes the aggregate for the new membership and
// passes it alongside; the reducer never computes metrics itself.
type UpdateMembership struct {
	ID      string
	Queries []types.QueryRecord
	Metrics metrics.Aggregated
}

// Discard removes the item from the list and from the selection set.
type Discard struct{ ID string }

func (SetAll) isAction()           {}
func (ToggleSelect) isAction()     {}
func (SelectAll) isAction()        {}
func (ClearSelection) isAction()   {}
func (Rename) isAction()           {}
func (UpdateMembership) isAction() {}
func (Discard) isAction()          {}

// Reduce applies one action to a state value and returns the next state.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetAll:
		next := NewState()
		next.IsGenerating = state.IsGenerating
		next.IsAccepting = state.IsAccepting
		next.Status = state.Status
		next.Suggestions = append(next.Suggestions, a.Suggestions...)
		return next

	case ToggleSelect:
		if !hasID(state.Suggestions, a.ID) {
			return state
		}
		next := state.clone()
		if next.Selected[a.ID] {
			delete(next.Selected, a.ID)
		} else {
			next.Selected[a.ID] = true
		}
		return next

	case SelectAll:
		next := state.clone()
		next.Selected = make(map[string]bool, len(next.Suggestions))
		for _, vm := range next.Suggestions {
			next.Selected[vm.ID] = true
		}
		return next

	case ClearSelection:
		next := state.clone()
		next.Selected = map[string]bool{}
		return next

	case Rename:
		next := state.clone()
		for i := range next.Suggestions {
			if next.Suggestions[i].ID == a.ID {
				next.Suggestions[i].Name = a.Name
				next.Suggestions[i].IsDirty = true
				break
			}
		}
		return next

	case UpdateMembership:
		next := state.clone()
		for i := range next.Suggestions {
			if next.Suggestions[i].ID == a.ID {
				next.Suggestions[i].Queries = a.Queries
				next.Suggestions[i].QueryCount = len(a.Queries)
				next.Suggestions[i].Metrics = a.Metrics
				next.Suggestions[i].IsDirty = true
				break
			}
		}
		return next

	case Discard:
		next := state.clone()
		kept := next.Suggestions[:0]
		for _, vm := range next.Suggestions {
			if vm.ID != a.ID {
				kept = append(kept, vm)
			}
		}
		next.Suggestions = kept
		delete(next.Selected, a.ID)
		return next
	}
	return state
}

func hasID(list []ViewModel, id string) bool {
	for _, vm := range list {
		if vm.ID == id {
			return true
		}
	}
	return false
}
