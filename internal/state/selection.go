package state

import (
	"maps"
	"slices"
)

// SelectionSet is a set of history ids marked for deletion.
// The zero value is an empty set ready to use.
type SelectionSet struct {
	ids map[string]struct{}
}

// NewSelectionSet returns a set holding ids.
func NewSelectionSet(ids ...string) SelectionSet {
	s := SelectionSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected.
func (s SelectionSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s SelectionSet) Len() int {
	return len(s.ids)
}

// Toggle returns a copy of the set with id added if absent or removed if
// present.
func (s SelectionSet) Toggle(id string) SelectionSet {
	next := s.Clone()
	if next.ids == nil {
		next.ids = make(map[string]struct{}, 1)
	}
	if _, ok := next.ids[id]; ok {
		delete(next.ids, id)
	} else {
		next.ids[id] = struct{}{}
	}
	return next
}

// IDs returns the selected ids sorted for stable request bodies and output.
func (s SelectionSet) IDs() []string {
	return slices.Sorted(maps.Keys(s.ids))
}

// Clone returns an independent copy.
func (s SelectionSet) Clone() SelectionSet {
	if s.ids == nil {
		return SelectionSet{}
	}
	return SelectionSet{ids: maps.Clone(s.ids)}
}
