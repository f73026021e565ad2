// Package state holds the client state aggregate and the store that owns it.
// Controllers mutate state only through Store.Update; the rendering layer
// observes it through Store.Subscribe.
package state

import (
	"slices"

	"github.com/colonyops/repodoc/internal/core/analysis"
)

// View is the top-level screen the client is showing.
type View string

const (
	ViewHome    View = "home"
	ViewLoading View = "loading"
	ViewDocs    View = "docs"
)

// ClientState is the single aggregate every controller reads and writes.
type ClientState struct {
	View          View
	Loading       bool
	Error         string
	Progress      string
	TaskID        string
	Documentation string
	Architecture  *analysis.Architecture
	RepoName      string
	History       []analysis.HistoryEntry

	SelectedItems   SelectionSet
	IsSelectionMode bool
	IsDeleting      bool
}

// Defaults returns the initial state.
func Defaults() ClientState {
	return ClientState{
		View:    ViewHome,
		History: []analysis.HistoryEntry{},
	}
}

// Clone returns a deep copy so snapshots never alias store-owned data.
func (s ClientState) Clone() ClientState {
	out := s
	out.History = slices.Clone(s.History)
	if out.History == nil {
		out.History = []analysis.HistoryEntry{}
	}
	out.SelectedItems = s.SelectedItems.Clone()
	if s.Architecture != nil {
		arch := *s.Architecture
		out.Architecture = &arch
	}
	return out
}

// HistoryIDs returns the ids of all history entries in list order.
func (s ClientState) HistoryIDs() []string {
	ids := make([]string, len(s.History))
	for i, e := range s.History {
		ids[i] = e.ID
	}
	return ids
}

// Persisted is the subset of ClientState that survives a restart.
type Persisted struct {
	History       []analysis.HistoryEntry `json:"history"`
	View          View                    `json:"currentView"`
	Documentation string                  `json:"documentation"`
	Architecture  *analysis.Architecture  `json:"architecture"`
	RepoName      string                  `json:"repoName"`
}

// Persisted extracts the fields that are written to storage.
func (s ClientState) Persisted() Persisted {
	c := s.Clone()
	return Persisted{
		History:       c.History,
		View:          c.View,
		Documentation: c.Documentation,
		Architecture:  c.Architecture,
		RepoName:      c.RepoName,
	}
}

// Rehydrate builds a state from persisted fields with every transient field
// at its default. A persisted loading view has no task to resume, and a
// docs view without documentation has nothing to show; both come back as home.
func Rehydrate(p Persisted) ClientState {
	s := Defaults()
	if p.History != nil {
		s.History = slices.Clone(p.History)
	}
	s.Documentation = p.Documentation
	s.Architecture = p.Architecture
	s.RepoName = p.RepoName

	if p.View == ViewDocs && p.Documentation != "" {
		s.View = ViewDocs
	}
	return s
}

// ResetTransient returns the defaults with history preserved.
func ResetTransient(s ClientState) ClientState {
	next := Defaults()
	next.History = slices.Clone(s.History)
	if next.History == nil {
		next.History = []analysis.HistoryEntry{}
	}
	return next
}
