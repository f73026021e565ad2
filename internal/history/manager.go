// Package history manages the list of previous analyses and the multi-select
// deletion workflow over it.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/core/logging"
	"github.com/colonyops/repodoc/internal/gateway"
	"github.com/colonyops/repodoc/internal/state"
)

const (
	// DeleteFailedMessage is shown when the service answers success=false.
	DeleteFailedMessage = "Deletion failed"
	// DeleteErrorFallback is shown when a failed response carries no detail.
	DeleteErrorFallback = "Failed to delete items"
)

// API is the subset of the service API the manager needs.
type API interface {
	Analyses(ctx context.Context) ([]analysis.HistoryEntry, error)
	DeleteAnalyses(ctx context.Context, taskIDs []string) (gateway.DeleteResponse, error)
}

// Opener starts watching an existing task.
type Opener interface {
	FetchResult(taskID string)
}

// Manager reads and writes the history and selection fields of the store.
type Manager struct {
	store  *state.Store
	api    API
	opener Opener
	log    zerolog.Logger
}

// NewManager creates a Manager. opener may be nil when results are never
// opened from the list.
func NewManager(store *state.Store, api API, opener Opener) *Manager {
	return &Manager{
		store:  store,
		api:    api,
		opener: opener,
		log:    logging.Component("history"),
	}
}

// FetchHistory replaces the history list with the service's list, in the
// service's order. Failures are logged and otherwise ignored.
func (m *Manager) FetchHistory(ctx context.Context) {
	entries, err := m.api.Analyses(ctx)
	if err != nil {
		m.log.Warn().Ctx(ctx).Err(err).Msg("failed to fetch history")
		return
	}

	m.store.Update(func(s *state.ClientState) {
		s.History = entries
	})
}

// ToggleSelectionMode flips selection mode. The selection is cleared on
// entering and on leaving.
func (m *Manager) ToggleSelectionMode() {
	m.store.Update(func(s *state.ClientState) {
		s.IsSelectionMode = !s.IsSelectionMode
		s.SelectedItems = state.SelectionSet{}
	})
}

// ToggleItemSelection adds id to the selection, or removes it if present.
func (m *Manager) ToggleItemSelection(id string) {
	m.store.Update(func(s *state.ClientState) {
		s.SelectedItems = s.SelectedItems.Toggle(id)
	})
}

// SelectAllItems selects every id in the history list.
func (m *Manager) SelectAllItems() {
	m.store.Update(func(s *state.ClientState) {
		s.SelectedItems = state.NewSelectionSet(s.HistoryIDs()...)
	})
}

// SelectItems enters selection mode with exactly ids selected. Repeated ids
// are selected once.
func (m *Manager) SelectItems(ids ...string) {
	m.store.Update(func(s *state.ClientState) {
		s.IsSelectionMode = true
		s.SelectedItems = state.NewSelectionSet(ids...)
	})
}

// ClearSelection empties the selection without leaving selection mode.
func (m *Manager) ClearSelection() {
	m.store.Update(func(s *state.ClientState) {
		s.SelectedItems = state.SelectionSet{}
	})
}

// Open starts watching the task behind a history entry.
func (m *Manager) Open(id string) {
	if m.opener == nil {
		return
	}
	m.opener.FetchResult(id)
}

// Activate handles a click on a history entry: in selection mode it toggles
// the entry, otherwise it opens it.
func (m *Manager) Activate(id string) {
	if m.store.Snapshot().IsSelectionMode {
		m.ToggleItemSelection(id)
		return
	}
	m.Open(id)
}

// DeleteSelectedItems deletes the selected tasks and returns the count the
// service reports as deleted. With nothing selected it does nothing. The
// outcome is recorded in state; the returned error is the same outcome for
// callers that need it, and a *analysis.PartialFailure is returned when some
// ids could not be deleted.
func (m *Manager) DeleteSelectedItems(ctx context.Context) (int, error) {
	selected := m.store.Snapshot().SelectedItems
	if selected.Len() == 0 {
		return 0, nil
	}
	ids := selected.IDs()

	m.store.Update(func(s *state.ClientState) {
		s.IsDeleting = true
		s.Error = ""
	})
	defer m.store.Update(func(s *state.ClientState) {
		s.IsDeleting = false
	})

	resp, err := m.api.DeleteAnalyses(ctx, ids)
	if err != nil {
		msg := deleteErrorMessage(err)
		m.log.Error().Ctx(ctx).Err(err).Strs("ids", ids).Msg("delete analyses failed")
		m.store.Update(func(s *state.ClientState) {
			s.Error = msg
		})
		return 0, fmt.Errorf("delete analyses: %w", err)
	}

	if !resp.Success {
		failure := &analysis.BackendFailure{Op: "delete", Message: DeleteFailedMessage}
		m.log.Warn().Ctx(ctx).Str("message", resp.Message).Msg("service reported deletion failure")
		m.store.Update(func(s *state.ClientState) {
			s.Error = analysis.UserMessage(failure)
		})
		return 0, failure
	}

	m.FetchHistory(ctx)

	var partial error
	if failed := resp.FailedIDs(); len(failed) > 0 {
		partial = &analysis.PartialFailure{Deleted: resp.DeletedCount, Failed: failed}
		m.log.Warn().Ctx(ctx).Strs("failed", failed).Int("deleted", resp.DeletedCount).Msg("partial deletion")
	} else {
		m.log.Info().Ctx(ctx).Int("deleted", resp.DeletedCount).Msg("analyses deleted")
	}

	m.store.Update(func(s *state.ClientState) {
		s.SelectedItems = state.SelectionSet{}
		s.IsSelectionMode = false
		s.Error = analysis.UserMessage(partial)
	})
	return resp.DeletedCount, partial
}

// deleteErrorMessage picks the user-visible text for a failed delete request:
// the response's detail, the fallback for a bare non-2xx, or the transport
// error's text.
func deleteErrorMessage(err error) string {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Detail != "" {
			return statusErr.Detail
		}
		return DeleteErrorFallback
	}
	return err.Error()
}

// Filter returns the history entries whose repository name matches the glob
// pattern ("acme/*"). An empty pattern matches everything.
func Filter(entries []analysis.HistoryEntry, pattern string) ([]analysis.HistoryEntry, error) {
	if pattern == "" {
		return entries, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	out := make([]analysis.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if ok, _ := doublestar.Match(pattern, e.RepoName); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Filter returns the current history entries matching pattern.
func (m *Manager) Filter(pattern string) ([]analysis.HistoryEntry, error) {
	return Filter(m.store.Snapshot().History, pattern)
}
