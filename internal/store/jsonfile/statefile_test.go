package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/state"
)

func TestStateFile_LoadMissing(t *testing.T) {
	t.Parallel()

	sf := NewStateFile(filepath.Join(t.TempDir(), "missing.json"))

	got, err := sf.Load()
	require.NoError(t, err)
	assert.Equal(t, state.Persisted{}, got)
}

func TestStateFile_SaveLoad(t *testing.T) {
	t.Parallel()

	sf := NewStateFile(filepath.Join(t.TempDir(), "nested", "repodoc-storage.json"))

	want := state.Persisted{
		History: []analysis.HistoryEntry{
			{ID: "t1", RepoName: "acme/widgets", Status: analysis.StatusCompleted},
		},
		View:          state.ViewDocs,
		Documentation: "# Doc",
		Architecture:  &analysis.Architecture{Metrics: analysis.Metrics{TotalComponents: 3}},
		RepoName:      "acme/widgets",
	}

	require.NoError(t, sf.Save(want))

	got, err := sf.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStateFile_SlotEnvelope(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "repodoc-storage.json")
	sf := NewStateFile(path)
	require.NoError(t, sf.Save(state.Persisted{View: state.ViewHome, RepoName: "acme/widgets"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "repodoc-storage"`)
	assert.Contains(t, string(data), `"currentView": "home"`)
	assert.Contains(t, string(data), `"repoName": "acme/widgets"`)
}

func TestStateFile_VersionMismatchIgnored(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "repodoc-storage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"repodoc-storage","version":0,"state":{"repoName":"old"}}`), 0o644))

	got, err := NewStateFile(path).Load()
	require.NoError(t, err)
	assert.Empty(t, got.RepoName)
}

func TestStateFile_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "repodoc-storage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := NewStateFile(path).Load()
	require.Error(t, err)
}

func TestStateFile_Clear(t *testing.T) {
	t.Parallel()

	sf := NewStateFile(filepath.Join(t.TempDir(), "repodoc-storage.json"))
	require.NoError(t, sf.Clear(), "clearing a missing file")

	require.NoError(t, sf.Save(state.Persisted{RepoName: "x"}))
	require.NoError(t, sf.Clear())

	got, err := sf.Load()
	require.NoError(t, err)
	assert.Empty(t, got.RepoName)
}

func TestStateFile_WithStore(t *testing.T) {
	t.Parallel()

	sf := NewStateFile(filepath.Join(t.TempDir(), "repodoc-storage.json"))
	store := state.NewStore(state.Defaults(), state.WithPersister(sf))

	store.Update(func(s *state.ClientState) {
		s.View = state.ViewDocs
		s.Documentation = "# Doc"
		s.RepoName = "acme/widgets"
		s.Loading = true
		s.TaskID = "t1"
	})

	persisted, err := sf.Load()
	require.NoError(t, err)

	restored := state.Rehydrate(persisted)
	assert.Equal(t, state.ViewDocs, restored.View)
	assert.Equal(t, "# Doc", restored.Documentation)
	assert.False(t, restored.Loading)
	assert.Empty(t, restored.TaskID)
}

func TestStateFile_Check(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "repodoc-storage.json")
	sf := NewStateFile(path)
	require.NoError(t, sf.Check())

	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	require.Error(t, sf.Check())
}
