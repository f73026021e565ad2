package commands

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/state"
)

func TestResetCmd(t *testing.T) {
	h := newHarness(t)
	h.app.Store.Update(func(s *state.ClientState) {
		s.View = state.ViewDocs
		s.Documentation = "# Doc"
		s.Error = "old"
		s.History = []analysis.HistoryEntry{{ID: "t1"}}
	})

	require.NoError(t, h.run(t, NewResetCmd(h.flags, h.app), "reset"))

	s := h.app.Store.Snapshot()
	assert.Equal(t, state.ViewHome, s.View)
	assert.Empty(t, s.Documentation)
	assert.Empty(t, s.Error)
	assert.Len(t, s.History, 1)

	persisted, err := h.app.StateFile.Load()
	require.NoError(t, err)
	assert.Equal(t, state.ViewHome, persisted.View)
}

func TestResetCmd_Hard(t *testing.T) {
	h := newHarness(t)
	h.app.Store.Update(func(s *state.ClientState) { s.RepoName = "acme/widgets" })
	require.FileExists(t, h.app.StateFile.Path())

	require.NoError(t, h.run(t, NewResetCmd(h.flags, h.app), "reset", "--hard"))

	_, err := os.Stat(h.app.StateFile.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestConfigValidateCmd(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, NewConfigValidateCmd(h.flags), "config", "validate"))
	assert.Contains(t, h.errText(), "Configuration is valid")
	// 5ms poll interval in the harness
	assert.Contains(t, h.errText(), "Poll:")
}

func TestConfigValidateCmd_JSONInvalid(t *testing.T) {
	h := newHarness(t)
	h.flags.Config.TUI.Theme = "neon"

	err := h.run(t, NewConfigValidateCmd(h.flags), "config", "validate", "--format", "json")
	require.Error(t, err)

	var out struct {
		Valid  bool              `json:"valid"`
		Errors []validationError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	assert.False(t, out.Valid)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "tui.theme", out.Errors[0].Field)
}

func TestDoctorCmd_JSON(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, NewDoctorCmd(h.flags, h.app), "doctor", "--format", "json"))

	var out struct {
		Healthy bool        `json:"healthy"`
		Summary summaryJSON `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	assert.True(t, out.Healthy)
	assert.Equal(t, 0, out.Summary.Failed)
}

func TestDoctorCmd_Text(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, NewDoctorCmd(h.flags, h.app), "doctor"))

	out := h.errText()
	for _, section := range []string{"Configuration", "Storage", "Service", "Version"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "0 failed")
}
