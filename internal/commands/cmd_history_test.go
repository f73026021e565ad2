package commands

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCmd_List(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, NewHistoryCmd(h.flags, h.app), "history", "ls"))

	lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "acme/widgets")
	assert.Contains(t, lines[1], "abcdef1")
	assert.Contains(t, lines[2], "Failed")
}

func TestHistoryCmd_ListJSONMatch(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, NewHistoryCmd(h.flags, h.app), "history", "ls", "--json", "--match", "acme/*"))

	lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
	require.Len(t, lines, 1)

	var info historyInfo
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "t1", info.ID)
	assert.Equal(t, 2024, info.UpdatedAt.Year())
}

func TestHistoryCmd_ListBadPattern(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, NewHistoryCmd(h.flags, h.app), "history", "ls", "--match", "acme/[")
	require.Error(t, err)
}

func TestHistoryCmd_RemoveYes(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, NewHistoryCmd(h.flags, h.app), "history", "rm", "--yes", "t1:acme/widgets"))

	assert.Equal(t, [][]string{{"t1"}}, h.backend.deletes)
	assert.Contains(t, h.errText(), "Deleted 1")

	s := h.app.Store.Snapshot()
	assert.False(t, s.IsSelectionMode)
	assert.Equal(t, 0, s.SelectedItems.Len())
	require.Len(t, s.History, 1, "history refreshed after delete")
	assert.Equal(t, "t2", s.History[0].ID)
}

func TestHistoryCmd_RemovePartial(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, NewHistoryCmd(h.flags, h.app), "history", "rm", "--yes", "t1", "ghost")
	require.Error(t, err)

	out := h.errText()
	assert.Contains(t, out, "Partial deletion: 1 items deleted, 1 failed to delete")
	assert.Contains(t, out, "ghost")
}

func TestHistoryCmd_RemoveAll(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, NewHistoryCmd(h.flags, h.app), "history", "rm", "--yes", "--all"))

	require.Len(t, h.backend.deletes, 1)
	assert.ElementsMatch(t, []string{"t1", "t2"}, h.backend.deletes[0])
	assert.Empty(t, h.app.Store.Snapshot().History)
}

func TestHistoryCmd_RemoveConfirm(t *testing.T) {
	tests := []struct {
		name        string
		answer      bool
		answerErr   error
		wantDeletes int
		wantErr     bool
		wantOutput  string
	}{
		{name: "declined", answer: false, wantOutput: "Deletion cancelled"},
		{name: "accepted", answer: true, wantDeletes: 1, wantOutput: "Deleted 1"},
		{name: "prompt error", answerErr: errors.New("no tty"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			cmd := NewHistoryCmd(h.flags, h.app)

			asked := 0
			cmd.confirm = func(n int) (bool, error) {
				asked = n
				return tt.answer, tt.answerErr
			}

			err := h.run(t, cmd, "history", "rm", "t1")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, 1, asked)
			assert.Len(t, h.backend.deletes, tt.wantDeletes)
			assert.Contains(t, h.errText(), tt.wantOutput)
		})
	}
}

func TestHistoryCmd_RemoveRepeatedID(t *testing.T) {
	h := newHarness(t)
	cmd := NewHistoryCmd(h.flags, h.app)

	asked := 0
	cmd.confirm = func(n int) (bool, error) {
		asked = n
		return true, nil
	}

	require.NoError(t, h.run(t, cmd, "history", "rm", "t1", "t1:acme/widgets"))

	assert.Equal(t, 1, asked)
	assert.Equal(t, [][]string{{"t1"}}, h.backend.deletes)
	assert.Contains(t, h.errText(), "Deleted 1 analysis(es)")
}
