package repodoc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/core/config"
	"github.com/colonyops/repodoc/internal/core/doctor"
	"github.com/colonyops/repodoc/internal/state"
	"github.com/colonyops/repodoc/internal/store/jsonfile"
)

// fakeService is an in-memory analysis service with one task that completes
// on its second poll.
func fakeService(t *testing.T) *httptest.Server {
	t.Helper()

	var (
		mu      sync.Mutex
		polls   int
		history = []map[string]any{}
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"task_id": "t1"})
	})
	mux.HandleFunc("GET /api/result/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls < 2 {
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "t1", "status": "analyzing_files"})
			return
		}
		history = []map[string]any{{"id": "t1", "repo_name": "acme/widgets", "status": "completed", "updated_at": "2024-01-01T10:00:00"}}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":        "t1",
			"status":    "completed",
			"repo_name": "acme/widgets",
			"result":    map[string]any{"result": "# Doc", "architecture": nil},
		})
	})
	mux.HandleFunc("GET /api/analyses", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewEncoder(w).Encode(history)
	})
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, baseURL string) *App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.API.BaseURL = baseURL
	cfg.API.RetryAttempts = 0
	cfg.Poll.Interval = 5 * time.Millisecond

	app, err := NewApp(&cfg, jsonfile.NewStateFile(cfg.StateFile()), state.Defaults(), "dev")
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestApp_AnalyzeEndToEnd(t *testing.T) {
	srv := fakeService(t)
	app := newTestApp(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, app.Lifecycle.SubmitRepoURL(ctx, "https://github.com/acme/widgets"))
	require.NoError(t, app.Lifecycle.Wait(ctx))

	got := app.Store.Snapshot()
	assert.Equal(t, state.ViewDocs, got.View)
	assert.Equal(t, "# Doc", got.Documentation)
	assert.Equal(t, "acme/widgets", got.RepoName)
	require.Len(t, got.History, 1, "history refreshed after completion")
	assert.Equal(t, analysis.StatusCompleted, got.History[0].Status)

	persisted, err := app.StateFile.Load()
	require.NoError(t, err)
	assert.Equal(t, state.ViewDocs, persisted.View)
	assert.Equal(t, "# Doc", persisted.Documentation)
	assert.Len(t, persisted.History, 1)
}

func TestApp_WebSocketTransportSelected(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Poll.Transport = config.TransportWebSocket

	app, err := NewApp(&cfg, jsonfile.NewStateFile(filepath.Join(cfg.DataDir, "s.json")), state.Defaults(), "dev")
	require.NoError(t, err)

	assert.Equal(t, config.TransportWebSocket, app.Lifecycle.Transport())
}

func TestDoctorService_RunChecks(t *testing.T) {
	srv := fakeService(t)
	app := newTestApp(t, srv.URL)

	results := app.Doctor.RunChecks(context.Background(), "", false)

	require.Len(t, results, 4)
	_, _, failed := doctor.Summary(results)
	assert.Equal(t, 0, failed)
	assert.Equal(t, "Service", results[2].Name)
	assert.Equal(t, "Version", results[3].Name)
	assert.Equal(t, doctor.StatusPass, results[3].Items[0].Status, "dev builds skip the release lookup")
}
