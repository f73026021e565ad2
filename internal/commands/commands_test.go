package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/core/config"
	"github.com/colonyops/repodoc/internal/printer"
	"github.com/colonyops/repodoc/internal/repodoc"
	"github.com/colonyops/repodoc/internal/state"
	"github.com/colonyops/repodoc/internal/store/jsonfile"
	"github.com/colonyops/repodoc/pkg/tuitest"
)

// fakeBackend is an in-memory analysis service. Every submitted task reports
// the status in results[task] on its first poll.
type fakeBackend struct {
	mu      sync.Mutex
	results map[string]map[string]any
	history []map[string]any
	deletes [][]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		results: map[string]map[string]any{
			"t1": {
				"id":        "t1",
				"status":    "completed",
				"repo_name": "acme/widgets",
				"result": map[string]any{
					"result": "# Widgets\n\nDocs.",
					"architecture": map[string]any{
						"structure": map[string]any{"layers": []string{"api", "db"}},
						"metrics":   map[string]any{"total_components": 2, "total_dependencies": 1, "dependency_density": 0.5},
					},
				},
			},
			"bad": {"id": "bad", "status": "failed", "error": "clone failed"},
		},
		history: []map[string]any{
			{"id": "t1", "repo_name": "acme/widgets", "status": "completed", "updated_at": "2024-01-01T10:00:00", "commit_hash": "abcdef1234567"},
			{"id": "t2", "repo_name": "other/gears", "status": "failed", "updated_at": "2024-01-01T09:00:00"},
		},
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RepoURL string `json:"repo_url"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := "t1"
		if body.RepoURL == "https://github.com/acme/broken" {
			id = "bad"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"task_id": id})
	})

	mux.HandleFunc("GET /api/result/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		res, ok := b.results[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Task not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	})

	mux.HandleFunc("GET /api/analyses", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(b.history)
	})

	mux.HandleFunc("DELETE /api/analyses", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TaskIDs []string `json:"task_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.deletes = append(b.deletes, body.TaskIDs)

		var deleted []string
		var failed []map[string]string
		for _, id := range body.TaskIDs {
			idx := slices.IndexFunc(b.history, func(e map[string]any) bool { return e["id"] == id })
			if idx < 0 {
				failed = append(failed, map[string]string{"id": id, "reason": "not found"})
				continue
			}
			b.history = slices.Delete(b.history, idx, idx+1)
			deleted = append(deleted, id)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"deleted_count":  len(deleted),
			"deleted_tasks":  deleted,
			"failed_deletes": failed,
		})
	})

	mux.HandleFunc("GET /api/suggestions/{owner}/{name}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"suggestions": []string{"What does it do?", "How is it tested?"}})
	})

	mux.HandleFunc("POST /api/ask", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
			RepoName string `json:"repo_name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"answer":  "It makes " + body.RepoName + " widgets.",
			"sources": []map[string]any{{"content": "func Make()", "metadata": map[string]any{"file": "make.go"}}},
		})
	})

	mux.HandleFunc("GET /api/architecture/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "t1" {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_ready", "message": "Analysis not completed"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"architecture": map[string]any{
				"structure": map[string]any{"layers": []string{"api", "db"}},
				"metrics":   map[string]any{"total_components": 2, "total_dependencies": 1, "dependency_density": 0.5, "most_depended_component": "db"},
			},
		})
	})

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return mux
}

type registrar interface {
	Register(app *cli.Command) *cli.Command
}

// harness runs commands against an App wired to a fakeBackend.
type harness struct {
	backend *fakeBackend
	app     *repodoc.App
	flags   *Flags
	stdout  bytes.Buffer
	stderr  bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.API.BaseURL = srv.URL
	cfg.API.RetryAttempts = 0
	cfg.Poll.Interval = 5 * time.Millisecond

	app, err := repodoc.NewApp(&cfg, jsonfile.NewStateFile(cfg.StateFile()), state.Defaults(), "dev")
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return &harness{
		backend: backend,
		app:     app,
		flags:   &Flags{Config: &cfg, DataDir: cfg.DataDir},
	}
}

// run registers cmd on a fresh root and runs args. Exit codes are returned
// as errors instead of exiting the test binary.
func (h *harness) run(t *testing.T, cmd registrar, args ...string) error {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	root := &cli.Command{
		Name:           "repodoc",
		Writer:         &h.stdout,
		ErrWriter:      &h.stderr,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	root = cmd.Register(root)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = printer.NewContext(ctx, printer.New(&h.stderr))

	return root.Run(ctx, append([]string{"repodoc"}, args...))
}

func (h *harness) errText() string {
	return tuitest.StripANSI(h.stderr.String())
}
