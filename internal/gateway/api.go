package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/colonyops/repodoc/internal/core/analysis"
)

// Service endpoints.
const (
	EndpointAnalyze  = "/api/analyze"
	EndpointAnalyses = "/api/analyses"
	EndpointAsk      = "/api/ask"
	EndpointHealth   = "/api/health"
)

// EndpointResult returns the result endpoint for a task.
func EndpointResult(taskID string) string {
	return "/api/result/" + url.PathEscape(taskID)
}

// EndpointArchitecture returns the architecture endpoint for a task.
func EndpointArchitecture(taskID string) string {
	return "/api/architecture/" + url.PathEscape(taskID)
}

// EndpointSuggestions returns the suggestions endpoint for a repository. The
// slash between owner and name is kept as a path separator.
func EndpointSuggestions(repoName string) string {
	parts := strings.Split(repoName, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "/api/suggestions/" + strings.Join(parts, "/")
}

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// ResultResponse is the service's view of one task.
type ResultResponse struct {
	ID         string             `json:"id"`
	Status     analysis.Status    `json:"status"`
	Result     *analysis.Result   `json:"result,omitempty"`
	RepoName   string             `json:"repo_name,omitempty"`
	Error      string             `json:"error,omitempty"`
	CommitHash string             `json:"commit_hash,omitempty"`
	UpdatedAt  analysis.Timestamp `json:"updated_at,omitzero"`
}

// FailedDelete is one id the service could not delete.
type FailedDelete struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// DeleteResponse is the body of a bulk deletion.
type DeleteResponse struct {
	Success       bool           `json:"success"`
	DeletedCount  int            `json:"deleted_count"`
	DeletedTasks  []string       `json:"deleted_tasks"`
	FailedDeletes []FailedDelete `json:"failed_deletes"`
	Message       string         `json:"message,omitempty"`
}

// FailedIDs returns the ids listed in FailedDeletes.
func (r DeleteResponse) FailedIDs() []string {
	ids := make([]string, 0, len(r.FailedDeletes))
	for _, f := range r.FailedDeletes {
		ids = append(ids, f.ID)
	}
	return ids
}

// Source is a retrieved passage backing an answer.
type Source struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AskResponse is the answer to a question about a repository.
type AskResponse struct {
	Success bool     `json:"success"`
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// ArchitectureResponse is returned by the architecture endpoint. Status is
// "success" when Architecture is populated and "not_ready" before completion.
type ArchitectureResponse struct {
	Status       string                 `json:"status"`
	Architecture *analysis.Architecture `json:"architecture,omitempty"`
	Message      string                 `json:"message,omitempty"`
}

// Analyze submits a repository for analysis and returns the new task id.
func (c *Client) Analyze(ctx context.Context, repoURL string) (string, error) {
	var out struct {
		TaskID string `json:"task_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, EndpointAnalyze, map[string]string{"repo_url": repoURL}, &out); err != nil {
		return "", err
	}
	if out.TaskID == "" {
		return "", fmt.Errorf("analyze: response missing task_id")
	}
	return out.TaskID, nil
}

// Result fetches the current state of a task.
func (c *Client) Result(ctx context.Context, taskID string) (ResultResponse, error) {
	var out ResultResponse
	err := c.doJSON(ctx, http.MethodGet, EndpointResult(taskID), nil, &out)
	return out, err
}

// Analyses lists previous analyses in the order the service returns them.
func (c *Client) Analyses(ctx context.Context) ([]analysis.HistoryEntry, error) {
	var out []analysis.HistoryEntry
	if err := c.doJSON(ctx, http.MethodGet, EndpointAnalyses, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []analysis.HistoryEntry{}
	}
	return out, nil
}

// DeleteAnalyses deletes the given tasks. A non-2xx response is returned as
// *StatusError carrying the body's detail.
func (c *Client) DeleteAnalyses(ctx context.Context, taskIDs []string) (DeleteResponse, error) {
	var out DeleteResponse
	err := c.doJSON(ctx, http.MethodDelete, EndpointAnalyses, map[string][]string{"task_ids": taskIDs}, &out)
	return out, err
}

// Suggestions returns suggested questions for a repository.
func (c *Client) Suggestions(ctx context.Context, repoName string) ([]string, error) {
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, EndpointSuggestions(repoName), nil, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// Ask poses a question about a repository to the retrieval service.
func (c *Client) Ask(ctx context.Context, question, repoName string) (AskResponse, error) {
	var out AskResponse
	body := map[string]string{"question": question, "repo_name": repoName}
	err := c.doJSON(ctx, http.MethodPost, EndpointAsk, body, &out)
	return out, err
}

// Architecture fetches the dependency data of a completed task.
func (c *Client) Architecture(ctx context.Context, taskID string) (ArchitectureResponse, error) {
	var out ArchitectureResponse
	err := c.doJSON(ctx, http.MethodGet, EndpointArchitecture(taskID), nil, &out)
	return out, err
}

// Health checks that the service is reachable.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, EndpointHealth, nil, &out, WithHeader("Cache-Control", "no-cache")); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("health: unexpected status %q", out.Status)
	}
	return nil
}

// doJSON performs a request and decodes a 2xx JSON body into out.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any, opts ...RequestOption) error {
	resp, err := c.Request(ctx, method, endpoint, in, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Str("endpoint", endpoint).Msg("close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(body),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s %s: %w", method, endpoint, err)
	}
	return nil
}
