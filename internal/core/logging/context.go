package logging

import "context"

type contextKey string

const (
	taskIDKey contextKey = "task_id"
	repoKey   contextKey = "repo"
)

// WithTaskID adds an analysis task ID to the context.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// WithRepo adds a repository name (owner/name) to the context.
func WithRepo(ctx context.Context, repo string) context.Context {
	return context.WithValue(ctx, repoKey, repo)
}

// GetTaskID retrieves the task ID from the context.
// Returns empty string if not present.
func GetTaskID(ctx context.Context) string {
	if id, ok := ctx.Value(taskIDKey).(string); ok {
		return id
	}
	return ""
}

// GetRepo retrieves the repository name from the context.
// Returns empty string if not present.
func GetRepo(ctx context.Context) string {
	if repo, ok := ctx.Value(repoKey).(string); ok {
		return repo
	}
	return ""
}
