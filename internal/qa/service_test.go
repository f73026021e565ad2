package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/gateway"
)

type fakeAPI struct {
	suggestions     map[string][]string
	suggestionErr   error
	suggestionCalls int

	ask      gateway.AskResponse
	askErr   error
	askCalls int

	arch    gateway.ArchitectureResponse
	archErr error
}

func (f *fakeAPI) Suggestions(_ context.Context, repoName string) ([]string, error) {
	f.suggestionCalls++
	if f.suggestionErr != nil {
		return nil, f.suggestionErr
	}
	return f.suggestions[repoName], nil
}

func (f *fakeAPI) Ask(context.Context, string, string) (gateway.AskResponse, error) {
	f.askCalls++
	return f.ask, f.askErr
}

func (f *fakeAPI) Architecture(context.Context, string) (gateway.ArchitectureResponse, error) {
	return f.arch, f.archErr
}

func newService(t *testing.T, api *fakeAPI) *Service {
	t.Helper()
	s, err := New(api, 2)
	require.NoError(t, err)
	return s
}

func TestSuggestions_Cached(t *testing.T) {
	api := &fakeAPI{suggestions: map[string][]string{"acme/widgets": {"What does it do?"}}}
	s := newService(t, api)

	assert.Equal(t, []string{"What does it do?"}, s.Suggestions(context.Background(), "acme/widgets"))
	assert.Equal(t, []string{"What does it do?"}, s.Suggestions(context.Background(), "acme/widgets"))
	assert.Equal(t, 1, api.suggestionCalls)

	s.Forget("acme/widgets")
	s.Suggestions(context.Background(), "acme/widgets")
	assert.Equal(t, 2, api.suggestionCalls)
}

func TestSuggestions_Eviction(t *testing.T) {
	api := &fakeAPI{suggestions: map[string][]string{}}
	s := newService(t, api)

	for _, repo := range []string{"a/1", "a/2", "a/3", "a/1"} {
		s.Suggestions(context.Background(), repo)
	}
	assert.Equal(t, 4, api.suggestionCalls, "a/1 was evicted by a/3")
}

func TestSuggestions_FailureNotCached(t *testing.T) {
	api := &fakeAPI{suggestionErr: errors.New("boom")}
	s := newService(t, api)

	got := s.Suggestions(context.Background(), "acme/widgets")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	s.Suggestions(context.Background(), "acme/widgets")
	assert.Equal(t, 2, api.suggestionCalls)
}

func TestAsk(t *testing.T) {
	api := &fakeAPI{ask: gateway.AskResponse{
		Success: true,
		Answer:  "It renders widgets.",
		Sources: []gateway.Source{{Content: "func Render()"}},
	}}
	s := newService(t, api)

	got, err := s.Ask(context.Background(), "  What does it do? ", "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "It renders widgets.", got.Text)
	require.Len(t, got.Sources, 1)
}

func TestAsk_Errors(t *testing.T) {
	tests := []struct {
		name     string
		question string
		repo     string
		api      *fakeAPI
		check    func(t *testing.T, err error)
		calls    int
	}{
		{
			name:     "blank question",
			question: "   ",
			repo:     "acme/widgets",
			api:      &fakeAPI{},
			check:    func(t *testing.T, err error) { require.ErrorIs(t, err, analysis.ErrEmptyQuestion) },
		},
		{
			name:     "blank repo",
			question: "why?",
			api:      &fakeAPI{},
			check:    func(t *testing.T, err error) { require.ErrorIs(t, err, analysis.ErrEmptyQuestion) },
		},
		{
			name:     "success false",
			question: "why?",
			repo:     "acme/widgets",
			api:      &fakeAPI{ask: gateway.AskResponse{Success: false, Answer: "No embeddings for repository"}},
			calls:    1,
			check: func(t *testing.T, err error) {
				var backend *analysis.BackendFailure
				require.ErrorAs(t, err, &backend)
				assert.Equal(t, "No embeddings for repository", analysis.UserMessage(err))
			},
		},
		{
			name:     "network",
			question: "why?",
			repo:     "acme/widgets",
			api:      &fakeAPI{askErr: errors.New("connection refused")},
			calls:    1,
			check: func(t *testing.T, err error) {
				var netErr *analysis.NetworkError
				require.ErrorAs(t, err, &netErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(t, tt.api)
			_, err := s.Ask(context.Background(), tt.question, tt.repo)
			tt.check(t, err)
			assert.Equal(t, tt.calls, tt.api.askCalls)
		})
	}
}

func TestArchitecture(t *testing.T) {
	arch := &analysis.Architecture{Metrics: analysis.Metrics{TotalComponents: 2}}
	s := newService(t, &fakeAPI{arch: gateway.ArchitectureResponse{Status: "success", Architecture: arch}})

	got, err := s.Architecture(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Metrics.TotalComponents)
}

func TestArchitecture_NotReady(t *testing.T) {
	s := newService(t, &fakeAPI{arch: gateway.ArchitectureResponse{Status: "not_ready", Message: "Analysis still in progress"}})

	_, err := s.Architecture(context.Background(), "t1")
	require.ErrorIs(t, err, analysis.ErrArchitectureNotReady)
}
