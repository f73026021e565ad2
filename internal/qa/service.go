// Package qa wraps the retrieval endpoints used by the documentation view:
// suggested questions, free-form questions, and architecture data.
package qa

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/core/logging"
	"github.com/colonyops/repodoc/internal/gateway"
)

// DefaultCacheSize is the number of repositories whose suggestions are kept.
const DefaultCacheSize = 64

// architectureReady is the status the architecture endpoint reports once data
// is available.
const architectureReady = "success"

// API is the subset of the service API used here.
type API interface {
	Suggestions(ctx context.Context, repoName string) ([]string, error)
	Ask(ctx context.Context, question, repoName string) (gateway.AskResponse, error)
	Architecture(ctx context.Context, taskID string) (gateway.ArchitectureResponse, error)
}

// Answer is a reply to a question with the passages that back it.
type Answer struct {
	Text    string
	Sources []gateway.Source
}

// Service answers questions about analysed repositories.
type Service struct {
	api         API
	suggestions *lru.Cache[string, []string]
	log         zerolog.Logger
}

// New creates a Service caching suggestions for up to cacheSize repositories.
func New(api API, cacheSize int) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create suggestion cache: %w", err)
	}

	return &Service{
		api:         api,
		suggestions: cache,
		log:         logging.Component("qa"),
	}, nil
}

// Suggestions returns suggested questions for repoName. Failures are logged
// and yield an empty list; only successful lookups are cached.
func (s *Service) Suggestions(ctx context.Context, repoName string) []string {
	if repoName == "" {
		return []string{}
	}
	if cached, ok := s.suggestions.Get(repoName); ok {
		return cached
	}

	ctx = logging.WithRepo(ctx, repoName)
	list, err := s.api.Suggestions(ctx, repoName)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("failed to load suggestions")
		return []string{}
	}
	if list == nil {
		list = []string{}
	}

	s.suggestions.Add(repoName, list)
	return list
}

// Forget drops cached suggestions for repoName.
func (s *Service) Forget(repoName string) {
	s.suggestions.Remove(repoName)
}

// Ask sends question about repoName. Blank input returns
// analysis.ErrEmptyQuestion without a request. A response with success=false
// is returned as *analysis.BackendFailure carrying the service's answer text.
func (s *Service) Ask(ctx context.Context, question, repoName string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" || repoName == "" {
		return Answer{}, analysis.ErrEmptyQuestion
	}

	ctx = logging.WithRepo(ctx, repoName)
	resp, err := s.api.Ask(ctx, question, repoName)
	if err != nil {
		s.log.Error().Ctx(ctx).Err(err).Msg("ask failed")
		return Answer{}, &analysis.NetworkError{Op: "ask", Err: err}
	}

	if !resp.Success {
		return Answer{}, &analysis.BackendFailure{Op: "ask", Message: resp.Answer}
	}

	return Answer{Text: resp.Answer, Sources: resp.Sources}, nil
}

// Architecture fetches the dependency data for a completed task. A task that
// has not completed yields analysis.ErrArchitectureNotReady.
func (s *Service) Architecture(ctx context.Context, taskID string) (*analysis.Architecture, error) {
	ctx = logging.WithTaskID(ctx, taskID)
	resp, err := s.api.Architecture(ctx, taskID)
	if err != nil {
		return nil, &analysis.NetworkError{Op: "architecture", Err: err}
	}

	if resp.Status != architectureReady || resp.Architecture == nil {
		s.log.Debug().Ctx(ctx).Str("status", resp.Status).Msg("architecture not ready")
		return nil, analysis.ErrArchitectureNotReady
	}

	return resp.Architecture, nil
}
