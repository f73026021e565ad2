// Package lifecycle drives one analysis task from submission to a terminal
// status and projects every step into the client state.
package lifecycle

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/core/config"
	"github.com/colonyops/repodoc/internal/core/logging"
	"github.com/colonyops/repodoc/internal/gateway"
	"github.com/colonyops/repodoc/internal/state"
)

// SubmittingProgress is shown while the submission request is in flight.
const SubmittingProgress = "Submitting analysis request..."

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 2 * time.Second

// Gateway is the subset of the service API the controller needs.
type Gateway interface {
	Analyze(ctx context.Context, repoURL string) (string, error)
	Result(ctx context.Context, taskID string) (gateway.ResultResponse, error)
}

// Dialer opens the legacy status socket for a task.
type Dialer interface {
	DialStatus(ctx context.Context, taskID string) (*gateway.StatusStream, error)
}

// HistoryRefresher reloads the history list after a task completes.
type HistoryRefresher interface {
	FetchHistory(ctx context.Context)
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithWebSocket selects the status socket as the watch transport.
func WithWebSocket(d Dialer) Option {
	return func(c *Controller) {
		c.dialer = d
		c.transport = config.TransportWebSocket
	}
}

// WithHistory sets the refresher invoked after a completed task.
func WithHistory(h HistoryRefresher) Option {
	return func(c *Controller) { c.history = h }
}

// Controller owns the single active watch. Starting a watch always cancels
// the previous one, and every state write from a watch is discarded unless
// its generation is still the active one.
type Controller struct {
	store     *state.Store
	api       Gateway
	dialer    Dialer
	history   HistoryRefresher
	interval  time.Duration
	transport string
	log       zerolog.Logger

	active atomic.Uint64

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Controller that polls api and writes into store.
func New(store *state.Store, api Gateway, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		api:       api,
		interval:  DefaultInterval,
		transport: config.TransportPoll,
		log:       logging.Component("lifecycle"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transport returns the name of the watch transport in use.
func (c *Controller) Transport() string {
	return c.transport
}

// SubmitRepoURL submits repoURL for analysis and starts watching the new task.
// Any active watch is stopped first. An empty URL returns analysis.ErrEmptyURL
// without touching state. Submission failures are recorded in state and also
// returned. Submissions are never retried.
func (c *Controller) SubmitRepoURL(ctx context.Context, repoURL string) error {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return analysis.ErrEmptyURL
	}

	ctx = logging.WithRepo(ctx, analysis.RepoNameFromURL(repoURL))
	gen := c.stop()

	c.store.Update(func(s *state.ClientState) {
		if !c.isActive(gen) {
			return
		}
		s.View = state.ViewLoading
		s.Loading = true
		s.Error = ""
		s.Progress = SubmittingProgress
	})

	taskID, err := c.api.Analyze(ctx, repoURL)
	if err != nil {
		netErr := &analysis.NetworkError{Op: "submit", Err: err}
		c.log.Error().Ctx(ctx).Err(err).Msg("submit analysis failed")
		c.store.Update(func(s *state.ClientState) {
			if !c.isActive(gen) {
				return
			}
			s.Error = analysis.UserMessage(netErr)
			s.View = state.ViewHome
			s.Loading = false
			s.Progress = ""
		})
		return netErr
	}

	if !c.isActive(gen) {
		c.log.Debug().Ctx(logging.WithTaskID(ctx, taskID)).Msg("submission superseded before watch started")
		return nil
	}

	c.log.Info().Ctx(logging.WithTaskID(ctx, taskID)).Msg("analysis submitted")
	c.FetchResult(taskID)
	return nil
}

// FetchResult supersedes any active watch and starts watching taskID.
func (c *Controller) FetchResult(taskID string) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logging.WithTaskID(ctx, taskID)
	done := make(chan struct{})

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.active.Store(gen)
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.store.Update(func(s *state.ClientState) {
		if !c.isActive(gen) {
			return
		}
		s.View = state.ViewLoading
		s.Loading = true
		s.Error = ""
		s.TaskID = taskID
	})

	c.log.Debug().Ctx(ctx).Str("transport", c.transport).Msg("watch started")

	go func() {
		defer close(done)
		defer cancel()

		if c.transport == config.TransportWebSocket && c.dialer != nil {
			c.stream(ctx, gen, taskID)
			return
		}
		c.poll(ctx, gen, taskID)
	}()
}

// ResetState cancels the active watch and restores transient defaults,
// keeping the history list.
func (c *Controller) ResetState() {
	c.stop()
	c.store.Update(func(s *state.ClientState) {
		*s = state.ResetTransient(*s)
	})
}

// Close cancels the active watch without changing state.
func (c *Controller) Close() {
	c.stop()
}

// Wait blocks until the active watch, if any, has finished.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop cancels the active watch and returns the new generation. Writes
// tagged with an older generation are dropped from then on.
func (c *Controller) stop() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.active.Store(c.gen)
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return c.gen
}

func (c *Controller) isActive(gen uint64) bool {
	return c.active.Load() == gen
}

// observation is one status report from either transport.
type observation struct {
	Status        analysis.Status
	Progress      string
	Result        *analysis.Result
	RepoName      string
	Error         string
	TransportFail error
}

// apply projects an observation into state and reports whether the watch
// should stop. Observations from superseded watches are dropped.
func (c *Controller) apply(ctx context.Context, gen uint64, obs observation) (stop bool) {
	if !c.isActive(gen) {
		c.log.Debug().Ctx(ctx).Msg("discarding stale observation")
		return true
	}

	switch {
	case obs.TransportFail != nil:
		err := &analysis.NetworkError{Op: "poll", Err: obs.TransportFail}
		c.log.Error().Ctx(ctx).Err(err).Msg("watch failed")
		c.fail(gen)
		return true

	case obs.Status == analysis.StatusCompleted && obs.Result != nil:
		applied := false
		c.store.Update(func(s *state.ClientState) {
			if !c.isActive(gen) {
				return
			}
			applied = true
			s.Documentation = obs.Result.Documentation
			s.Architecture = obs.Result.Architecture
			if obs.RepoName != "" {
				s.RepoName = obs.RepoName
			}
			s.View = state.ViewDocs
			s.Loading = false
			s.Progress = ""
			s.Error = ""
		})
		if !applied {
			return true
		}
		c.log.Info().Ctx(ctx).Str("repo", obs.RepoName).Msg("analysis completed")
		if c.history != nil {
			c.history.FetchHistory(ctx)
		}
		return true

	case obs.Status == analysis.StatusFailed:
		err := &analysis.BackendFailure{Op: "poll", Message: obs.Error}
		c.log.Warn().Ctx(ctx).Err(err).Msg("analysis failed")
		c.fail(gen)
		return true

	default:
		progress := obs.Progress
		if progress == "" {
			progress = string(obs.Status)
		}
		c.store.Update(func(s *state.ClientState) {
			if !c.isActive(gen) {
				return
			}
			s.Progress = progress
		})
		return false
	}
}

func (c *Controller) fail(gen uint64) {
	c.store.Update(func(s *state.ClientState) {
		if !c.isActive(gen) {
			return
		}
		s.Error = analysis.GenericFailureMessage
		s.View = state.ViewHome
		s.Loading = false
		s.Progress = ""
	})
}
