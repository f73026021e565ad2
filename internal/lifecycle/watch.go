package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/colonyops/repodoc/internal/core/analysis"
)

// poll issues one result request per interval until a terminal status, a
// transport failure, or cancellation. The first request is sent after one
// interval.
func (c *Controller) poll(ctx context.Context, gen uint64, taskID string) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		resp, err := c.api.Result(ctx, taskID)
		if ctx.Err() != nil {
			return
		}

		obs := observation{TransportFail: err}
		if err == nil {
			obs = observation{
				Status:   resp.Status,
				Result:   resp.Result,
				RepoName: resp.RepoName,
				Error:    resp.Error,
			}
		}

		if c.apply(ctx, gen, obs) {
			return
		}
	}
}

// stream reads pushed status messages from the status socket until a
// terminal status, a connection failure, or cancellation.
func (c *Controller) stream(ctx context.Context, gen uint64, taskID string) {
	s, err := c.dialer.DialStatus(ctx, taskID)
	if err != nil {
		if ctx.Err() == nil {
			c.apply(ctx, gen, observation{TransportFail: err})
		}
		return
	}
	defer func() {
		if err := s.Close(); err != nil {
			c.log.Debug().Ctx(ctx).Err(err).Msg("close status socket")
		}
	}()

	for {
		msg, err := s.Next()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = errors.New("status socket closed before the task finished")
			}
			c.apply(ctx, gen, observation{TransportFail: err})
			return
		}

		obs := observation{
			Status:   msg.Status,
			Progress: msg.Progress,
			RepoName: msg.RepoName,
			Error:    msg.Error,
		}
		if msg.Status.IsTerminal() {
			obs.Result = &analysis.Result{
				Documentation: msg.Documentation,
				Architecture:  msg.Architecture,
			}
		}

		if c.apply(ctx, gen, obs) {
			return
		}
	}
}
