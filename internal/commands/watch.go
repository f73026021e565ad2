package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/printer"
	"github.com/colonyops/repodoc/internal/repodoc"
	"github.com/colonyops/repodoc/internal/state"
	"github.com/colonyops/repodoc/pkg/iojson"
)

// errNotCompleted is returned when a watch ends without documentation, which
// happens when it is interrupted.
var errNotCompleted = errors.New("analysis did not complete")

// watchOptions are shared by the commands that follow a task to completion.
type watchOptions struct {
	jsonOutput bool
	timeout    time.Duration
}

func (o *watchOptions) flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print the result as JSON",
			Destination: &o.jsonOutput,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "give up waiting after this long (0 waits forever)",
			Destination: &o.timeout,
		},
	}
}

// reportProgress prints each new progress message until the returned function
// is called.
func reportProgress(store *state.Store, p *printer.Printer) (stop func()) {
	var (
		mu   sync.Mutex
		last string
	)
	return store.Subscribe(func(s state.ClientState) {
		mu.Lock()
		defer mu.Unlock()
		if s.Progress == "" || s.Progress == last {
			return
		}
		last = s.Progress
		p.Infof("%s", s.Progress)
	})
}

// awaitDocument waits for the active watch and returns the finished state.
// A watch that ended in failure returns the user-visible error message.
func awaitDocument(ctx context.Context, app *repodoc.App, timeout time.Duration) (state.ClientState, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := app.Lifecycle.Wait(ctx); err != nil {
		app.Lifecycle.Close()
		return state.ClientState{}, fmt.Errorf("wait for analysis: %w", err)
	}

	s := app.Store.Snapshot()
	if s.Error != "" {
		return s, errors.New(s.Error)
	}
	if s.View != state.ViewDocs {
		return s, errNotCompleted
	}
	return s, nil
}

// follow runs start, waits for the watch it begins, and prints the document
// or reports the failure in the requested format.
func follow(ctx context.Context, c *cli.Command, app *repodoc.App, opts watchOptions, start func() error) error {
	log.Debug().Str("transport", app.Lifecycle.Transport()).Dur("timeout", opts.timeout).Msg("following analysis")

	if !opts.jsonOutput {
		stop := reportProgress(app.Store, printer.Ctx(ctx))
		defer stop()
	}

	if err := start(); err != nil {
		return fail(ctx, opts.jsonOutput, err)
	}

	s, err := awaitDocument(ctx, app, opts.timeout)
	if err != nil {
		return fail(ctx, opts.jsonOutput, err)
	}

	out := c.Root().Writer
	if opts.jsonOutput {
		return iojson.Write(out, newDocumentJSON(s))
	}
	return writeDocument(out, s, app.Config.TUI.WordWrap)
}

// fail reports the user-visible message of err on stderr, as JSON when
// asked, and exits non-zero.
func fail(ctx context.Context, jsonOutput bool, err error) error {
	msg := analysis.UserMessage(err)
	if jsonOutput {
		_ = iojson.WriteError(printer.Ctx(ctx).Writer(), msg, nil)
	} else {
		printer.Ctx(ctx).Errorf("%s", msg)
	}
	return cli.Exit("", 1)
}
