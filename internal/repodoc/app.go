// Package repodoc wires the gateway, the state store, and the controllers
// into the App that commands and the TUI consume.
package repodoc

import (
	"context"
	"fmt"

	"github.com/colonyops/repodoc/internal/core/config"
	"github.com/colonyops/repodoc/internal/gateway"
	"github.com/colonyops/repodoc/internal/history"
	"github.com/colonyops/repodoc/internal/lifecycle"
	"github.com/colonyops/repodoc/internal/qa"
	"github.com/colonyops/repodoc/internal/state"
	"github.com/colonyops/repodoc/internal/store/jsonfile"
)

// App is the central entry point for all repodoc operations.
// Commands and TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Version   string
	Config    *config.Config
	API       *gateway.Client
	StateFile *jsonfile.StateFile
	Store     *state.Store
	Lifecycle *lifecycle.Controller
	History   *history.Manager
	QA        *qa.Service
	Doctor    *DoctorService
}

// historyFunc adapts a function to lifecycle.HistoryRefresher.
type historyFunc func(ctx context.Context)

func (f historyFunc) FetchHistory(ctx context.Context) { f(ctx) }

// NewApp builds an App from configuration. initial is the rehydrated client
// state; every change to it is saved to stateFile.
func NewApp(cfg *config.Config, stateFile *jsonfile.StateFile, initial state.ClientState, version string) (*App, error) {
	api := gateway.New(gateway.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		RetryAttempts: cfg.API.RetryAttempts,
		RetryDelay:    cfg.API.RetryDelay,
	})

	store := state.NewStore(initial, state.WithPersister(stateFile))

	var hist *history.Manager
	opts := []lifecycle.Option{
		lifecycle.WithInterval(cfg.Poll.Interval),
		lifecycle.WithHistory(historyFunc(func(ctx context.Context) { hist.FetchHistory(ctx) })),
	}
	if cfg.Poll.Transport == config.TransportWebSocket {
		opts = append(opts, lifecycle.WithWebSocket(api))
	}

	ctrl := lifecycle.New(store, api, opts...)
	hist = history.NewManager(store, api, ctrl)

	qaSvc, err := qa.New(api, cfg.QA.SuggestionCache)
	if err != nil {
		return nil, fmt.Errorf("create qa service: %w", err)
	}

	return &App{
		Version:   version,
		Config:    cfg,
		API:       api,
		StateFile: stateFile,
		Store:     store,
		Lifecycle: ctrl,
		History:   hist,
		QA:        qaSvc,
		Doctor:    NewDoctorService(cfg, api, stateFile, version),
	}, nil
}

// Close stops any active watch.
func (a *App) Close() {
	if a.Lifecycle != nil {
		a.Lifecycle.Close()
	}
}
