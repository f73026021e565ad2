// Package logging provides component-scoped zerolog loggers and context
// propagation of the analysis task being worked on.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a logger tagged with a component identifier under the
// "cmp" key. Events logged with .Ctx(ctx) pick up task_id and repo.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger().Hook(ContextHook{})
}
