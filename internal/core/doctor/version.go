package doctor

import (
	"context"

	"github.com/colonyops/repodoc/internal/core/updatecheck"
)

// UpdateChecker reports whether a newer release exists.
type UpdateChecker interface {
	Check(ctx context.Context, currentVersion string) (*updatecheck.Result, error)
}

// VersionCheck reports the running version and any newer release. Lookup
// failures are warnings; the check never fails.
type VersionCheck struct {
	checker UpdateChecker
	version string
}

// NewVersionCheck creates a new version check.
func NewVersionCheck(checker UpdateChecker, version string) *VersionCheck {
	return &VersionCheck{checker: checker, version: version}
}

func (c *VersionCheck) Name() string {
	return "Version"
}

func (c *VersionCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	update, err := c.checker.Check(ctx, c.version)
	switch {
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  c.version,
			Status: StatusWarn,
			Detail: "release lookup failed: " + err.Error(),
		})
	case update != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  c.version,
			Status: StatusWarn,
			Detail: update.Latest + " is available",
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  c.version,
			Status: StatusPass,
			Detail: "up to date",
		})
	}
	return result
}
