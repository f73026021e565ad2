package repodoc

import (
	"context"
	"path/filepath"

	"github.com/colonyops/repodoc/internal/core/config"
	"github.com/colonyops/repodoc/internal/core/doctor"
	"github.com/colonyops/repodoc/internal/core/updatecheck"
	"github.com/colonyops/repodoc/internal/gateway"
	"github.com/colonyops/repodoc/internal/store/jsonfile"
)

// DoctorService runs health checks on the repodoc setup.
type DoctorService struct {
	config    *config.Config
	api       *gateway.Client
	stateFile *jsonfile.StateFile
	updates   doctor.UpdateChecker
	version   string
}

// NewDoctorService creates a new DoctorService. version is the running
// build's version, compared against the latest release.
func NewDoctorService(cfg *config.Config, api *gateway.Client, stateFile *jsonfile.StateFile, version string) *DoctorService {
	return &DoctorService{
		config:    cfg,
		api:       api,
		stateFile: stateFile,
		updates:   updatecheck.New(filepath.Join(cfg.DataDir, "release.json")),
		version:   version,
	}
}

// RunChecks executes all doctor checks and returns results.
func (d *DoctorService) RunChecks(ctx context.Context, configPath string, autofix bool) []doctor.Result {
	checks := []doctor.Check{
		doctor.NewConfigCheck(d.config, configPath),
		doctor.NewStorageCheck(d.config.DataDir, d.stateFile, autofix),
		doctor.NewServiceCheck(d.api, d.config.API.Timeout),
		doctor.NewVersionCheck(d.updates, d.version),
	}
	return doctor.RunAll(ctx, checks)
}
