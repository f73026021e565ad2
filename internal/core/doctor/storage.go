package doctor

import (
	"context"
	"fmt"
	"os"
)

// StateLoader reads and clears the persisted client state.
type StateLoader interface {
	Path() string
	Check() error
	Clear() error
}

// StorageCheck verifies the data directory and the persisted state slot.
// With autofix, an unreadable state file is removed.
type StorageCheck struct {
	dataDir string
	state   StateLoader
	autofix bool
}

// NewStorageCheck creates a new storage check.
func NewStorageCheck(dataDir string, state StateLoader, autofix bool) *StorageCheck {
	return &StorageCheck{dataDir: dataDir, state: state, autofix: autofix}
}

func (c *StorageCheck) Name() string {
	return "Storage"
}

func (c *StorageCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	info, err := os.Stat(c.dataDir)
	switch {
	case os.IsNotExist(err):
		result.Items = append(result.Items, CheckItem{
			Label:  "data_dir",
			Status: StatusWarn,
			Detail: c.dataDir + " does not exist yet",
		})
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  "data_dir",
			Status: StatusFail,
			Detail: fmt.Sprintf("inaccessible: %v", err),
		})
	case !info.IsDir():
		result.Items = append(result.Items, CheckItem{
			Label:  "data_dir",
			Status: StatusFail,
			Detail: "path is not a directory",
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "data_dir",
			Status: StatusPass,
			Detail: c.dataDir,
		})
	}

	if err := c.state.Check(); err != nil {
		item := CheckItem{
			Label:   "state",
			Status:  StatusFail,
			Detail:  err.Error(),
			Fixable: true,
		}
		if c.autofix {
			if clearErr := c.state.Clear(); clearErr != nil {
				item.Detail = fmt.Sprintf("%v (remove failed: %v)", err, clearErr)
			} else {
				item.Status = StatusPass
				item.Detail = "removed unreadable " + c.state.Path()
			}
		}
		result.Items = append(result.Items, item)
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "state",
			Status: StatusPass,
			Detail: c.state.Path(),
		})
	}

	return result
}
