package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyURL is returned when a submission has no repository URL.
	ErrEmptyURL = errors.New("repository url is required")
	// ErrEmptyQuestion is returned when a question or its repository is blank.
	ErrEmptyQuestion = errors.New("question and repository are required")
	// ErrArchitectureNotReady is returned while the task has not completed.
	ErrArchitectureNotReady = errors.New("architecture not ready")
)

// GenericFailureMessage is the user-visible text for polling failures,
// regardless of whether the transport or the backend failed.
const GenericFailureMessage = "Analysis failed. Please try again."

// NetworkError is a transport or timeout failure talking to the service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendFailure is an explicit failure reported in a well-formed response:
// status=failed on a task, or success=false on a mutation.
type BackendFailure struct {
	Op      string
	Message string
}

func (e *BackendFailure) Error() string {
	if e.Message == "" {
		return e.Op + ": failed"
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// PartialFailure reports a bulk deletion where some ids were not removed.
// It is advisory; the deleted ids are gone.
type PartialFailure struct {
	Deleted int
	Failed  []string
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%d items deleted, %d failed to delete", e.Deleted, len(e.Failed))
}

// UserMessage converts any error into the single string stored in client state.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		netErr     *NetworkError
		backendErr *BackendFailure
		partialErr *PartialFailure
	)
	switch {
	case errors.As(err, &partialErr):
		return "Partial deletion: " + partialErr.Error()
	case errors.As(err, &backendErr):
		if backendErr.Message != "" {
			return backendErr.Message
		}
		return GenericFailureMessage
	case errors.As(err, &netErr):
		return netErr.Err.Error()
	default:
		return err.Error()
	}
}
