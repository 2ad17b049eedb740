package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a chat or teardown names a session
	// that was never created by an upload (or was already removed).
	ErrSessionNotFound = errors.New("session not initialized, please upload a CSV file first")

	// ErrInvalidFileType is returned when an upload does not carry a .csv name.
	ErrInvalidFileType = errors.New("invalid file type, please upload a CSV file")

	// ErrInvalidRequest covers missing or empty request fields.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRunTimeout is returned when an assistant run does not settle within
	// the configured maximum wait.
	ErrRunTimeout = errors.New("assistant run timed out")

	// ErrRunFailed is returned when an assistant run ends in failed,
	// cancelled, expired or incomplete status.
	ErrRunFailed = errors.New("assistant run failed")
)

// RunFailedError reports an assistant run that ended without a reply.
type RunFailedError struct {
	Status RunStatus
	Reason string
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("assistant run %s: %s", e.Status, e.Reason)
}

// Is makes errors.Is(err, ErrRunFailed) match.
func (e *RunFailedError) Is(target error) bool {
	return target == ErrRunFailed
}

// Detail is the client-facing description of the failure.
func (e *RunFailedError) Detail() string {
	if e.Status == RunStatusFailed {
		return "Assistant run failed: " + e.Reason
	}
	return fmt.Sprintf("Assistant run ended with status %s: %s", e.Status, e.Reason)
}
