package cli

import (
	"errors"
	"fmt"

	pkgerrors "todolist-backend/pkg/errors"
)

// Exit codes for todoctl
const (
	ExitSuccess      = 0 // Command ran
	ExitFailure      = 1 // The todo operation was refused (not found, invalid text, conflict)
	ExitCommandError = 2 // Bad flags, unreadable config, unreachable store
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode extracts the exit code from an error. Domain outcomes map to
// ExitFailure and anything else to ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if pkgerrors.IsDomainOutcome(err) {
		return ExitFailure
	}
	return ExitCommandError
}

// ErrorMessage renders err for the terminal
func ErrorMessage(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil && pkgerrors.IsDomainOutcome(err) {
		return appErr.Message
	}
	return err.Error()
}
