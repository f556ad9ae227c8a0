package helpers

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError carries the process exit code for an error returned by a
// command. Silent errors are not printed; the command already reported
// the outcome.
type ExitError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// UsageError marks err as a command usage problem.
func UsageError(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

// Failed reports an unsuccessful run that has already been printed.
func Failed() error {
	return &ExitError{Code: ExitFailure, Silent: true}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ShouldPrint reports whether err needs to be shown to the user.
func ShouldPrint(err error) bool {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return !exitErr.Silent
	}
	return err != nil
}
