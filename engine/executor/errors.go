package executor

import (
	"errors"
	"fmt"
)

// ErrChildProcess marks failures of a spawned command or builtin action.
var ErrChildProcess = errors.New("child process failed")

const (
	// ExitCommandNotFound mirrors the shell status for a missing executable.
	ExitCommandNotFound = 127
	// ExitCannotExecute mirrors the shell status for a command that could not start.
	ExitCannotExecute = 126
	// ExitInterrupted is reported when the run is cancelled by a signal.
	ExitInterrupted = 130

	signalExitBase = 128
)

// ChildProcessFailure reports a command that exited non-zero or could not
// be started.
type ChildProcessFailure struct {
	Task     string
	Command  string
	ExitCode int
	Cause    error
}

func (e *ChildProcessFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("task %s: %s failed with exit code %d: %v", e.Task, e.Command, e.ExitCode, e.Cause)
	}
	return fmt.Sprintf("task %s: %s exited with code %d", e.Task, e.Command, e.ExitCode)
}

func (e *ChildProcessFailure) Is(target error) bool {
	return target == ErrChildProcess
}

func (e *ChildProcessFailure) Unwrap() error {
	return e.Cause
}
