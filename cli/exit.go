package cli

import (
	"errors"
	"fmt"

	"github.com/pyworkflow/dispatch/engine/executor"
	"github.com/pyworkflow/dispatch/engine/task"
)

const (
	ExitSuccess           = 0
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// InvocationError reports a problem with the command line itself or with the
// configuration it points at. ExitCode is the status the process ends with.
type InvocationError struct {
	ExitCode int
	Message  string
	Cause    error
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InvocationError) Unwrap() error {
	return e.Cause
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

func configError(message string, cause error) error {
	return &InvocationError{ExitCode: ExitConfigError, Message: message, Cause: cause}
}

// ExitCode maps an error returned by the root command to a process status.
// A failed child process propagates its own status unchanged.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var failure *executor.ChildProcessFailure
	if errors.As(err, &failure) {
		return failure.ExitCode
	}
	var invocation *InvocationError
	if errors.As(err, &invocation) {
		return invocation.ExitCode
	}
	switch {
	case errors.Is(err, task.ErrUnknownTask):
		return ExitInvalidInvocation
	case errors.Is(err, task.ErrCyclicDependency), errors.Is(err, task.ErrInvalidRegistry):
		return ExitConfigError
	default:
		return ExitInternalError
	}
}
