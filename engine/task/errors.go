package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTask      = errors.New("unknown task")
	ErrCyclicDependency = errors.New("cyclic task dependency")
	ErrInvalidRegistry  = errors.New("invalid task registry")
)

// UnknownTaskError is returned when a requested name is not registered.
type UnknownTaskError struct {
	Name  string
	Known []string
}

func (e *UnknownTaskError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown task %q", e.Name)
	}
	return fmt.Sprintf("unknown task %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownTaskError) Is(target error) bool {
	return target == ErrUnknownTask
}

// CyclicDependencyError reports one cycle in the prerequisite graph.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Path) == 0 {
		return ErrCyclicDependency.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// RegistryError wraps structural validation failures other than cycles.
type RegistryError struct {
	Msg string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRegistry, e.Msg)
}

func (e *RegistryError) Unwrap() error { return ErrInvalidRegistry }

func invalidf(format string, args ...any) error {
	return &RegistryError{Msg: fmt.Sprintf(format, args...)}
}
