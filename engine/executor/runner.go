package executor

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"syscall"
)

// Spec describes one child process.
type Spec struct {
	Argv   []string
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Runner spawns a child process and waits for it. A non-zero exit is
// reported through the exit code with a nil error; the error is reserved for
// commands that could not be started.
type Runner interface {
	Run(ctx context.Context, spec Spec) (int, error)
}

// ProcessRunner runs commands with os/exec.
type ProcessRunner struct{}

func (ProcessRunner) Run(ctx context.Context, spec Spec) (int, error) {
	if len(spec.Argv) == 0 {
		return ExitCannotExecute, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitStatus(exitErr), nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			return ExitCommandNotFound, err
		}
		return ExitCannotExecute, err
	}
	return 0, nil
}

// exitStatus mirrors the shell: a child killed by signal N reports 128+N.
func exitStatus(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return signalExitBase + int(ws.Signal())
	}
	return exitErr.ExitCode()
}
