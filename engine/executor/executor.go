package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pyworkflow/dispatch/engine/command"
	"github.com/pyworkflow/dispatch/engine/task"
	"github.com/pyworkflow/dispatch/pkg/logger"
)

// Policy decides what happens after a command fails.
type Policy string

const (
	// FailFast stops the chain at the first failure.
	FailFast Policy = "fail-fast"
	// Continue runs every command and reports the first failure.
	Continue Policy = "continue"
)

// ParsePolicy converts a config value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case FailFast, "":
		return FailFast, nil
	case Continue:
		return Continue, nil
	default:
		return "", fmt.Errorf("unknown run policy %q (supported: fail-fast, continue)", s)
	}
}

// Options configures an Executor.
type Options struct {
	Policy Policy
	DryRun bool
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Result summarizes a run.
type Result struct {
	ExitCode int
	// Ran lists the commands that were started, in order.
	Ran      []command.Command
	Failures []*ChildProcessFailure
}

// Executor runs rendered commands one at a time.
type Executor struct {
	opts    Options
	runner  Runner
	cleaner *Cleaner
}

// New creates an executor. A nil runner uses ProcessRunner.
func New(opts Options, runner Runner, cleaner *Cleaner) *Executor {
	if runner == nil {
		runner = ProcessRunner{}
	}
	if opts.Policy == "" {
		opts.Policy = FailFast
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Executor{opts: opts, runner: runner, cleaner: cleaner}
}

// Run executes cmds in order. Under FailFast the first failure ends the
// run; under Continue the remaining commands still run. In both cases the
// result's exit code and the returned error belong to the first failure.
// Cancellation of ctx always ends the run.
func (e *Executor) Run(ctx context.Context, cmds []command.Command) (*Result, error) {
	log := logger.FromContext(ctx)
	result := &Result{}
	var current string
	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return e.interrupted(result, cmd, err)
		}
		if cmd.Task != current {
			current = cmd.Task
			log.Info("Running task", "task", cmd.Task)
		}
		if e.opts.DryRun {
			fmt.Fprintf(e.opts.Stdout, "[%s] %s\n", cmd.Task, cmd)
			continue
		}
		log.Debug("Starting command", "task", cmd.Task, "command", cmd.String())
		result.Ran = append(result.Ran, cmd)
		failure := e.runOne(ctx, cmd)
		if failure == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return e.interrupted(result, cmd, ctxErr)
		}
		log.Error("Command failed", "task", cmd.Task, "command", cmd.String(), "exit_code", failure.ExitCode)
		result.Failures = append(result.Failures, failure)
		if e.opts.Policy == FailFast {
			break
		}
	}
	if len(result.Failures) == 0 {
		return result, nil
	}
	first := result.Failures[0]
	result.ExitCode = first.ExitCode
	return result, first
}

func (e *Executor) runOne(ctx context.Context, cmd command.Command) *ChildProcessFailure {
	if cmd.IsBuiltin() {
		return e.runBuiltin(ctx, cmd)
	}
	code, err := e.runner.Run(ctx, Spec{
		Argv:   cmd.Argv,
		Dir:    e.opts.Dir,
		Env:    e.opts.Env,
		Stdin:  e.opts.Stdin,
		Stdout: e.opts.Stdout,
		Stderr: e.opts.Stderr,
	})
	if err == nil && code == 0 {
		return nil
	}
	if code <= 0 {
		code = 1
	}
	return &ChildProcessFailure{Task: cmd.Task, Command: cmd.String(), ExitCode: code, Cause: err}
}

func (e *Executor) runBuiltin(ctx context.Context, cmd command.Command) *ChildProcessFailure {
	switch cmd.Builtin {
	case task.BuiltinClean:
		if e.cleaner == nil {
			return &ChildProcessFailure{
				Task:     cmd.Task,
				Command:  cmd.String(),
				ExitCode: 1,
				Cause:    errors.New("no cleaner configured"),
			}
		}
		removed, err := e.cleaner.Clean(ctx)
		for _, p := range removed {
			fmt.Fprintf(e.opts.Stdout, "removed %s\n", p)
		}
		if err != nil {
			return &ChildProcessFailure{Task: cmd.Task, Command: cmd.String(), ExitCode: 1, Cause: err}
		}
		return nil
	default:
		return &ChildProcessFailure{
			Task:     cmd.Task,
			Command:  cmd.String(),
			ExitCode: 1,
			Cause:    fmt.Errorf("unknown builtin %q", cmd.Builtin),
		}
	}
}

func (e *Executor) interrupted(result *Result, cmd command.Command, cause error) (*Result, error) {
	failure := &ChildProcessFailure{
		Task:     cmd.Task,
		Command:  cmd.String(),
		ExitCode: ExitInterrupted,
		Cause:    cause,
	}
	result.Failures = append(result.Failures, failure)
	first := result.Failures[0]
	result.ExitCode = first.ExitCode
	return result, first
}
