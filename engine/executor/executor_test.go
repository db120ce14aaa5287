package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/pyworkflow/dispatch/engine/command"
	"github.com/pyworkflow/dispatch/engine/task"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	codes map[string]int
	errs  map[string]error
	calls [][]string
	specs []Spec
	onRun func()
}

func (f *fakeRunner) Run(_ context.Context, spec Spec) (int, error) {
	f.calls = append(f.calls, spec.Argv)
	f.specs = append(f.specs, spec)
	if f.onRun != nil {
		f.onRun()
	}
	key := strings.Join(spec.Argv, " ")
	if err, ok := f.errs[key]; ok {
		return ExitCommandNotFound, err
	}
	return f.codes[key], nil
}

func cmd(taskName string, argv ...string) command.Command {
	return command.Command{Task: taskName, Argv: argv}
}

func chain() []command.Command {
	return []command.Command{
		cmd("lint", "ruff", "check"),
		cmd("typecheck", "mypy", "src"),
		cmd("test", "pytest"),
	}
}

func TestExecutor_Run(t *testing.T) {
	t.Run("Should run every command in order and return zero", func(t *testing.T) {
		runner := &fakeRunner{}
		executor := New(Options{Stdout: &bytes.Buffer{}}, runner, nil)

		result, err := executor.Run(t.Context(), chain())

		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode)
		assert.Equal(t, [][]string{{"ruff", "check"}, {"mypy", "src"}, {"pytest"}}, runner.calls)
	})

	t.Run("Should stop at the first failure and propagate its exit code", func(t *testing.T) {
		runner := &fakeRunner{codes: map[string]int{"mypy src": 3}}
		executor := New(Options{Policy: FailFast}, runner, nil)

		result, err := executor.Run(t.Context(), chain())

		require.ErrorIs(t, err, ErrChildProcess)
		var failure *ChildProcessFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "typecheck", failure.Task)
		assert.Equal(t, 3, failure.ExitCode)
		assert.Equal(t, 3, result.ExitCode)
		assert.Len(t, runner.calls, 2, "test must never run after typecheck fails")
	})

	t.Run("Should run everything under the continue policy and report the first failure", func(t *testing.T) {
		runner := &fakeRunner{codes: map[string]int{"ruff check": 1, "pytest": 5}}
		executor := New(Options{Policy: Continue}, runner, nil)

		result, err := executor.Run(t.Context(), chain())

		require.Error(t, err)
		assert.Len(t, runner.calls, 3)
		assert.Equal(t, 1, result.ExitCode)
		require.Len(t, result.Failures, 2)
		assert.Equal(t, "test", result.Failures[1].Task)
	})

	t.Run("Should map spawn failures to exit code 127", func(t *testing.T) {
		notFound := &exec.Error{Name: "ruff", Err: exec.ErrNotFound}
		runner := &fakeRunner{errs: map[string]error{"ruff check": notFound}}
		executor := New(Options{}, runner, nil)

		result, err := executor.Run(t.Context(), chain())

		require.Error(t, err)
		assert.ErrorIs(t, err, exec.ErrNotFound)
		assert.Equal(t, ExitCommandNotFound, result.ExitCode)
		assert.Len(t, runner.calls, 1)
	})

	t.Run("Should pass directory and environment to the runner", func(t *testing.T) {
		runner := &fakeRunner{}
		executor := New(Options{Dir: "/project", Env: []string{"A=1"}}, runner, nil)

		_, err := executor.Run(t.Context(), chain()[:1])

		require.NoError(t, err)
		assert.Equal(t, "/project", runner.specs[0].Dir)
		assert.Equal(t, []string{"A=1"}, runner.specs[0].Env)
	})

	t.Run("Should print commands without spawning in dry run mode", func(t *testing.T) {
		runner := &fakeRunner{}
		var out bytes.Buffer
		executor := New(Options{DryRun: true, Stdout: &out}, runner, nil)

		result, err := executor.Run(t.Context(), chain())

		require.NoError(t, err)
		assert.Empty(t, runner.calls)
		assert.Empty(t, result.Ran)
		assert.Contains(t, out.String(), "[typecheck] mypy src")
	})

	t.Run("Should stop with the interrupt code when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		runner := &fakeRunner{onRun: cancel}
		executor := New(Options{Policy: Continue}, runner, nil)

		result, err := executor.Run(ctx, chain())

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, ExitInterrupted, result.ExitCode)
		assert.Len(t, runner.calls, 1)
	})

	t.Run("Should run the clean builtin in process", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, ".pytest_cache/v/cache", []byte("x"), 0o644))
		runner := &fakeRunner{}
		var out bytes.Buffer
		executor := New(Options{Stdout: &out}, runner, NewCleaner(fs, []string{".pytest_cache"}))

		_, err := executor.Run(t.Context(), []command.Command{{Task: "clean", Builtin: task.BuiltinClean}})

		require.NoError(t, err)
		assert.Empty(t, runner.calls)
		exists, err := afero.Exists(fs, ".pytest_cache")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Contains(t, out.String(), "removed .pytest_cache")
	})

	t.Run("Should fail the clean builtin when no cleaner is configured", func(t *testing.T) {
		executor := New(Options{}, &fakeRunner{}, nil)

		result, err := executor.Run(t.Context(), []command.Command{{Task: "clean", Builtin: task.BuiltinClean}})

		require.Error(t, err)
		assert.Equal(t, 1, result.ExitCode)
	})
}

func TestParsePolicy(t *testing.T) {
	t.Run("Should default to fail-fast", func(t *testing.T) {
		p, err := ParsePolicy("")
		require.NoError(t, err)
		assert.Equal(t, FailFast, p)
	})

	t.Run("Should reject unknown policies", func(t *testing.T) {
		_, err := ParsePolicy("retry")
		assert.Error(t, err)
	})
}

func TestProcessRunner(t *testing.T) {
	t.Run("Should report a missing executable", func(t *testing.T) {
		code, err := ProcessRunner{}.Run(t.Context(), Spec{Argv: []string{"definitely-not-a-real-binary-xyz"}})

		require.Error(t, err)
		assert.True(t, errors.Is(err, exec.ErrNotFound))
		assert.Equal(t, ExitCommandNotFound, code)
	})

	t.Run("Should reject an empty argv", func(t *testing.T) {
		_, err := ProcessRunner{}.Run(t.Context(), Spec{})

		assert.Error(t, err)
	})

	t.Run("Should return the child's own exit status", func(t *testing.T) {
		requireShell(t)

		code, err := ProcessRunner{}.Run(t.Context(), Spec{Argv: []string{"sh", "-c", "exit 7"}})

		require.NoError(t, err)
		assert.Equal(t, 7, code)
	})

	t.Run("Should report 128 plus the signal for a killed child", func(t *testing.T) {
		requireShell(t)

		code, err := ProcessRunner{}.Run(t.Context(), Spec{Argv: []string{"sh", "-c", "kill -TERM $$"}})

		require.NoError(t, err)
		assert.Equal(t, 128+int(syscall.SIGTERM), code)
	})
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found on PATH")
	}
}
