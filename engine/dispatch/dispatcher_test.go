package dispatch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pyworkflow/dispatch/engine/command"
	"github.com/pyworkflow/dispatch/engine/executor"
	"github.com/pyworkflow/dispatch/engine/manager"
	"github.com/pyworkflow/dispatch/engine/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	calls    [][]string
	failures map[string]int
}

func (r *recordingRunner) Run(_ context.Context, spec executor.Spec) (int, error) {
	r.calls = append(r.calls, spec.Argv)
	for needle, code := range r.failures {
		if strings.Contains(strings.Join(spec.Argv, " "), needle) {
			return code, nil
		}
	}
	return 0, nil
}

func (r *recordingRunner) tools() []string {
	out := make([]string, 0, len(r.calls))
	for _, argv := range r.calls {
		out = append(out, strings.Join(argv, " "))
	}
	return out
}

func missing(string) (string, error) { return "", errors.New("not found") }

func found(file string) (string, error) { return "/usr/bin/" + file, nil }

func newDispatcher(
	t *testing.T,
	runner executor.Runner,
	lookPath manager.LookPathFunc,
	policy executor.Policy,
) *Dispatcher {
	t.Helper()
	exec := executor.New(executor.Options{Policy: policy, Stdout: &bytes.Buffer{}}, runner, nil)
	d, err := New(
		task.Default(),
		manager.NewDetector(manager.WithLookPath(lookPath)),
		command.NewBuilder(command.Paths{Source: "src", Tests: "tests"}),
		exec,
	)
	require.NoError(t, err)
	return d
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("Should run lint, typecheck and test for all", func(t *testing.T) {
		runner := &recordingRunner{}
		d := newDispatcher(t, runner, found, executor.FailFast)

		result, err := d.Dispatch(t.Context(), Invocation{Task: task.All})

		require.NoError(t, err)
		assert.Equal(t, StateDone, result.State)
		assert.Equal(t, 0, result.ExitCode)
		assert.Equal(t, []string{task.Lint, task.Typecheck, task.Test}, result.Tasks)
		assert.Equal(t, []string{
			"uv run ruff check src tests",
			"uv run ruff format --check src tests",
			"uv run mypy src",
			"uv run pytest tests",
		}, runner.tools())
	})

	t.Run("Should spawn nothing for an unknown task", func(t *testing.T) {
		runner := &recordingRunner{}
		d := newDispatcher(t, runner, found, executor.FailFast)

		result, err := d.Dispatch(t.Context(), Invocation{Task: "deploy"})

		require.ErrorIs(t, err, task.ErrUnknownTask)
		assert.Equal(t, StateFailed, result.State)
		assert.Empty(t, runner.calls)
	})

	t.Run("Should forward trailing arguments to the test command only", func(t *testing.T) {
		runner := &recordingRunner{}
		d := newDispatcher(t, runner, found, executor.FailFast)

		_, err := d.Dispatch(t.Context(), Invocation{Task: task.All, Args: []string{"-k", "login", "-v"}})

		require.NoError(t, err)
		assert.Equal(t, []string{"uv", "run", "pytest", "tests", "-k", "login", "-v"}, runner.calls[3])
		for _, argv := range runner.calls[:3] {
			assert.NotContains(t, argv, "login")
		}
	})

	t.Run("Should render every task with the fallback when uv is missing", func(t *testing.T) {
		runner := &recordingRunner{}
		d := newDispatcher(t, runner, missing, executor.FailFast)

		result, err := d.Dispatch(t.Context(), Invocation{Task: task.All})

		require.NoError(t, err)
		assert.Equal(t, manager.Pip, result.Manager)
		for _, argv := range runner.calls {
			assert.Equal(t, []string{"python", "-m"}, argv[:2])
		}
	})

	t.Run("Should never run test after typecheck fails", func(t *testing.T) {
		runner := &recordingRunner{failures: map[string]int{"mypy": 2}}
		d := newDispatcher(t, runner, found, executor.FailFast)

		result, err := d.Dispatch(t.Context(), Invocation{Task: task.All})

		require.ErrorIs(t, err, executor.ErrChildProcess)
		assert.Equal(t, StateFailed, result.State)
		assert.Equal(t, 2, result.ExitCode)
		for _, call := range runner.tools() {
			assert.NotContains(t, call, "pytest")
		}
	})

	t.Run("Should keep going under the continue policy", func(t *testing.T) {
		runner := &recordingRunner{failures: map[string]int{"mypy": 2, "pytest": 1}}
		d := newDispatcher(t, runner, found, executor.Continue)

		result, err := d.Dispatch(t.Context(), Invocation{Task: task.All})

		require.Error(t, err)
		assert.Len(t, runner.calls, 4)
		assert.Equal(t, 2, result.ExitCode)
		assert.Len(t, result.Failures, 2)
	})

	t.Run("Should detect the manager once across invocations", func(t *testing.T) {
		var probes int
		lookPath := func(file string) (string, error) {
			probes++
			return found(file)
		}
		d := newDispatcher(t, &recordingRunner{}, lookPath, executor.FailFast)

		_, err := d.Dispatch(t.Context(), Invocation{Task: task.Lint})
		require.NoError(t, err)
		_, err = d.Dispatch(t.Context(), Invocation{Task: task.Test})
		require.NoError(t, err)

		assert.Equal(t, 1, probes)
	})
}

func TestNew(t *testing.T) {
	t.Run("Should reject a registry whose templates do not render", func(t *testing.T) {
		reg, err := task.NewRegistry(task.Task{Name: "bad", Commands: []string{"{{ .Poetry }} run"}})
		require.NoError(t, err)

		_, err = New(
			reg,
			manager.NewDetector(),
			command.NewBuilder(command.Paths{Source: "src", Tests: "tests"}),
			executor.New(executor.Options{}, nil, nil),
		)

		assert.ErrorIs(t, err, task.ErrInvalidRegistry)
	})

	t.Run("Should require every collaborator", func(t *testing.T) {
		_, err := New(task.Default(), nil, nil, nil)

		assert.Error(t, err)
	})
}
