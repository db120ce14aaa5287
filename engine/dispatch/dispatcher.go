package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/pyworkflow/dispatch/engine/command"
	"github.com/pyworkflow/dispatch/engine/executor"
	"github.com/pyworkflow/dispatch/engine/manager"
	"github.com/pyworkflow/dispatch/engine/task"
	"github.com/pyworkflow/dispatch/pkg/logger"
)

// State is a step of a single invocation.
type State string

const (
	StateStart     State = "start"
	StateDetectEnv State = "detect_env"
	StateResolve   State = "resolve"
	StateExecute   State = "execute"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Invocation is the requested task plus the caller's trailing arguments.
type Invocation struct {
	Task string
	Args []string
}

// Result is the outcome of Dispatch.
type Result struct {
	State    State
	ExitCode int
	Manager  manager.Descriptor
	// Tasks is the resolved chain, in execution order.
	Tasks    []string
	Commands []command.Command
	Failures []*executor.ChildProcessFailure
}

// Dispatcher wires detection, resolution, rendering and execution.
type Dispatcher struct {
	registry *task.Registry
	detector *manager.Detector
	builder  *command.Builder
	executor *executor.Executor
}

// New validates that every task renders for every manager and returns a
// dispatcher. A registry that does not render is a configuration error.
func New(
	registry *task.Registry,
	detector *manager.Detector,
	builder *command.Builder,
	exec *executor.Executor,
) (*Dispatcher, error) {
	if registry == nil || detector == nil || builder == nil || exec == nil {
		return nil, errors.New("dispatcher requires a registry, detector, builder and executor")
	}
	if err := builder.Validate(registry); err != nil {
		return nil, fmt.Errorf("%w: %w", task.ErrInvalidRegistry, err)
	}
	return &Dispatcher{registry: registry, detector: detector, builder: builder, executor: exec}, nil
}

// Registry returns the task registry.
func (d *Dispatcher) Registry() *task.Registry {
	return d.registry
}

// Manager returns the environment manager commands are rendered for.
func (d *Dispatcher) Manager(ctx context.Context) manager.Descriptor {
	return d.detector.Get(ctx)
}

// Dispatch resolves and runs inv. The returned error is nil only when the
// whole chain succeeded. Unknown tasks fail before any command is rendered
// or spawned, and every command of the chain is rendered before the first
// one starts.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (*Result, error) {
	log := logger.FromContext(ctx).With("task", inv.Task)
	result := &Result{State: StateStart}
	transition := func(s State) {
		log.Debug("Dispatch state", "from", result.State, "to", s)
		result.State = s
	}

	transition(StateDetectEnv)
	result.Manager = d.detector.Get(ctx)

	transition(StateResolve)
	chain, err := d.registry.Resolve(inv.Task)
	if err != nil {
		transition(StateFailed)
		return result, err
	}
	for _, t := range chain {
		result.Tasks = append(result.Tasks, t.Name)
	}

	cmds, err := d.builder.BuildAll(chain, result.Manager, inv.Args)
	if err != nil {
		transition(StateFailed)
		return result, err
	}
	result.Commands = cmds

	transition(StateExecute)
	log.Info("Dispatching", "manager", result.Manager, "chain", result.Tasks)
	runResult, err := d.executor.Run(ctx, cmds)
	if runResult != nil {
		result.ExitCode = runResult.ExitCode
		result.Failures = runResult.Failures
	}
	if err != nil {
		transition(StateFailed)
		return result, err
	}
	transition(StateDone)
	return result, nil
}
