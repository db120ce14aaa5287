package cli

import (
	"io"

	"github.com/pyworkflow/dispatch/engine/command"
	"github.com/pyworkflow/dispatch/engine/dispatch"
	"github.com/pyworkflow/dispatch/engine/executor"
	"github.com/pyworkflow/dispatch/engine/manager"
	"github.com/pyworkflow/dispatch/engine/task"
	"github.com/pyworkflow/dispatch/pkg/config"
	"github.com/pyworkflow/dispatch/pkg/logger"
	"github.com/pyworkflow/dispatch/pkg/version"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type app struct {
	registry *task.Registry
	runner   executor.Runner
	detector []manager.Option
	// closer releases the log file opened by setupGlobalConfig.
	closer io.Closer
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// RootCmd returns the dispatch command backed by the default task registry.
func RootCmd() *cobra.Command {
	return newApp().command()
}

func newApp() *app {
	return &app{registry: task.Default()}
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "dispatch [task] [-- args...]",
		Short: "Run development tasks of a Python project",
		Long: `Run the setup, lint, typecheck, test and clean tasks of a Python project
through uv, or through python -m when uv is not installed.

Without arguments the available tasks are listed. Flags go before the task
name; everything after it, with or without a leading --, is passed to the
test runner only.`,
		Args:          cobra.ArbitraryArgs,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupGlobalConfig(cmd)
		},
		RunE: a.run,
	}
	// Stop at the task name so -v, -k and -h reach pytest instead of dispatch.
	root.Flags().SetInterspersed(false)
	root.SetVersionTemplate(versionTemplate())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &InvocationError{ExitCode: ExitInvalidInvocation, Message: "invalid flags", Cause: err}
	})

	flags := root.PersistentFlags()
	flags.String("config", config.DefaultConfigFile, "Path to the config file, relative to the working directory")
	flags.String("cwd", "", "Project directory commands run in")
	flags.String("env-file", ".env", "Dotenv file applied to child processes")
	flags.String("manager", "", "Environment manager to use instead of detecting one (uv, pip)")
	flags.String("source-dir", "", "Source directory passed to linters and the type checker")
	flags.String("tests-dir", "", "Test directory passed to linters and the test runner")
	flags.Bool("keep-going", false, "Run the remaining commands after a failure")
	flags.Bool("dry-run", false, "Print the resolved commands without running them")
	flags.String("log-level", "", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Write logs as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")
	flags.String("log-file", "", "Also write logs to this file")
	return root
}

func versionTemplate() string {
	return version.Get().String() + "\n"
}

// setupGlobalConfig loads configuration with CLI flags taking precedence,
// initializes logging and stores both in the command context.
func (a *app) setupGlobalConfig(cmd *cobra.Command) error {
	workDir, err := resolveWorkDir(cmd)
	if err != nil {
		return configError("invalid working directory", err)
	}
	configFile, err := resolveConfigFile(cmd, workDir)
	if err != nil {
		return configError("invalid config file", err)
	}

	cliFlags := make(map[string]any)
	extractCLIFlags(cmd.Flags(), cliFlags)
	sources := make([]config.Source, 0, 2)
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewCLIProvider(cliFlags))

	ctx := cmd.Context()
	svc := config.NewService()
	cfg, err := svc.Load(ctx, sources...)
	if err != nil {
		return configError("failed to load configuration", err)
	}
	cfg.CWD = workDir
	if cfg.Log.File != "" {
		cfg.Log.File = inDir(workDir, cfg.Log.File)
	}

	closer, err := logger.SetupLogger(logger.SetupConfig{
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Source: cfg.Log.Source,
		File:   cfg.Log.File,
	})
	if err != nil {
		return configError("failed to set up logging", err)
	}
	a.closer = closer

	log := logger.GetDefault()
	log.Debug("Configuration loaded", "cwd", workDir, "config", configFile, "policy", cfg.Run.Policy)
	log.Debug("Configuration sources", sourceKeyvals(svc.Sources())...)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	return nil
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if len(args) == 0 {
		d, err := a.newDispatcher(cmd, cfg, nil)
		if err != nil {
			return err
		}
		return printTasks(cmd.OutOrStdout(), d.Registry(), d.Manager(ctx), ShouldUseColor(cmd.OutOrStdout()))
	}
	if cmd.ArgsLenAtDash() == 0 {
		return invalidInvocationf("missing task name before --")
	}
	inv := dispatch.Invocation{Task: args[0], Args: trailingArgs(args[1:])}
	if _, err := a.registry.Resolve(inv.Task); err != nil {
		return err
	}

	envFile, err := resolveEnvFile(cfg.EnvFile, cfg.CWD)
	if err != nil {
		return configError("invalid env file", err)
	}
	env, err := executor.ChildEnv(envFile)
	if err != nil {
		return configError("failed to load env file", err)
	}
	d, err := a.newDispatcher(cmd, cfg, env)
	if err != nil {
		return err
	}
	result, err := d.Dispatch(ctx, inv)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("Dispatch finished", "state", result.State, "tasks", result.Tasks)
	return nil
}

func (a *app) newDispatcher(cmd *cobra.Command, cfg *config.Config, env []string) (*dispatch.Dispatcher, error) {
	policy, err := executor.ParsePolicy(cfg.Run.Policy)
	if err != nil {
		return nil, configError("invalid run policy", err)
	}
	detectorOpts := append([]manager.Option(nil), a.detector...)
	if cfg.Manager.Force != "" {
		forced, err := manager.ParseDescriptor(cfg.Manager.Force)
		if err != nil {
			return nil, configError("invalid environment manager", err)
		}
		detectorOpts = append(detectorOpts, manager.WithForced(forced))
	}

	cleaner := executor.NewCleaner(afero.NewBasePathFs(afero.NewOsFs(), cfg.CWD), cfg.Clean.Patterns)
	exec := executor.New(executor.Options{
		Policy: policy,
		DryRun: cfg.Run.DryRun,
		Dir:    cfg.CWD,
		Env:    env,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}, a.runner, cleaner)

	return dispatch.New(
		a.registry,
		manager.NewDetector(detectorOpts...),
		command.NewBuilder(command.Paths{Source: cfg.Paths.Source, Tests: cfg.Paths.Tests}),
		exec,
	)
}

// trailingArgs drops the separator between the task name and its arguments.
// Flag parsing stops at the task name, so a -- that follows it arrives as a
// plain argument.
func trailingArgs(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}
