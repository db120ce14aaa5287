package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/pyworkflow/dispatch/engine/executor"
	"github.com/pyworkflow/dispatch/pkg/logger"
)

// Execute runs the root command with os.Args and returns the process exit
// status. SIGINT and SIGTERM cancel the running child process.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, newApp(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := a.command()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if closeErr := a.close(); closeErr != nil {
		logger.GetDefault().Warn("Failed to close log file", "error", closeErr)
	}
	if err != nil {
		printError(stderr, err)
	}
	return ExitCode(err)
}

func printError(w io.Writer, err error) {
	var failure *executor.ChildProcessFailure
	if errors.As(err, &failure) && failure.Cause == nil {
		// The child already reported its own failure on the shared streams.
		err = fmt.Errorf("task %s failed with exit code %d", failure.Task, failure.ExitCode)
	}
	style := lipgloss.NewStyle()
	if ShouldUseColor(w) {
		style = style.Foreground(lipgloss.Color("9")).Bold(true)
	}
	fmt.Fprintf(w, "%s %v\n", style.Render("Error:"), err)
}
