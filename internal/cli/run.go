package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/slate/internal/harness"
	"github.com/roach88/slate/internal/schema"
	"github.com/roach88/slate/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Archive string

	// Tokens allows overriding the run-token generator (for testing).
	// If nil, defaults to UUIDv7RunTokens.
	Tokens harness.RunTokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario against a fresh ledger",
		Long: `Execute a scenario file against a fresh in-memory ledger.

The scenario is schema-validated first, then run step by step. The command
exits 0 when every expectation and assertion holds, 1 when the scenario
fails, and 2 when it cannot be executed at all.

Example:
  slate run scenarios/iou_lifecycle.yaml
  slate run --archive runs.db scenarios/iou_lifecycle.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Archive, "archive", "", "path to SQLite archive to record the run (optional)")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	data, err := os.ReadFile(path)
	if err != nil {
		out.Error(ErrCodeNotFound, fmt.Sprintf("cannot read scenario: %v", err), nil)
		return WrapExitError(ExitCommandError, "read scenario", err)
	}
	if err := schema.ValidateDocument(data); err != nil {
		out.Error(ErrCodeInvalid, fmt.Sprintf("scenario does not validate: %v", err), nil)
		return WrapExitError(ExitCommandError, "validate scenario", err)
	}
	scenario, err := harness.ParseScenario(data)
	if err != nil {
		out.Error(ErrCodeInvalid, fmt.Sprintf("scenario does not load: %v", err), nil)
		return WrapExitError(ExitCommandError, "load scenario", err)
	}

	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

	harnessOpts := []harness.Option{harness.WithLogger(logger)}
	if opts.Tokens != nil {
		harnessOpts = append(harnessOpts, harness.WithRunTokens(opts.Tokens))
	}
	result, err := harness.New(harnessOpts...).Run(scenario)
	if err != nil {
		out.Error(ErrCodeRunFailed, fmt.Sprintf("scenario cannot execute: %v", err), nil)
		return WrapExitError(ExitCommandError, "run scenario", err)
	}

	if opts.Archive != "" {
		if err := archiveRun(scenario.Name, result, opts.Archive); err != nil {
			out.Error(ErrCodeArchive, fmt.Sprintf("archive run: %v", err), nil)
			return WrapExitError(ExitCommandError, "archive run", err)
		}
	}

	if opts.Format == "json" {
		out.Success(map[string]any{
			"scenario":  scenario.Name,
			"run_token": result.RunToken,
			"pass":      result.Pass,
			"trace":     result.Trace,
			"errors":    result.Errors,
		})
	} else {
		printResult(out, scenario.Name, result)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, "scenario failed")
	}
	return nil
}

func printResult(out *OutputFormatter, name string, result *harness.Result) {
	status := "PASS"
	if !result.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(out.Writer, "%s  %s (run %s, %d steps)\n", status, name, result.RunToken, len(result.Trace))
	for _, err := range result.Errors {
		fmt.Fprintf(out.Writer, "  - %s\n", err)
	}
}

// archiveRun records the completed run in the SQLite archive.
func archiveRun(name string, result *harness.Result, path string) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	steps, err := store.StepsFromResult(result)
	if err != nil {
		return err
	}
	events, err := store.EventsFromLedger(result.Ledger)
	if err != nil {
		return err
	}
	run := store.RunRecord{
		Token:     result.RunToken,
		Scenario:  name,
		Pass:      result.Pass,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return st.WriteRun(context.Background(), run, steps, events)
}
