package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slate/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Archive string
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-token]",
		Short: "Inspect archived runs",
		Long: `Inspect runs recorded with 'slate run --archive'.

Without a run token, lists all archived runs. With one, prints the run's
step trace and committed events.

Example:
  slate trace --archive runs.db
  slate trace --archive runs.db 0190cafe-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			}
			return showTrace(opts, token, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Archive, "archive", "", "path to SQLite archive (required)")
	_ = cmd.MarkFlagRequired("archive")

	return cmd
}

func showTrace(opts *TraceOptions, token string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Archive)
	if err != nil {
		out.Error(ErrCodeNotFound, fmt.Sprintf("cannot open archive: %v", err), nil)
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer st.Close()

	ctx := context.Background()
	if token == "" {
		return listRuns(st, out, ctx)
	}
	return showRun(st, out, ctx, token)
}

func listRuns(st *store.Store, out *OutputFormatter, ctx context.Context) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		out.Error(ErrCodeArchive, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	if out.Format == "json" {
		return out.Success(map[string]any{"runs": runs})
	}
	if len(runs) == 0 {
		fmt.Fprintln(out.Writer, "no archived runs")
		return nil
	}
	for _, run := range runs {
		status := "PASS"
		if !run.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(out.Writer, "%s  %s  %s  %s\n", run.Token, status, run.Scenario, run.StartedAt)
	}
	return nil
}

func showRun(st *store.Store, out *OutputFormatter, ctx context.Context, token string) error {
	run, err := st.ReadRun(ctx, token)
	if err != nil {
		out.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read run", err)
	}

	if out.Format == "json" {
		return out.Success(run)
	}

	status := "PASS"
	if !run.Run.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(out.Writer, "run %s  %s  %s (%s)\n", run.Run.Token, status, run.Run.Scenario, run.Run.StartedAt)
	fmt.Fprintln(out.Writer, "steps:")
	for _, step := range run.Steps {
		fmt.Fprintf(out.Writer, "  [%d] %-16s %s\n", step.Seq, step.Kind, step.Payload)
	}
	fmt.Fprintln(out.Writer, "events:")
	for _, ev := range run.Events {
		consumed := ""
		if ev.Consumed {
			consumed = "  (consumed)"
		}
		fmt.Fprintf(out.Writer, "  %-8s %-14s %-12s witnesses=%s%s\n",
			ev.EventID, ev.Kind, ev.Template, store.FormatWitnesses(ev.Witnesses), consumed)
	}
	return nil
}
