package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/slate/internal/harness"
	"github.com/roach88/slate/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario documents without running them",
		Long: `Validate scenario documents against the scenario schema and the
harness's cross-reference checks, without executing anything.

Exits 0 when every document validates, 1 otherwise.

Example:
  slate validate scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateFiles(opts, args, cmd)
		},
	}

	return cmd
}

func validateFiles(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	failures := 0
	results := make([]map[string]any, 0, len(paths))
	for _, path := range paths {
		err := validateOne(path)
		entry := map[string]any{"file": path, "valid": err == nil}
		if err != nil {
			failures++
			entry["error"] = err.Error()
			if opts.Format != "json" {
				fmt.Fprintf(out.Writer, "INVALID  %s\n  %v\n", path, err)
			}
		} else if opts.Format != "json" {
			fmt.Fprintf(out.Writer, "ok       %s\n", path)
		}
		results = append(results, entry)
	}

	if opts.Format == "json" {
		out.Success(map[string]any{"results": results, "failures": failures})
	}

	if failures > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d document(s) failed validation", failures))
	}
	return nil
}

// validateOne runs both validation layers: the CUE schema first for
// structural errors, then the harness loader for cross-references.
func validateOne(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read: %w", err)
	}
	if err := schema.ValidateDocument(data); err != nil {
		return err
	}
	if _, err := harness.ParseScenario(data); err != nil {
		return err
	}
	return nil
}
