package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/advcases/internal/dispatch"
	"github.com/roach88/advcases/internal/engine"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay the call journal and verify it reproduces storage",
		Long: `Re-execute every journaled call, in seq order, against an empty
in-memory store. Each call must reproduce its recorded output and write
count, and the rebuilt state must hash to the same digest as the database.

Exit codes:
  0 - The journal reproduces storage
  1 - Replay diverged (mismatched outputs or digests)
  2 - Command error (database not found, etc.)

Examples:
  advcases replay --db ./advcases.db
  advcases replay --db ./advcases.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd)
		},
	}
}

func runReplay(opts *RootOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := engine.Replay(cmd.Context(), st, dispatch.NewRegistry())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay journal", err)
	}

	f := opts.formatter(cmd)
	if f.Format == "json" {
		return outputReplayJSON(f, result)
	}
	return outputReplayText(f, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(f *OutputFormatter, result *engine.ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.OK() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_REPLAY",
			Message: "journal does not reproduce storage",
		}
	}

	if err := f.encode(response); err != nil {
		return err
	}
	if !result.OK() {
		// Divergence = exit code 1
		return &ExitError{Code: ExitFailure, Message: "journal does not reproduce storage", Reported: true}
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(f *OutputFormatter, result *engine.ReplayResult) error {
	w := f.Writer

	fmt.Fprintf(w, "Replay Summary: %d call(s)\n", result.Calls)
	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "✗ seq %d %s (%s)\n", m.Seq, m.Message, m.CallID)
		fmt.Fprintf(w, "  %s\n", m.Reason)
	}

	fmt.Fprintf(w, "State digest:  %s\n", result.StateDigest)
	fmt.Fprintf(w, "Stored digest: %s\n", result.StoredDigest)
	if f.Verbose {
		fmt.Fprintf(w, "Mismatches: %d\n", len(result.Mismatches))
	}

	if result.OK() {
		fmt.Fprintln(w, "✓ Journal reproduces storage")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay diverged")
	// Divergence = exit code 1
	return &ExitError{Code: ExitFailure, Message: "journal does not reproduce storage", Reported: true}
}
