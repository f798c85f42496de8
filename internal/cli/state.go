package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/advcases/internal/contract"
	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/storage"
)

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show committed storage",
		Long: `Decode the committed storage cells and print them with the state
digest, a SHA-256 over the canonical JSON of every cell.

Examples:
  advcases state --db ./advcases.db
  advcases state --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(rootOpts, cmd)
		},
	}
}

func runState(opts *RootOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cells, err := st.Cells(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read storage", err)
	}
	state, err := contract.Snapshot(cells)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode storage", err)
	}
	digest := storage.StateDigest(cells)

	out := ir.Object{
		"digest": ir.String(digest),
		"state":  state.ToIR(),
	}
	return opts.formatter(cmd).Value(out, func(w io.Writer) {
		writeStateText(w, state, digest)
	})
}

func writeStateText(w io.Writer, state contract.State, digest string) {
	if !state.Instantiated {
		fmt.Fprintln(w, "Storage is not instantiated.")
		fmt.Fprintf(w, "Digest: %s\n", digest)
		return
	}

	fmt.Fprintf(w, "Users: %d\n", state.UsersNum)
	for _, su := range state.Users {
		data, err := ir.Marshal(su.User.ToIR())
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  [%d] %s\n", su.ID, data)
	}
	if len(state.Accounts) > 0 {
		fmt.Fprintln(w, "Accounts:")
		for _, a := range state.Accounts {
			fmt.Fprintf(w, "  %s = %d\n", a.Account, a.Value)
		}
	}
	fmt.Fprintf(w, "Digest: %s\n", digest)
}
