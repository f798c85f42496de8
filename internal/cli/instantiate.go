package cli

import (
	"github.com/spf13/cobra"
)

// InstantiateOptions holds flags for the instantiate command.
type InstantiateOptions struct {
	*RootOptions
	Constructor string
}

// NewInstantiateCommand creates the instantiate command.
func NewInstantiateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstantiateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "instantiate",
		Short: "Run a constructor to initialise storage",
		Long: `Run a constructor against the database.

Storage can be instantiated once; a second run fails with
ALREADY_INSTANTIATED. Messages fail with NOT_INSTANTIATED until it has run.

Examples:
  advcases instantiate --db ./advcases.db
  advcases instantiate --constructor default --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstantiate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Constructor, "constructor", "default", "constructor label")

	return cmd
}

func runInstantiate(opts *InstantiateOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)

	sess, err := opts.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	receipt, err := sess.engine.Instantiate(ctx, sess.caller, opts.Constructor)
	if err != nil {
		return f.EngineError(err)
	}
	return writeReceipt(f, receipt)
}
