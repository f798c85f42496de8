package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/advcases/internal/engine"
	"github.com/roach88/advcases/internal/ir"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Args string // JSON object of named arguments
	Data string // raw call data in hex, instead of a message and args
	Tx   bool   // commit instead of dry run
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call [message]",
		Short: "Call a message as a query or transaction",
		Long: `Call a contract message.

By default the call is a dry-run query: its writes are discarded and it is
not journaled. With --tx the writes are committed together with a journal
row. The message is a label or 0x selector; arguments are a JSON object
keyed by argument name. --data sends raw call data (selector followed by
SCALE arguments) instead.

Exit codes:
  0 - The call succeeded
  1 - The contract refused the call (unknown message, bad input, ...)
  2 - Command error (bad flags, database not found, etc.)

Examples:
  advcases call get_integers
  advcases call get_user --args '{"idx": 0}'
  advcases call add --tx --args '{"user": {"active": true, "name": "Alice", "role": "User", "age": 30, "salary": 50000, "favorite_numbers": [7, 42]}}'
  advcases call --data 0xa4ca534e00000000 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := ""
			if len(args) == 1 {
				message = args[0]
			}
			return runCall(opts, message, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Args, "args", "{}", "message arguments as a JSON object")
	cmd.Flags().StringVar(&opts.Data, "data", "", "raw call data in hex (selector then SCALE arguments)")
	cmd.Flags().BoolVar(&opts.Tx, "tx", false, "commit the call as a transaction")

	return cmd
}

func runCall(opts *CallOptions, message string, cmd *cobra.Command) error {
	if (message == "") == (opts.Data == "") {
		return NewExitError(ExitCommandError, "give either a message or --data")
	}
	if opts.Data != "" && cmd.Flags().Changed("args") {
		return NewExitError(ExitCommandError, "--args cannot be combined with --data")
	}

	ctx := cmd.Context()
	f := opts.formatter(cmd)

	sess, err := opts.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var receipt *engine.Receipt
	if opts.Data != "" {
		data, err := engine.ParseHex(opts.Data)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --data", err)
		}
		f.VerboseLog("sending %d bytes of call data", len(data))
		receipt, err = sess.engine.CallData(ctx, sess.caller, data, opts.Tx)
		if err != nil {
			return f.EngineError(err)
		}
	} else {
		var args ir.Object
		if err := json.Unmarshal([]byte(opts.Args), &args); err != nil {
			return WrapExitError(ExitCommandError, "invalid --args", err)
		}
		m, err := sess.engine.Registry().Lookup(message)
		if err != nil {
			return f.EngineError(err)
		}
		input, err := m.EncodeArgs(args)
		if err != nil {
			return f.EngineError(err)
		}
		f.VerboseLog("calling %s %s with input %s", m.Label, m.Selector, engine.Hex(input))

		if opts.Tx {
			receipt, err = sess.engine.Transact(ctx, sess.caller, message, input)
		} else {
			receipt, err = sess.engine.Query(ctx, sess.caller, message, input)
		}
		if err != nil {
			return f.EngineError(err)
		}
	}

	return writeReceipt(f, receipt)
}

// writeReceipt outputs a receipt: the full object as JSON, or a short
// summary as text.
func writeReceipt(f *OutputFormatter, r *engine.Receipt) error {
	obj, err := r.ToIR()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode output", err)
	}
	return f.Value(obj, func(w io.Writer) {
		call := r.Call
		fmt.Fprintf(w, "✓ %s %s (%s)\n", call.Kind, call.Message, call.Selector)
		if call.ID != "" {
			fmt.Fprintf(w, "  id:     %s\n", call.ID)
		}
		fmt.Fprintf(w, "  seq:    %d\n", call.Seq)
		fmt.Fprintf(w, "  writes: %d\n", call.Writes)
		fmt.Fprintf(w, "  output: %s\n", engine.Hex(call.Output))
		if value, err := ir.Marshal(obj["value"]); err == nil {
			fmt.Fprintf(w, "  value:  %s\n", value)
		}
	})
}
