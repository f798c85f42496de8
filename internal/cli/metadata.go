package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/advcases/internal/dispatch"
	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/metadata"
)

// NewMetadataCommand creates the metadata command.
func NewMetadataCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata",
		Short: "Print the ABI description and code hash",
		Long: `Print the contract's ABI description: constructors, messages with
their selectors and types, storage roots and user-defined types. The
description is checked against the dispatch table before it is printed.

Examples:
  advcases metadata
  advcases metadata --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetadata(rootOpts, cmd)
		},
	}
}

// loadMetadata decodes the embedded description and checks it against the
// dispatch table.
func loadMetadata(reg *dispatch.Registry) (*metadata.Metadata, string, error) {
	md, err := metadata.Load()
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to load metadata", err)
	}
	if err := md.Verify(reg); err != nil {
		return nil, "", WrapExitError(ExitCommandError, "metadata disagrees with dispatch", err)
	}
	hash, err := md.Hash()
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to hash metadata", err)
	}
	return md, hash, nil
}

func runMetadata(opts *RootOptions, cmd *cobra.Command) error {
	md, hash, err := loadMetadata(dispatch.NewRegistry())
	if err != nil {
		return err
	}

	out := ir.Object{
		"hash":     ir.String(hash),
		"metadata": md.ToIR(),
	}
	return opts.formatter(cmd).Value(out, func(w io.Writer) {
		writeMetadataText(w, md, hash)
	})
}

func writeMetadataText(w io.Writer, md *metadata.Metadata, hash string) {
	fmt.Fprintf(w, "%s %s\n", md.Name, md.Version)
	fmt.Fprintf(w, "Code hash: %s\n", hash)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Constructors:")
	for _, c := range md.Constructors {
		fmt.Fprintf(w, "  %s %s(%s)\n", c.Selector, c.Label, formatArgs(c.Args))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Messages:")
	for _, m := range md.Messages {
		mut := ""
		if m.Mutates {
			mut = " [mut]"
		}
		fmt.Fprintf(w, "  %s %s(%s) -> %s%s\n", m.Selector, m.Label, formatArgs(m.Args), m.Returns, mut)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Storage:")
	for _, f := range md.Storage {
		if f.Key != "" {
			fmt.Fprintf(w, "  %d %s: %s<%s, %s>\n", f.Root, f.Name, f.Kind, f.Key, f.Value)
		} else {
			fmt.Fprintf(w, "  %d %s: %s<%s>\n", f.Root, f.Name, f.Kind, f.Value)
		}
	}
}

func formatArgs(args []metadata.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + ": " + a.Type
	}
	return strings.Join(parts, ", ")
}
