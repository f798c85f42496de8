package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/advcases/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Database   string
	Driver     string
	Format     string // "json" | "text"
	Verbose    bool
	Caller     string

	// Config is the merged configuration, resolved before any command runs.
	Config config.Config
}

// NewRootCommand creates the root command for the advcases CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "advcases",
		Short: "advcases - a host for the advanced-cases record store",
		Long: `Host the advanced-cases record store contract.

Instantiate storage, call messages as dry-run queries or committed
transactions, inspect state and the ABI metadata, serve the call surface
over HTTP, replay the call journal and run conformance scenarios.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Format = cfg.Format
			setupLogging(cmd, cfg)
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	pf.StringVar(&opts.Database, "db", defaults.Database, "path to SQLite database")
	pf.StringVar(&opts.Driver, "driver", defaults.Driver, "SQLite driver (sqlite3|sqlite)")
	pf.StringVar(&opts.Format, "format", defaults.Format, "output format (json|text)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Caller, "as", defaults.Caller, "calling account: dev name or 0x account id")

	// Add subcommands
	cmd.AddCommand(NewInstantiateCommand(opts))
	cmd.AddCommand(NewCallCommand(opts))
	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewMetadataCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolveConfig layers the config file over the defaults, then the flags
// given on the command line over both.
func resolveConfig(cmd *cobra.Command, opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = opts.Database
	}
	if flags.Changed("driver") {
		cfg.Driver = opts.Driver
	}
	if flags.Changed("format") {
		cfg.Format = opts.Format
	}
	if flags.Changed("as") {
		cfg.Caller = opts.Caller
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// setupLogging sends structured logs to stderr so stdout stays parseable.
func setupLogging(cmd *cobra.Command, cfg config.Config) {
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.Level(),
	})
	slog.SetDefault(slog.New(handler))
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Config.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
