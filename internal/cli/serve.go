package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/advcases/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the call surface over HTTP",
		Long: `Start the engine and expose it over HTTP until interrupted.

Routes:
  GET  /healthz
  GET  /v1/metadata
  GET  /v1/state
  POST /v1/instantiate
  POST /v1/query/:message
  POST /v1/tx/:message
  POST /v1/call

Examples:
  advcases serve --db ./advcases.db
  advcases serve --listen 0.0.0.0:8545 --as bob`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	addr := opts.Config.Listen
	if opts.Listen != "" {
		addr = opts.Listen
	}
	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := opts.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	md, hash, err := loadMetadata(sess.engine.Registry())
	if err != nil {
		return err
	}
	slog.Info("serving contract", "name", md.Name, "code_hash", hash, "caller", sess.caller.String())

	srv := server.New(sess.engine, md, sess.caller)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
