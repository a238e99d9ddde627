package cli

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yravipati/countydata/internal/api"
	"github.com/yravipati/countydata/internal/lookup"
	"github.com/yravipati/countydata/internal/middleware"
	"github.com/yravipati/countydata/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve county health lookups over HTTP",
		Long: `Serve the lookup API from a database produced by "countydata load".

The database is opened read-only. Loads into the same file while the server
runs become visible to new requests once committed.

Routes:
  GET  /             usage hint
  GET  /healthz      store health
  POST /county_data  {"zip": "02138", "measure_name": "Adult obesity"}

The server stops gracefully on SIGINT or SIGTERM.

Example:
  countydata serve --db data.db --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides LISTEN_ADDR)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	logger := opts.Logger

	addr := cfg.ListenAddr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	logger.Info("opening database", "path", cfg.DBPath)
	st, err := store.OpenReadOnly(cfg.DBPath)
	if err != nil {
		if errors.Is(err, store.ErrDatabaseNotFound) {
			return WrapExitError(ExitCommandError, "database not found", err)
		}
		return WrapExitError(ExitFailure, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	svc := lookup.New(st.DB(), lookup.WithLogger(logger))
	router := api.NewRouter(svc, api.Options{
		Logger: logger,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to listen on %s", addr), err)
	}

	// Setup signal handling for graceful shutdown.
	// The command's context is cancelled by tests.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("server starting", "addr", ln.Addr().String(), "db", cfg.DBPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())

	if err := api.Serve(ctx, api.NewServer(router), ln, cfg.ShutdownTimeout); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
