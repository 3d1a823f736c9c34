package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/dashsql/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		Long: `Start the HTTP server that exposes the dashboard views under /api/dashboard.

The server resolves the configured table's columns on demand, so a schema
change takes effect on the next request (or after cache.ttl when the
Column Map cache is enabled). It shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  # Serve on the default port (4000)
  dashsql serve

  # Serve a different table on port 8080
  dashsql serve --table coating --port 8080`,
		RunE: runServe,
	}

	cmd.Flags().Int("port", server.DefaultPort, "Port to listen on")
	cmd.Flags().String("addr", "", "Address to bind (default: all interfaces)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := buildServer(cmdCtx)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// buildServer wires the dashboard service, journal and authenticator into
// an HTTP server.
func buildServer(c *CommandContext) *server.Server {
	cfg := c.Cfg

	var auth server.Authenticator = server.AllowAll{}
	if cfg.Auth.Secret != "" {
		auth = server.NewJWTAuthenticator(cfg.Auth.Secret, cfg.Auth.Issuer)
	} else {
		c.Logger.Warn("auth.secret is empty; dashboard API is unauthenticated")
	}

	var history server.AlertHistory
	if c.Journal != nil {
		history = c.Journal
	}

	c.Logger.Debug("serving table",
		slog.String("table", cfg.Table),
		slog.String("timezone", cfg.Timezone),
		slog.Bool("cache", cfg.Cache.Enabled),
		slog.Bool("journal", c.Journal != nil),
	)

	return server.NewServer(server.Config{
		Views:             c.Service(),
		History:           history,
		Pinger:            c.DB,
		Auth:              auth,
		Addr:              cfg.Server.Addr,
		Port:              cfg.Server.Port,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		Logger:            c.Logger,
	})
}
