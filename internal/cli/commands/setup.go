// Package commands implements the dashsql subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dashsql/internal/cli/config"
	"github.com/leapstack-labs/dashsql/internal/cli/output"
	"github.com/leapstack-labs/dashsql/internal/dashboard"
	"github.com/leapstack-labs/dashsql/internal/daterange"
	"github.com/leapstack-labs/dashsql/internal/resolver"
	"github.com/leapstack-labs/dashsql/internal/state"
	"github.com/leapstack-labs/dashsql/pkg/adapter"
	"github.com/leapstack-labs/dashsql/pkg/core"
	"github.com/spf13/cobra"

	// Register the MySQL adapter.
	_ "github.com/leapstack-labs/dashsql/pkg/adapters/mysql"
)

// Opener connects the configured database.
type Opener func(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (adapter.Adapter, error)

// JournalOpener opens the configured alert journal.
type JournalOpener func(ctx context.Context, cfg config.JournalConfig) (state.Journal, error)

var (
	openAdapter Opener        = adapter.Open
	openJournal JournalOpener = func(ctx context.Context, cfg config.JournalConfig) (state.Journal, error) {
		j, err := state.OpenJournal(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		j.SetDedupWindow(cfg.DedupWindow)
		return j, nil
	}
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	DB       adapter.Adapter
	// Journal is nil unless alerts.journal.enabled is set.
	Journal state.Journal
}

// NewCommandContext creates a CommandContext with an open database and,
// when enabled, the alert journal.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	c := NewCommandContextWithoutDB(cmd)
	ctx := cmd.Context()

	db, err := openAdapter(ctx, c.Cfg.AdapterConfig(), c.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if c.Cfg.Alerts.Journal.Enabled {
		j, err := openJournal(ctx, c.Cfg.Alerts.Journal)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to open alert journal: %w", err)
		}
		c.Journal = j
	}

	cleanup := func() {
		if c.Journal != nil {
			_ = c.Journal.Close()
		}
		if err := c.DB.Close(); err != nil {
			c.Logger.Debug("failed to close database", slog.String("error", err.Error()))
		}
	}
	return c, cleanup, nil
}

// NewCommandContextWithoutDB creates a CommandContext without a database.
// Useful for commands that only read local state.
func NewCommandContextWithoutDB(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Service builds the dashboard service for the configured table.
func (c *CommandContext) Service() *dashboard.Service {
	var res resolver.ColumnResolver = resolver.New(c.DB, c.Logger)
	if c.Cfg.Cache.Enabled {
		res = resolver.NewCache(res, c.Cfg.Cache.TTL).WithLoadTimeout(c.Cfg.QueryTimeout)
	}
	var journal dashboard.AlertRecorder
	if c.Journal != nil {
		journal = c.Journal
	}
	return dashboard.NewService(dashboard.Config{
		DB:           c.DB,
		Table:        c.Cfg.Table,
		Resolver:     res,
		Dates:        daterange.New(c.Cfg.Timezone, c.Logger),
		Journal:      journal,
		QueryTimeout: c.Cfg.QueryTimeout,
		Logger:       c.Logger,
	})
}

// getConfig returns the loaded configuration, or the defaults when the
// command runs outside the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults()
}
