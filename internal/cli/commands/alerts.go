package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/dashsql/internal/state"
	"github.com/spf13/cobra"
)

// NewAlertsCommand creates the alerts command.
func NewAlertsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect the local alert journal",
		// A failed view is reported by the returned error, not by usage text.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newAlertsHistoryCommand())
	return cmd
}

type historyOutput struct {
	Success bool                `json:"success" yaml:"success"`
	Alerts  []state.AlertRecord `json:"alerts" yaml:"alerts"`
}

func newAlertsHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled alerts, newest first",
		Long: `List the alerts recorded by the alerts view, newest first.

Requires alerts.journal.enabled; the journal is a local SQLite database at
alerts.journal.path.`,
		Example: `  # Last 50 alerts
  dashsql alerts history

  # Last 200 alerts as JSON
  dashsql alerts history --limit 200 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutDB(cmd)
			jc := cmdCtx.Cfg.Alerts.Journal
			if !jc.Enabled {
				return fmt.Errorf("alert journal disabled\nHint: set alerts.journal.enabled: true in dashsql.yaml")
			}

			j, err := openJournal(cmd.Context(), jc)
			if err != nil {
				return fmt.Errorf("failed to open alert journal: %w", err)
			}
			defer func() { _ = j.Close() }()

			records, err := j.History(cmd.Context(), state.ClampLimit(limit))
			if err != nil {
				return fmt.Errorf("failed to read alert journal: %w", err)
			}

			r := cmdCtx.Renderer
			if r.Structured() {
				return r.Encode(historyOutput{Success: true, Alerts: records})
			}
			r.Section(fmt.Sprintf("Alert history (%d)", len(records)))
			rows := make([][]any, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []any{
					rec.ObservedAt.Format(time.DateTime), rec.Severity, rec.Table, rec.Column,
					rec.CurrentValue, rec.Mean, rec.Deviation,
				})
			}
			r.Table([]string{"observed", "severity", "table", "column", "current", "mean", "sigma"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", state.DefaultHistoryLimit, fmt.Sprintf("Records to list (max %d)", state.MaxHistoryLimit))
	return cmd
}
