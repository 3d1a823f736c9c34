package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/dashsql/internal/cli/output"
	"github.com/leapstack-labs/dashsql/internal/dashboard"
	"github.com/leapstack-labs/dashsql/pkg/core"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command with its subcommands.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the database catalog",
		Long: `Inspect the tables and columns of the connected schema, and the
column roles dashsql resolves for the configured table.`,
		// A failed view is reported by the returned error, not by usage text.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newSchemaTablesCommand())
	cmd.AddCommand(newSchemaColumnsCommand())
	cmd.AddCommand(newSchemaMapCommand())
	return cmd
}

func newSchemaTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the base tables of the connected schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, "tables",
				func(ctx context.Context, svc *dashboard.Service) dashboard.TablesResult {
					return svc.Tables(ctx)
				},
				func(r *output.Renderer, res dashboard.TablesResult) {
					rows := make([][]any, 0, len(res.Tables))
					for _, t := range res.Tables {
						rows = append(rows, []any{t})
					}
					r.Table([]string{"table"}, rows)
				})
		},
	}
}

type columnsOutput struct {
	Table   string                `json:"table" yaml:"table"`
	Columns []core.ColumnMetadata `json:"columns" yaml:"columns"`
}

func newSchemaColumnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns [table]",
		Short: "List the columns of a table",
		Long: `List the columns of a table in physical order. Defaults to the
configured table.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			table := cmdCtx.Cfg.Table
			if len(args) == 1 {
				table = args[0]
			}
			if table == "" {
				return fmt.Errorf("no table given and none configured")
			}

			cols, err := cmdCtx.DB.ListColumns(cmd.Context(), table)
			if err != nil {
				return fmt.Errorf("failed to list columns of %s: %w", table, err)
			}

			r := cmdCtx.Renderer
			if r.Structured() {
				return r.Encode(columnsOutput{Table: table, Columns: cols})
			}
			r.Section(fmt.Sprintf("Columns of %s", table))
			rows := make([][]any, 0, len(cols))
			for i, c := range cols {
				rows = append(rows, []any{i + 1, c.Name, c.Type})
			}
			r.Table([]string{"#", "column", "type"}, rows)
			return nil
		},
	}
}

func newSchemaMapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Show the resolved column roles of the configured table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			m, err := cmdCtx.Service().ColumnMap(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to resolve columns: %w", err)
			}
			return renderColumnMap(cmdCtx.Renderer, m)
		},
	}
}

func renderColumnMap(r *output.Renderer, m core.ColumnMap) error {
	if r.Structured() {
		return r.Encode(m)
	}
	r.Section(fmt.Sprintf("Column roles of %s", m.Table))
	r.Table([]string{"role", "column"}, [][]any{
		{"date", orDash(m.DateCol)},
		{"quantity", orDash(m.QuantityCol)},
		{"pass rate", orDash(m.PassRateCol)},
		{"defect", orDash(m.DefectCol)},
		{"consumption", orDash(m.ConsumptionCol)},
		{"efficiency", orDash(m.EfficiencyCol)},
		{"line", orDash(m.LineCol)},
		{"lot", orDash(m.LotCol)},
		{"result", orDash(m.ResultCol)},
	})
	r.Println("")
	r.Println(output.FormatKeyValue("numeric columns", fmt.Sprint(len(m.NumericCols))))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// viewError turns a failed view into a command error so the exit status
// reflects it.
func viewError(view string, ok bool, msg string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%s view failed: %s", view, msg)
}
