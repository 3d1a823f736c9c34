package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/leapstack-labs/dashsql/internal/cli/output"
	"github.com/leapstack-labs/dashsql/internal/dashboard"
	"github.com/spf13/cobra"
)

// NewViewCommand creates the view command with one subcommand per
// dashboard view.
func NewViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Compute a dashboard view against the database",
		Long: `Compute one dashboard view against the configured table and print it.

The JSON and YAML output (-o json, -o yaml) is the same document the HTTP
API returns for the view.`,
		Example: `  # Today's summary
  dashsql view summary

  # February 2024 heatmap as JSON
  dashsql view calendar --year 2024 --month 2 -o json

  # Every lot of this week, failing or not
  dashsql view lots --period week --all`,
		// A failed view is reported by the returned error, not by usage text.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newViewSummaryCommand())
	cmd.AddCommand(newViewCalendarCommand())
	cmd.AddCommand(newViewLotsCommand())
	cmd.AddCommand(newViewAlertsCommand())
	cmd.AddCommand(newViewRealtimeCommand())
	cmd.AddCommand(newViewIntervalsCommand())
	cmd.AddCommand(newViewAnalyticsCommand())
	return cmd
}

// runView computes one view and renders it. Structured modes always print
// the result document; a failed view still exits non-zero.
func runView[T dashboard.Outcome](
	cmd *cobra.Command,
	name string,
	compute func(ctx context.Context, svc *dashboard.Service) T,
	render func(r *output.Renderer, res T),
) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res := compute(cmd.Context(), cmdCtx.Service())
	r := cmdCtx.Renderer
	if r.Structured() {
		if err := r.Encode(res); err != nil {
			return err
		}
		return viewError(name, res.OK(), res.Failure())
	}
	if !res.OK() {
		return viewError(name, false, res.Failure())
	}
	render(r, res)
	return nil
}

func newViewSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Today's production, equipment, quality and energy totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, "summary",
				func(ctx context.Context, svc *dashboard.Service) dashboard.SummaryResult {
					return svc.Summary(ctx)
				},
				func(r *output.Renderer, res dashboard.SummaryResult) {
					r.Section("Summary")
					d := res.Data
					r.KeyValues([][2]any{
						{"production today", d.ProductionToday},
						{"equipment rate", d.EquipmentRate},
						{"quality rate", d.QualityRate},
						{"energy today", d.EnergyToday},
					})
				})
		},
	}
}

func newViewCalendarCommand() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Daily production and defect rate for one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, "calendar-month",
				func(ctx context.Context, svc *dashboard.Service) dashboard.CalendarResult {
					return svc.Calendar(ctx, year, month)
				},
				func(r *output.Renderer, res dashboard.CalendarResult) {
					r.Section(fmt.Sprintf("Calendar %04d-%02d (%s)", res.Year, res.Month, res.ProductionUnitEn))
					rows := make([][]any, 0, len(res.Days))
					for _, d := range res.Days {
						rows = append(rows, []any{d.Day, d.Production, d.DefectRate})
					}
					r.Table([]string{"day", "production", "defect rate"}, rows)
				})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (default: current)")
	return cmd
}

func newViewLotsCommand() *cobra.Command {
	var (
		period string
		opts   dashboard.LotOptions
	)
	cmd := &cobra.Command{
		Use:   "lots",
		Short: "Per-lot result and averaged process parameters",
		Long: `Summarize each lot: its pass/fail result, record count, latest date and
averaged process parameters. Without --all only failing lots are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Period = dashboard.ParsePeriod(period)
			return runView(cmd, "lot-status",
				func(ctx context.Context, svc *dashboard.Service) dashboard.LotStatusResult {
					return svc.LotStatus(ctx, opts)
				},
				renderLots)
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "Date window: day, week or month (default: latest lots)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Include passing lots")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Disable the failing-lot filter")
	cmd.Flags().BoolVar(&opts.NoDate, "no-date", false, "Ignore the date column entirely")
	_ = cmd.RegisterFlagCompletionFunc("period", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"day", "week", "month"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func renderLots(r *output.Renderer, res dashboard.LotStatusResult) {
	if res.Message == dashboard.MessageNoLotColumn {
		r.Println("The configured table has no lot column.")
		return
	}
	r.Section(fmt.Sprintf("Lots (%d)", res.TotalLots))

	// Parameter columns vary by table; collect the union in name order.
	seen := make(map[string]bool)
	var params []string
	for _, lot := range res.Lots {
		for name := range lot.Params {
			if !seen[name] {
				seen[name] = true
				params = append(params, name)
			}
		}
	}
	sort.Strings(params)

	header := append([]string{"lot", "result", "records", "latest"}, params...)
	rows := make([][]any, 0, len(res.Lots))
	for _, lot := range res.Lots {
		row := []any{lot.LotID, lot.PassFailResult, lot.RecordCount, lot.LatestDate}
		for _, p := range params {
			if v, ok := lot.Params[p]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}
	r.Table(header, rows)
}

func newViewAlertsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Numeric columns whose latest reading is out of control",
		Long: `Compare each numeric column's newest reading against the mean and
standard deviation of the recent window. Deviations of 2 sigma are warnings,
3 sigma critical. Flagged alerts are journaled when alerts.journal.enabled
is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, "alerts",
				func(ctx context.Context, svc *dashboard.Service) dashboard.AlertsResult {
					return svc.Alerts(ctx)
				},
				func(r *output.Renderer, res dashboard.AlertsResult) {
					r.Section(fmt.Sprintf("Alerts (%d)", len(res.Alerts)))
					rows := make([][]any, 0, len(res.Alerts))
					for _, a := range res.Alerts {
						rows = append(rows, []any{a.Severity, a.Column, a.CurrentValue, a.Mean, a.LowerLimit, a.UpperLimit, a.Deviation})
					}
					r.Table([]string{"severity", "column", "current", "mean", "lower", "upper", "sigma"}, rows)
				})
		},
	}
}

func newViewRealtimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "realtime",
		Short: "Latest value and trend of each numeric column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, "realtime",
				func(ctx context.Context, svc *dashboard.Service) dashboard.RealtimeResult {
					return svc.Realtime(ctx)
				},
				func(r *output.Renderer, res dashboard.RealtimeResult) {
					r.Section("Realtime")
					rows := make([][]any, 0, len(res.Sensors))
					for _, s := range res.Sensors {
						rows = append(rows, []any{s.Name, s.CurrentValue, s.Trend, s.ChangePercent})
					}
					r.Table([]string{"sensor", "value", "trend", "change %"}, rows)
				})
		},
	}
}

func newViewIntervalsCommand() *cobra.Command {
	var (
		params []string
		bins   int
	)
	cmd := &cobra.Command{
		Use:   "intervals",
		Short: "Defect rate across value intervals of process parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, "defect-by-intervals",
				func(ctx context.Context, svc *dashboard.Service) dashboard.IntervalsResult {
					return svc.Intervals(ctx, params, bins)
				},
				renderIntervals)
		},
	}
	cmd.Flags().StringSliceVar(&params, "params", nil, "Parameters to bin (default: first candidate columns)")
	cmd.Flags().IntVar(&bins, "bins", dashboard.DefaultBins, "Bins per parameter (2-10)")
	return cmd
}

func renderIntervals(r *output.Renderer, res dashboard.IntervalsResult) {
	switch res.Error {
	case dashboard.ErrorNoDefectCol:
		r.Println("The configured table has no defect or pass-rate column.")
		return
	case dashboard.ErrorNoParams:
		r.Println("No parameter columns to bin.")
		return
	}
	for _, p := range res.Intervals {
		r.Section(fmt.Sprintf("%s (average defect rate %s)", p.ParamName, output.FormatValue(p.AverageDefectRate)))
		rows := make([][]any, 0, len(p.Bins))
		for _, b := range p.Bins {
			rows = append(rows, []any{b.Label, b.Count, b.DefectRate})
		}
		r.Table([]string{"interval", "count", "defect rate"}, rows)
	}
}

func newViewAnalyticsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Pearson correlation matrix of the numeric columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, "analytics",
				func(ctx context.Context, svc *dashboard.Service) dashboard.AnalyticsResult {
					return svc.Analytics(ctx)
				},
				func(r *output.Renderer, res dashboard.AnalyticsResult) {
					c := res.Correlation
					r.Section("Correlation")
					rows := make([][]any, 0, len(c.Columns))
					for i, name := range c.Columns {
						row := []any{name}
						for _, v := range c.Matrix[i] {
							row = append(row, v)
						}
						rows = append(rows, row)
					}
					r.Table(append([]string{""}, c.Columns...), rows)
				})
		},
	}
}
