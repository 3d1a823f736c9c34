package dashboard

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dashsql/pkg/core"
	"github.com/leapstack-labs/dashsql/pkg/ident"
)

// Query is SQL text plus its bound values. Identifiers in SQL are always
// escaped; values only ever travel in Args.
type Query struct {
	SQL  string
	Args []any
}

// Limits applied by the views.
const (
	AlertColumnLimit     = 20
	AlertSampleLimit     = 100
	AlertResultLimit     = 20
	RealtimeColumnLimit  = 15
	LotDefaultLimit      = 30
	IntervalRowLimit     = 5000
	IntervalParamDefault = 6
	AnalyticsColumnLimit = 30
	AnalyticsRowLimit    = 1000
)

// Aggregate is a summary metric aggregation.
type Aggregate string

// Aggregates used by the summary view.
const (
	AggSum Aggregate = "SUM"
	AggAvg Aggregate = "AVG"
)

// SummaryMetricQuery aggregates one column over rows dated today. Sums are
// coalesced to zero; averages stay NULL when no rows match.
func SummaryMetricQuery(m core.ColumnMap, col string, agg Aggregate, today string) Query {
	expr := fmt.Sprintf("AVG(%s)", ident.Escape(col))
	if agg == AggSum {
		expr = fmt.Sprintf("COALESCE(SUM(%s), 0)", ident.Escape(col))
	}
	return Query{
		SQL: fmt.Sprintf("SELECT %s AS total FROM %s WHERE DATE(%s) = ?",
			expr, ident.Escape(m.Table), ident.Escape(m.DateCol)),
		Args: []any{today},
	}
}

// DefectRateExpr picks the per-day defect expression from the bound roles,
// in priority order result, defect, pass rate.
func DefectRateExpr(m core.ColumnMap) string {
	switch {
	case m.ResultCol != "":
		return fmt.Sprintf("AVG(COALESCE(CAST(%s AS DECIMAL(10,4)), 0)) * 100", ident.Escape(m.ResultCol))
	case m.DefectCol != "":
		return fmt.Sprintf("AVG(COALESCE(%s, 0))", ident.Escape(m.DefectCol))
	case m.PassRateCol != "":
		return fmt.Sprintf("100 - AVG(COALESCE(%s, 100))", ident.Escape(m.PassRateCol))
	default:
		return "0"
	}
}

// CalendarQuery groups one month, starting at monthStart, by day of month.
// It requires a bound date column.
func CalendarQuery(m core.ColumnMap, monthStart string) Query {
	production := "COUNT(*)"
	if m.QuantityCol != "" {
		production = fmt.Sprintf("COALESCE(SUM(%s), 0)", ident.Escape(m.QuantityCol))
	}
	d := ident.Escape(m.DateCol)
	return Query{
		SQL: fmt.Sprintf(
			"SELECT DAY(%s) AS day_of_month, %s AS production, %s AS defect_rate FROM %s"+
				" WHERE %s >= ? AND %s < DATE_ADD(?, INTERVAL 1 MONTH)"+
				" GROUP BY DAY(%s) ORDER BY day_of_month",
			d, production, DefectRateExpr(m), ident.Escape(m.Table), d, d, d),
		Args: []any{monthStart, monthStart},
	}
}

// Period selects the lot-status date window.
type Period string

// Lot-status periods.
const (
	PeriodNone  Period = ""
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a request value onto a Period. Unknown values mean none.
func ParsePeriod(s string) Period {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p
	default:
		return PeriodNone
	}
}

// LotOptions are the lot-status request flags.
type LotOptions struct {
	Period Period
	// Debug and All both disable the failing-lot filter.
	Debug bool
	All   bool
	// NoDate bypasses date filtering entirely.
	NoDate bool
}

// ParamColumn is a per-lot averaged parameter and the alias it is selected as.
type ParamColumn struct {
	Name    string
	Alias   string
	Numeric bool
}

// knownParams is the manufacturing-parameter vocabulary used to admit
// non-numeric columns as lot parameters.
var knownParams = []string{
	"process_time", "process time", "ProcessTime", "processing_time",
	"humidity", "tank_pressure", "lithium_input", "additive_ratio",
}

// normalizeKey lowercases name and turns spaces into underscores.
func normalizeKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func matchesKnownParam(name string) bool {
	norm := normalizeKey(name)
	for _, k := range knownParams {
		lk := strings.ToLower(k)
		if norm == normalizeKey(k) || strings.Contains(norm, lk) || strings.Contains(lk, norm) {
			return true
		}
	}
	return false
}

// LotResultColumn returns the column holding the per-row pass/fail flag:
// the result role, else a defect column that is not a rate.
func LotResultColumn(m core.ColumnMap) string {
	if m.ResultCol != "" {
		return m.ResultCol
	}
	if m.DefectCol != "" && !strings.Contains(strings.ToLower(m.DefectCol), "rate") {
		return m.DefectCol
	}
	return ""
}

// LotParamColumns chooses the columns averaged per lot: numeric columns not
// used as lot, date or result, then non-numeric columns matching the known
// parameter vocabulary. Names failing ident.IsSafeName and duplicate aliases
// are dropped.
func LotParamColumns(m core.ColumnMap, columns []core.ColumnMetadata) []ParamColumn {
	exclude := map[string]bool{}
	for _, c := range []string{m.LotCol, m.DateCol, LotResultColumn(m)} {
		if c != "" {
			exclude[c] = true
		}
	}

	numeric := map[string]bool{}
	var out []ParamColumn
	seen := map[string]bool{}
	add := func(name string, isNumeric bool) {
		if !ident.IsSafeName(name) {
			return
		}
		alias := "param_" + ident.Alias(name)
		if seen[alias] {
			return
		}
		seen[alias] = true
		out = append(out, ParamColumn{Name: name, Alias: alias, Numeric: isNumeric})
	}

	for _, name := range m.NumericCols {
		numeric[name] = true
		if !exclude[name] {
			add(name, true)
		}
	}
	for _, c := range columns {
		if exclude[c.Name] || numeric[c.Name] {
			continue
		}
		if matchesKnownParam(c.Name) {
			add(c.Name, false)
		}
	}
	return out
}

// LotStatusQuery groups rows by lot. It requires a bound lot column.
func LotStatusQuery(m core.ColumnMap, params []ParamColumn, opts LotOptions, dates core.DateRangeSet) Query {
	lot := ident.Escape(m.LotCol)
	resultCol := LotResultColumn(m)

	selects := []string{
		lot + " AS lot_id",
		"COUNT(*) AS record_count",
	}
	if m.DateCol != "" {
		selects = append(selects, fmt.Sprintf("MAX(%s) AS latest_date", ident.Escape(m.DateCol)))
	}
	switch {
	case resultCol != "" && m.DateCol != "":
		selects = append(selects, fmt.Sprintf(
			"SUBSTRING_INDEX(GROUP_CONCAT(CAST(%s AS CHAR) ORDER BY %s DESC), ',', 1) AS latest_result",
			ident.Escape(resultCol), ident.Escape(m.DateCol)))
	case resultCol != "":
		selects = append(selects, fmt.Sprintf("MAX(%s) AS latest_result", ident.Escape(resultCol)))
	}
	for _, p := range params {
		expr := ident.Escape(p.Name)
		if !p.Numeric {
			expr = fmt.Sprintf("CAST(%s AS DECIMAL(20,6))", expr)
		}
		selects = append(selects, fmt.Sprintf("AVG(%s) AS %s", expr, ident.Escape(p.Alias)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(selects, ", "), ident.Escape(m.Table))

	var args []any
	if m.DateCol != "" && !opts.NoDate {
		d := ident.Escape(m.DateCol)
		switch opts.Period {
		case PeriodDay:
			fmt.Fprintf(&b, " WHERE DATE(%s) = ?", d)
			args = append(args, dates.Today)
		case PeriodWeek:
			fmt.Fprintf(&b, " WHERE DATE(%s) >= ? AND DATE(%s) <= ?", d, d)
			args = append(args, dates.WeekStart, dates.WeekEnd)
		case PeriodMonth:
			fmt.Fprintf(&b, " WHERE DATE(%s) >= ? AND DATE(%s) <= ?", d, d)
			args = append(args, dates.FirstOfMonth, dates.LastOfMonth)
		default:
			fmt.Fprintf(&b, " WHERE %s >= DATE_SUB(NOW(), INTERVAL 365 DAY)", d)
		}
	}

	fmt.Fprintf(&b, " GROUP BY %s", lot)
	if resultCol != "" && !opts.Debug && !opts.All {
		b.WriteString(" HAVING (CONVERT(latest_result, SIGNED) = 1 OR TRIM(CONVERT(latest_result, CHAR)) = '1')")
	}
	b.WriteString(" ORDER BY CAST(lot_id AS UNSIGNED) ASC, lot_id ASC")
	if opts.Period == PeriodNone {
		fmt.Fprintf(&b, " LIMIT %d", LotDefaultLimit)
	}
	return Query{SQL: b.String(), Args: args}
}

// LatestRowsQuery selects cols from the newest limit rows by date.
// If withTimestamp is set the date column is also selected as ts.
func LatestRowsQuery(m core.ColumnMap, cols []string, limit int, withTimestamp bool) Query {
	list := ident.EscapeList(cols)
	if withTimestamp {
		list += fmt.Sprintf(", %s AS ts", ident.Escape(m.DateCol))
	}
	return Query{
		SQL: fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC LIMIT %d",
			list, ident.Escape(m.Table), ident.Escape(m.DateCol), limit),
	}
}

// IntervalsQuery pulls parameter and defect values for interval binning.
func IntervalsQuery(m core.ColumnMap, params []string, defectCol, resultCol string) Query {
	cols := make([]string, 0, len(params)+2)
	seen := map[string]bool{}
	for _, c := range append(append([]string{}, params...), defectCol) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	if resultCol != "" && !seen[resultCol] {
		cols = append(cols, resultCol)
	}
	return Query{
		SQL: fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL LIMIT %d",
			ident.EscapeList(cols), ident.Escape(m.Table), ident.Escape(defectCol), IntervalRowLimit),
	}
}

// SampleQuery selects cols from up to limit rows in storage order.
func SampleQuery(m core.ColumnMap, cols []string, limit int) Query {
	return Query{
		SQL: fmt.Sprintf("SELECT %s FROM %s LIMIT %d", ident.EscapeList(cols), ident.Escape(m.Table), limit),
	}
}
