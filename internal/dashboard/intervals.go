package dashboard

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dashsql/pkg/core"
	"github.com/leapstack-labs/dashsql/pkg/ident"
)

// Bin count bounds for the intervals view.
const (
	MinBins     = 2
	MaxBins     = 10
	DefaultBins = 5
)

var (
	nonParamName  = regexp.MustCompile(`(?i)pass|rate|quality|defect|result|lot|date|id`)
	percentSignal = regexp.MustCompile(`(?i)rate|percent|pct|ratio`)
)

// ClampBins parses a requested bin count. Empty or invalid input yields
// DefaultBins; numbers are clamped to [MinBins, MaxBins].
func ClampBins(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return DefaultBins
	}
	return max(MinBins, min(MaxBins, n))
}

// ParseParams splits a comma separated parameter list, dropping blanks.
func ParseParams(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IntervalDefectColumn returns the defect signal column, or "".
func IntervalDefectColumn(m core.ColumnMap) string {
	if m.DefectCol != "" {
		return m.DefectCol
	}
	return m.PassRateCol
}

// IntervalParams chooses which numeric columns to bin. Requested names are
// kept only if they are numeric columns; otherwise the first
// IntervalParamDefault numeric columns that are not role-bound and do not
// look like a rate, flag or identifier are used.
func IntervalParams(m core.ColumnMap, requested []string) []string {
	numeric := map[string]bool{}
	for _, c := range m.NumericCols {
		numeric[c] = true
	}
	if len(requested) > 0 {
		var out []string
		for _, p := range requested {
			if numeric[p] && ident.IsSafeName(p) {
				out = append(out, p)
			}
		}
		return out
	}

	skip := map[string]bool{}
	for _, c := range []string{m.DateCol, m.LotCol, IntervalDefectColumn(m), m.ResultCol, m.PassRateCol, m.QuantityCol} {
		if c != "" {
			skip[strings.ToLower(c)] = true
		}
	}
	var out []string
	for _, c := range m.NumericCols {
		if skip[strings.ToLower(c)] || nonParamName.MatchString(c) || !ident.IsSafeName(c) {
			continue
		}
		out = append(out, c)
		if len(out) == IntervalParamDefault {
			break
		}
	}
	return out
}

// Point pairs a parameter value with its defect signal.
type Point struct {
	X, Y float64
}

// BinIntervals splits points into bins equal-count buckets ordered by X.
// The last bucket takes the remainder. Fewer points than bins yields no
// buckets and a zero average.
func BinIntervals(paramName string, points []Point, bins int) core.ParamIntervals {
	out := core.ParamIntervals{ParamName: paramName, Bins: []core.IntervalBin{}}
	if bins <= 0 || len(points) < bins {
		return out
	}

	sorted := append([]Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	out.AverageDefectRate = meanY(sorted)
	size := len(sorted) / bins
	for i := 0; i < bins; i++ {
		start := i * size
		end := start + size
		if i == bins-1 {
			end = len(sorted)
		}
		slice := sorted[start:end]
		lo, hi := slice[0].X, slice[len(slice)-1].X
		out.Bins = append(out.Bins, core.IntervalBin{
			Label:      fmt.Sprintf("%.4f - %.4f", lo, hi),
			Min:        lo,
			Max:        hi,
			DefectRate: meanY(slice),
			Count:      len(slice),
		})
	}
	return out
}

func meanY(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Y
	}
	return sum / float64(len(points))
}

// Intervals reports the defect rate across value intervals of each
// parameter. requested may be empty to use the default parameters.
func (s *Service) Intervals(ctx context.Context, requested []string, bins int) IntervalsResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if bins == 0 {
		bins = DefaultBins
	}
	bins = max(MinBins, min(MaxBins, bins))

	m, err := s.ColumnMap(ctx)
	if err != nil {
		return IntervalsResult{Error: s.logFailure("defect-by-intervals", err), Intervals: []core.ParamIntervals{}}
	}
	defectCol := IntervalDefectColumn(m)
	if defectCol == "" {
		return IntervalsResult{Success: true, Error: ErrorNoDefectCol, Intervals: []core.ParamIntervals{}}
	}
	params := IntervalParams(m, requested)
	if len(params) == 0 {
		return IntervalsResult{Success: true, Error: ErrorNoParams, DefectCol: defectCol, Intervals: []core.ParamIntervals{}}
	}

	rows, err := s.fetch(ctx, IntervalsQuery(m, params, defectCol, m.ResultCol))
	if err != nil {
		return IntervalsResult{Error: s.logFailure("defect-by-intervals", err), Intervals: []core.ParamIntervals{}}
	}

	scale := percentSignal.MatchString(defectCol)
	intervals := make([]core.ParamIntervals, 0, len(params))
	for _, p := range params {
		points := make([]Point, 0, len(rows))
		for _, row := range rows {
			x, okx := toFloat(row[p])
			y, oky := toFloat(row[defectCol])
			if !okx || !oky {
				continue
			}
			if scale && y > 1 {
				y /= 100
			}
			points = append(points, Point{X: x, Y: y})
		}
		intervals = append(intervals, BinIntervals(p, points, bins))
	}
	return IntervalsResult{Success: true, DefectCol: defectCol, Intervals: intervals}
}
