package dashboard

import (
	"context"
	"math"

	"github.com/leapstack-labs/dashsql/pkg/core"
	"github.com/leapstack-labs/dashsql/pkg/ident"
)

func emptyCorrelation() core.Correlation {
	return core.Correlation{Columns: []string{}, Matrix: [][]float64{}}
}

// Analytics returns the Pearson correlation matrix of the numeric columns
// over a sample of rows.
func (s *Service) Analytics(ctx context.Context) AnalyticsResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, err := s.ColumnMap(ctx)
	if err != nil {
		return AnalyticsResult{Error: s.logFailure("analytics", err), Correlation: emptyCorrelation()}
	}
	numeric := ident.FilterSafe(m.NumericCols)
	if len(numeric) > AnalyticsColumnLimit {
		numeric = numeric[:AnalyticsColumnLimit]
	}
	if len(numeric) < 2 {
		return AnalyticsResult{Success: true, Correlation: emptyCorrelation()}
	}

	rows, err := s.fetch(ctx, SampleQuery(m, numeric, AnalyticsRowLimit))
	if err != nil {
		return AnalyticsResult{Error: s.logFailure("analytics", err), Correlation: emptyCorrelation()}
	}
	return AnalyticsResult{Success: true, Correlation: Correlate(numeric, rows)}
}

// Correlate computes pairwise Pearson coefficients over rows where both
// values are present. Zero variance pairs get 0; the diagonal is 1.
func Correlate(columns []string, rows []map[string]any) core.Correlation {
	n := len(columns)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := pearson(columns[i], columns[j], rows)
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return core.Correlation{Columns: columns, Matrix: matrix}
}

func pearson(a, b string, rows []map[string]any) float64 {
	var xs, ys []float64
	for _, row := range rows {
		x, okx := toFloat(row[a])
		y, oky := toFloat(row[b])
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(len(xs))
	my /= float64(len(ys))

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
