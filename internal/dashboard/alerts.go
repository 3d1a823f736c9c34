package dashboard

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/leapstack-labs/dashsql/internal/anomaly"
	"github.com/leapstack-labs/dashsql/pkg/core"
)

// Alerts flags numeric columns whose newest reading deviates from the
// recent window. Critical alerts sort first, then by |deviation|.
func (s *Service) Alerts(ctx context.Context) AlertsResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, err := s.ColumnMap(ctx)
	if err != nil {
		return AlertsResult{Error: s.logFailure("alerts", err), Alerts: []core.Alert{}}
	}
	numeric := m.FirstNumeric(AlertColumnLimit)
	if !m.HasDate() || len(numeric) == 0 {
		return AlertsResult{Success: true, Alerts: []core.Alert{}}
	}

	rows, err := s.fetch(ctx, LatestRowsQuery(m, numeric, AlertSampleLimit, false))
	if err != nil {
		return AlertsResult{Error: s.logFailure("alerts", err), Alerts: []core.Alert{}}
	}

	alerts := DetectAlerts(numeric, rows)
	if len(alerts) > 0 && s.journal != nil {
		if err := s.journal.Record(ctx, m.Table, alerts, s.dates.Now()); err != nil {
			s.logger.Warn("failed to record alerts",
				slog.String("table", m.Table),
				slog.String("error", err.Error()),
			)
		}
	}
	return AlertsResult{Success: true, Alerts: alerts}
}

// DetectAlerts runs the anomaly detector over each column of rows, which
// must be ordered newest first.
func DetectAlerts(columns []string, rows []map[string]any) []core.Alert {
	alerts := make([]core.Alert, 0)
	for _, col := range columns {
		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			if v, ok := toFloat(row[col]); ok {
				values = append(values, v)
			}
		}
		if alert, ok := anomaly.DetectColumn(col, values); ok {
			alerts = append(alerts, alert)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ci := alerts[i].Severity == core.SeverityCritical
		cj := alerts[j].Severity == core.SeverityCritical
		if ci != cj {
			return ci
		}
		return math.Abs(alerts[i].Deviation) > math.Abs(alerts[j].Deviation)
	})
	if len(alerts) > AlertResultLimit {
		alerts = alerts[:AlertResultLimit]
	}
	return alerts
}
