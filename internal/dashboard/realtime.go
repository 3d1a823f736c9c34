package dashboard

import (
	"context"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// TrendStable is the placeholder trend reported for every sensor.
const TrendStable = "stable"

// Realtime returns the newest row's value for each numeric column.
func (s *Service) Realtime(ctx context.Context) RealtimeResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, err := s.ColumnMap(ctx)
	if err != nil {
		return RealtimeResult{Error: s.logFailure("realtime", err), Sensors: []core.Sensor{}}
	}
	numeric := m.FirstNumeric(RealtimeColumnLimit)
	if !m.HasDate() || len(numeric) == 0 {
		return RealtimeResult{Success: true, Sensors: []core.Sensor{}}
	}

	row, err := s.fetchOne(ctx, LatestRowsQuery(m, numeric, 1, true))
	if err != nil {
		return RealtimeResult{Error: s.logFailure("realtime", err), Sensors: []core.Sensor{}}
	}

	sensors := make([]core.Sensor, 0, len(numeric))
	if row != nil {
		for _, col := range numeric {
			v, _ := toFloat(row[col])
			sensors = append(sensors, core.Sensor{
				Name:         col,
				CurrentValue: v,
				Trend:        TrendStable,
			})
		}
	}
	return RealtimeResult{Success: true, Sensors: sensors}
}
