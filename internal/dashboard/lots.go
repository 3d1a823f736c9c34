package dashboard

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// Normalized parameter keys surfaced as LotSummary fields.
const (
	keyLithiumInput  = "lithium_input"
	keyAdditiveRatio = "additive_ratio"
	keyProcessTime   = "process_time"
	keyHumidity      = "humidity"
	keyTankPressure  = "tank_pressure"
)

func lotFailure(msg string) LotStatusResult {
	return LotStatusResult{Error: msg, Lots: []core.LotSummary{}}
}

// LotStatus aggregates rows per lot. By default only lots whose latest
// result is the failing sentinel are returned.
func (s *Service) LotStatus(ctx context.Context, opts LotOptions) LotStatusResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, err := s.ColumnMap(ctx)
	if err != nil {
		return lotFailure(s.logFailure("lot-status", err))
	}
	if m.LotCol == "" {
		return LotStatusResult{Success: true, Lots: []core.LotSummary{}, Message: MessageNoLotColumn}
	}

	columns, err := s.db.ListColumns(ctx, m.Table)
	if err != nil {
		return lotFailure(s.logFailure("lot-status", err))
	}
	params := LotParamColumns(m, columns)

	q := LotStatusQuery(m, params, opts, s.dates.Ranges())
	s.logger.Debug("lot status query",
		slog.String("period", string(opts.Period)),
		slog.Int("params", len(params)),
		slog.String("sql", q.SQL),
	)
	rows, err := s.fetch(ctx, q)
	if err != nil {
		return lotFailure(s.logFailure("lot-status", err))
	}

	lots := make([]core.LotSummary, 0, len(rows))
	for _, row := range rows {
		lots = append(lots, decodeLot(row, params))
	}
	return LotStatusResult{Success: true, Lots: lots, TotalLots: len(lots)}
}

func decodeLot(row map[string]any, params []ParamColumn) core.LotSummary {
	lotID, _ := toString(row["lot_id"])
	count, _ := toFloat(row["record_count"])
	lot := core.LotSummary{
		LotID:          lotID,
		PassFailResult: passFail(row["latest_result"]),
		RecordCount:    int(count),
		LatestDate:     stringPtr(row["latest_date"]),
		Params:         map[string]float64{},
	}

	// Params is keyed by normalized name; the first column wins a collision.
	byKey := map[string]*float64{}
	for _, p := range params {
		v, ok := toFloat(row[p.Alias])
		if !ok {
			continue
		}
		key := normalizeKey(p.Name)
		if _, dup := byKey[key]; dup {
			continue
		}
		byKey[key] = &v
		lot.Params[key] = v
	}
	lot.LithiumInput = byKey[keyLithiumInput]
	lot.AdditiveRatio = byKey[keyAdditiveRatio]
	lot.ProcessTime = byKey[keyProcessTime]
	lot.Humidity = byKey[keyHumidity]
	lot.TankPressure = byKey[keyTankPressure]
	return lot
}
