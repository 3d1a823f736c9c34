package dashboard

import "context"

func summaryFailure(msg string) SummaryResult {
	return SummaryResult{Error: msg, Tables: []string{}, UsedTables: []string{}}
}

// Summary reports today's production, equipment rate, quality rate and
// energy use. Unbound metrics are nil.
func (s *Service) Summary(ctx context.Context) SummaryResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, err := s.ColumnMap(ctx)
	if err != nil {
		return summaryFailure(s.logFailure("summary", err))
	}

	var data SummaryData
	if m.HasDate() {
		today := s.dates.Today()
		metrics := []struct {
			col string
			agg Aggregate
			dst **float64
		}{
			{m.QuantityCol, AggSum, &data.ProductionToday},
			{m.EfficiencyCol, AggAvg, &data.EquipmentRate},
			{m.PassRateCol, AggAvg, &data.QualityRate},
			{m.ConsumptionCol, AggSum, &data.EnergyToday},
		}
		for _, metric := range metrics {
			if metric.col == "" {
				continue
			}
			row, err := s.fetchOne(ctx, SummaryMetricQuery(m, metric.col, metric.agg, today))
			if err != nil {
				return summaryFailure(s.logFailure("summary", err))
			}
			if row == nil {
				continue
			}
			v := floatPtr(row["total"])
			if v == nil && metric.agg == AggSum {
				zero := 0.0
				v = &zero
			}
			*metric.dst = v
		}
	}

	fromDB := data.ProductionToday != nil || data.EquipmentRate != nil ||
		data.QualityRate != nil || data.EnergyToday != nil
	return SummaryResult{
		Success:    true,
		Data:       &data,
		FromDB:     fromDB,
		Tables:     []string{m.Table},
		UsedTables: []string{m.Table},
	}
}
