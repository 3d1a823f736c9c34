package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/dashsql/internal/daterange"
	"github.com/leapstack-labs/dashsql/pkg/core"
)

// ProductionUnits returns the Korean and English production unit for the
// bound quantity column.
func ProductionUnits(quantityCol string) (string, string) {
	switch strings.ToLower(quantityCol) {
	case "lithium_input", "lithium":
		return UnitKg, UnitKg
	default:
		return UnitCount, UnitCountEn
	}
}

// Calendar returns one cell per day of the given month. Zero year or month
// default to the current one in the configured zone.
func (s *Service) Calendar(ctx context.Context, year, month int) CalendarResult {
	now := s.dates.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	res := CalendarResult{
		Year:             year,
		Month:            month,
		Days:             []core.CalendarDay{},
		ProductionUnit:   UnitCount,
		ProductionUnitEn: UnitCountEn,
	}
	if month < 1 || month > 12 {
		res.Error = s.logFailure("calendar", fmt.Errorf("invalid month %d", month))
		return res
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m, err := s.ColumnMap(ctx)
	if err != nil {
		res.Error = s.logFailure("calendar", err)
		return res
	}
	if !m.HasDate() {
		res.Success = true
		return res
	}

	rows, err := s.fetch(ctx, CalendarQuery(m, daterange.MonthStart(year, time.Month(month))))
	if err != nil {
		res.Error = s.logFailure("calendar", err)
		return res
	}

	lastDay := daterange.DaysIn(year, time.Month(month))
	days := make([]core.CalendarDay, lastDay)
	for i := range days {
		days[i].Day = i + 1
	}
	for _, row := range rows {
		d, ok := toFloat(row["day_of_month"])
		if !ok || int(d) < 1 || int(d) > lastDay {
			continue
		}
		cell := &days[int(d)-1]
		cell.Production, _ = toFloat(row["production"])
		cell.DefectRate, _ = toFloat(row["defect_rate"])
	}

	res.Success = true
	res.LastDay = lastDay
	res.Days = days
	res.ProductionUnit, res.ProductionUnitEn = ProductionUnits(m.QuantityCol)
	return res
}
