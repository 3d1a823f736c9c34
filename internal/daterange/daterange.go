// Package daterange computes the calendar dates dashboard queries filter on,
// in one fixed time zone.
package daterange

import (
	"fmt"
	"log/slog"
	"time"

	// Embedded zone database so zone names resolve on minimal images.
	_ "time/tzdata"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// DefaultTimeZone is used when no zone is configured.
const DefaultTimeZone = "Asia/Seoul"

// Layout is the calendar-date format used in query parameters.
const Layout = "2006-01-02"

// Calculator produces date strings against a fixed location.
type Calculator struct {
	loc *time.Location
	now func() time.Time
}

// New creates a Calculator for the named zone. An unknown zone degrades to
// UTC and is reported through logger.
func New(tz string, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn("unknown time zone, using UTC", slog.String("tz", tz), slog.String("error", err.Error()))
		loc = time.UTC
	}
	return &Calculator{loc: loc, now: time.Now}
}

// NewWithClock creates a Calculator with an injected clock.
func NewWithClock(loc *time.Location, now func() time.Time) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc, now: now}
}

// Location returns the zone every date is computed in.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the calculator's zone.
func (c *Calculator) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current calendar date as YYYY-MM-DD.
func (c *Calculator) Today() string {
	return c.Now().Format(Layout)
}

// Ranges returns today's DateRangeSet.
func (c *Calculator) Ranges() core.DateRangeSet {
	return RangesAt(c.Now())
}

// RangesAt computes the DateRangeSet for the calendar date of t in t's zone.
// Weeks start on Monday.
func RangesAt(t time.Time) core.DateRangeSet {
	y, m, d := t.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	sinceMonday := (int(today.Weekday()) + 6) % 7
	weekStart := today.AddDate(0, 0, -sinceMonday)
	weekEnd := weekStart.AddDate(0, 0, 6)

	return core.DateRangeSet{
		Today:        today.Format(Layout),
		WeekStart:    weekStart.Format(Layout),
		WeekEnd:      weekEnd.Format(Layout),
		FirstOfMonth: MonthStart(y, m),
		LastOfMonth:  time.Date(y, m, DaysIn(y, m), 0, 0, 0, 0, time.UTC).Format(Layout),
	}
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthStart returns the first day of month formatted as YYYY-MM-DD.
func MonthStart(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d-01", year, int(month))
}
