// Package state keeps a local journal of the alerts raised by the dashboard
// in SQLite.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// History limits.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// DefaultDedupWindow is how long an identical alert is suppressed after it
// was recorded. A polling dashboard raises the same alert on every poll.
const DefaultDedupWindow = 10 * time.Minute

// AlertRecord is one journaled alert.
type AlertRecord struct {
	ID           string        `json:"id" yaml:"id"`
	Table        string        `json:"table" yaml:"table"`
	Column       string        `json:"column" yaml:"column"`
	CurrentValue float64       `json:"currentValue" yaml:"currentValue"`
	Mean         float64       `json:"mean" yaml:"mean"`
	UpperLimit   float64       `json:"upperLimit" yaml:"upperLimit"`
	LowerLimit   float64       `json:"lowerLimit" yaml:"lowerLimit"`
	Deviation    float64       `json:"deviation" yaml:"deviation"`
	Severity     core.Severity `json:"severity" yaml:"severity"`
	ObservedAt   time.Time     `json:"observedAt" yaml:"observedAt"`
}

// Journal records alerts and lists them back newest first.
type Journal interface {
	Record(ctx context.Context, table string, alerts []core.Alert, observedAt time.Time) error
	History(ctx context.Context, limit int) ([]AlertRecord, error)
	Close() error
}

// ClampLimit maps a requested history size into [1, MaxHistoryLimit].
// Non-positive values mean DefaultHistoryLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
