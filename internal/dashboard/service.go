// Package dashboard assembles and runs the role-driven queries behind each
// dashboard view.
//
// Every view returns a result value and never an error: database and
// mapping failures are converted to the view's failure form at the method
// boundary so one broken view never takes another down.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/leapstack-labs/dashsql/internal/daterange"
	"github.com/leapstack-labs/dashsql/internal/resolver"
	"github.com/leapstack-labs/dashsql/pkg/adapter"
	"github.com/leapstack-labs/dashsql/pkg/core"
)

// ErrNoTable is returned when no process table is configured.
var ErrNoTable = errors.New("no process table configured")

// Database is the subset of adapter.Adapter the views use.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (*core.Rows, error)
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, table string) ([]core.ColumnMetadata, error)
}

// AlertRecorder persists flagged alerts.
type AlertRecorder interface {
	Record(ctx context.Context, table string, alerts []core.Alert, observedAt time.Time) error
}

// Config wires a Service.
type Config struct {
	DB       Database
	Table    string
	Resolver resolver.ColumnResolver
	Dates    *daterange.Calculator
	// Journal is optional.
	Journal AlertRecorder
	// QueryTimeout bounds each view; zero leaves it to the driver.
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Service computes dashboard views for one table.
type Service struct {
	db       Database
	table    string
	resolver resolver.ColumnResolver
	dates    *daterange.Calculator
	journal  AlertRecorder
	timeout  time.Duration
	logger   *slog.Logger
}

// NewService creates a Service. A nil Resolver resolves from DB on every
// call and nil Dates uses daterange.DefaultTimeZone.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	res := cfg.Resolver
	if res == nil {
		res = resolver.New(cfg.DB, logger)
	}
	dates := cfg.Dates
	if dates == nil {
		dates = daterange.New(daterange.DefaultTimeZone, logger)
	}
	return &Service{
		db:       cfg.DB,
		table:    cfg.Table,
		resolver: res,
		dates:    dates,
		journal:  cfg.Journal,
		timeout:  cfg.QueryTimeout,
		logger:   logger,
	}
}

// Table returns the configured process table.
func (s *Service) Table() string { return s.table }

// Dates returns the date calculator.
func (s *Service) Dates() *daterange.Calculator { return s.dates }

// ColumnMap resolves the roles of the configured table.
func (s *Service) ColumnMap(ctx context.Context) (core.ColumnMap, error) {
	if s.table == "" {
		return core.ColumnMap{}, ErrNoTable
	}
	return s.resolver.Resolve(ctx, s.table)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// fetch runs q and returns every row as a column-keyed map.
func (s *Service) fetch(ctx context.Context, q Query) ([]map[string]any, error) {
	rows, err := s.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return adapter.ScanMaps(rows)
}

// fetchOne runs q and returns its first row, or nil.
func (s *Service) fetchOne(ctx context.Context, q Query) (map[string]any, error) {
	rows, err := s.fetch(ctx, q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (s *Service) logFailure(view string, err error) string {
	s.logger.Warn("view failed", slog.String("view", view), slog.String("error", err.Error()))
	return err.Error()
}

// Tables lists the tables of the connected schema.
func (s *Service) Tables(ctx context.Context) TablesResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tables, err := s.db.ListTables(ctx)
	if err != nil {
		return TablesResult{Error: s.logFailure("tables", err), Tables: []string{}}
	}
	return TablesResult{Success: true, Tables: tables}
}
