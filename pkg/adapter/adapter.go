// Package adapter provides database adapter interfaces and shared
// database/sql plumbing for dashsql.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"errors"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// ErrNotConnected is returned when an operation runs before Connect succeeded.
var ErrNotConnected = errors.New("database connection not established")

// Type aliases so adapter implementations need not import pkg/core.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting, running read-only queries and reading
// the metadata catalog.
type Adapter interface {
	// Connect opens the connection pool using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection pool and releases resources.
	Close() error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Query executes a parameterized statement that returns rows.
	// Values must always be passed through args, never interpolated into sql.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// ListTables lists the base tables of the configured schema.
	ListTables(ctx context.Context) ([]string, error)

	// ListColumns lists the columns of table ordered by physical position.
	// An unknown table yields an empty slice, not an error.
	ListColumns(ctx context.Context, table string) ([]core.ColumnMetadata, error)

	// DialectName returns the SQL dialect this adapter speaks.
	DialectName() string
}
