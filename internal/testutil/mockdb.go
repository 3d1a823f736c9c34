package testutil

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/dashsql/pkg/adapter"
	"github.com/leapstack-labs/dashsql/pkg/core"
	"github.com/stretchr/testify/require"
)

// MockAdapter is a MySQL-shaped adapter backed by sqlmock.
type MockAdapter struct {
	adapter.BaseSQLAdapter
	Schema string
}

// NewMockAdapter returns an adapter over a sqlmock connection that is closed
// when the test ends. Pings are routed through the mock.
func NewMockAdapter(t testing.TB) (*MockAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return &MockAdapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db, Logger: NewTestLogger(t)},
		Schema:         "factory",
	}, mock
}

// Connect is a no-op; the sqlmock connection is already open.
func (m *MockAdapter) Connect(_ context.Context, _ adapter.Config) error { return nil }

// ListTables lists tables of the mock schema.
func (m *MockAdapter) ListTables(ctx context.Context) ([]string, error) {
	return m.ListTablesCommon(ctx, m.Schema)
}

// ListColumns lists columns of table in the mock schema.
func (m *MockAdapter) ListColumns(ctx context.Context, table string) ([]core.ColumnMetadata, error) {
	return m.ListColumnsCommon(ctx, m.Schema, table)
}

// DialectName returns "mysql".
func (m *MockAdapter) DialectName() string { return "mysql" }

var _ adapter.Adapter = (*MockAdapter)(nil)
