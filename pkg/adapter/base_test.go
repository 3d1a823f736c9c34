package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/dashsql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		expectErr bool
	}{
		{
			name:      "close with nil DB",
			setupDB:   false,
			expectErr: false,
		},
		{
			name:      "close with open DB",
			setupDB:   true,
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			err := base.Close()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Ping(t *testing.T) {
	t.Run("without connection", func(t *testing.T) {
		base := &BaseSQLAdapter{}
		assert.ErrorIs(t, base.Ping(context.Background()), ErrNotConnected)
	})

	t.Run("ping failure is wrapped", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectPing().WillReturnError(assert.AnError)

		base := &BaseSQLAdapter{DB: db}
		err = base.Ping(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ping database")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("ping success", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectPing()

		base := &BaseSQLAdapter{DB: db}
		assert.NoError(t, base.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		args      []any
		expectErr bool
		errMsg    string
	}{
		{
			name:      "query without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "query success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name"}).
					AddRow(1, "alice").
					AddRow(2, "bob")
				mock.ExpectQuery("SELECT").WillReturnRows(rows)
			},
			sql:       "SELECT id, name FROM users",
			expectErr: false,
		},
		{
			name:    "query binds arguments",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT total").
					WithArgs("2024-02-01").
					WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(3))
			},
			sql:       "SELECT total FROM t WHERE DATE(d) = ?",
			args:      []any{"2024-02-01"},
			expectErr: false,
		},
		{
			name:    "query with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INVALID").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			rows, err := base.Query(ctx, tt.sql, tt.args...)
			if tt.expectErr {
				require.Error(t, err)
				assert.Nil(t, rows)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
				assert.NotNil(t, rows)
				defer func() { _ = rows.Close() }()
			}
		})
	}
}

func TestBaseSQLAdapter_IsConnected(t *testing.T) {
	tests := []struct {
		name     string
		setupDB  bool
		expected bool
	}{
		{
			name:     "not connected",
			setupDB:  false,
			expected: false,
		},
		{
			name:     "connected",
			setupDB:  true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, _, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				base.DB = db
			}

			assert.Equal(t, tt.expected, base.IsConnected())
		})
	}
}

func TestBaseSQLAdapter_ApplyPool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLAdapter{DB: db}
	base.ApplyPool(core.AdapterConfig{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: time.Minute})
	assert.Equal(t, 7, db.Stats().MaxOpenConnections)

	// nil DB is a no-op
	(&BaseSQLAdapter{}).ApplyPool(core.AdapterConfig{MaxOpenConns: 1})
}

func TestBaseSQLAdapter_ListTablesCommon(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      []string
		errMsg    string
	}{
		{
			name: "tables in schema",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema.TABLES").
					WithArgs("factory").
					WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).
						AddRow("preprocessing").
						AddRow("sensor_log"))
			},
			want: []string{"preprocessing", "sensor_log"},
		},
		{
			name: "empty schema",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema.TABLES").
					WithArgs("factory").
					WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}))
			},
			want: []string{},
		},
		{
			name: "query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema.TABLES").WillReturnError(assert.AnError)
			},
			errMsg: "failed to query tables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			base := &BaseSQLAdapter{DB: db}
			got, err := base.ListTablesCommon(context.Background(), "factory")
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseSQLAdapter_ListColumnsCommon(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		want      []core.ColumnMetadata
		errMsg    string
	}{
		{
			name:   "without connection",
			errMsg: "database connection not established",
		},
		{
			name:    "columns in position order",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema.COLUMNS").
					WithArgs("factory", "preprocessing").
					WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE"}).
						AddRow("lot_id", "varchar").
						AddRow("timestamp", "datetime").
						AddRow("humidity", "double"))
			},
			want: []core.ColumnMetadata{
				{Name: "lot_id", Type: "varchar"},
				{Name: "timestamp", Type: "datetime"},
				{Name: "humidity", Type: "double"},
			},
		},
		{
			name:    "unknown table yields empty list",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema.COLUMNS").
					WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE"}))
			},
			want: []core.ColumnMetadata{},
		},
		{
			name:    "row iteration error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema.COLUMNS").
					WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE"}).
						AddRow("a", "int").
						RowError(0, assert.AnError))
			},
			errMsg: "error iterating column metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}
			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				tt.setupMock(mock)
				base.DB = db
			}

			got, err := base.ListColumnsCommon(context.Background(), "factory", "preprocessing")
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanMaps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"lot_id", "avg"}).
			AddRow([]byte("L-1"), 1.5).
			AddRow("L-2", nil),
	)

	base := &BaseSQLAdapter{DB: db}
	rows, err := base.Query(context.Background(), "SELECT lot_id, avg FROM t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	got, err := ScanMaps(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "L-1", got[0]["lot_id"])
	assert.Equal(t, 1.5, got[0]["avg"])
	assert.Equal(t, "L-2", got[1]["lot_id"])
	assert.Nil(t, got[1]["avg"])
}
