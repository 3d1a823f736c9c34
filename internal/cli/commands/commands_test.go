package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/dashsql/internal/cli/config"
	"github.com/leapstack-labs/dashsql/internal/state"
	"github.com/leapstack-labs/dashsql/internal/testutil"
	"github.com/leapstack-labs/dashsql/pkg/adapter"
	"github.com/leapstack-labs/dashsql/pkg/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useConfig installs cfg as the loaded configuration for one test.
func useConfig(t *testing.T, mutate func(c *config.Config)) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Output = "json"
	if mutate != nil {
		mutate(cfg)
	}
	config.SetCurrentConfig(cfg)
	t.Cleanup(config.ResetConfig)
	return cfg
}

// useMockDB routes openAdapter to a sqlmock-backed adapter.
func useMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock := testutil.NewMockAdapter(t)
	prev := openAdapter
	openAdapter = func(context.Context, core.AdapterConfig, *slog.Logger) (adapter.Adapter, error) {
		return db, nil
	}
	t.Cleanup(func() { openAdapter = prev })
	return mock
}

// useJournal routes openJournal to one shared in-memory journal.
func useJournal(t *testing.T) state.Journal {
	t.Helper()
	j, err := state.OpenJournal(context.Background(), state.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	prev := openJournal
	openJournal = func(context.Context, config.JournalConfig) (state.Journal, error) {
		return nopCloseJournal{j}, nil
	}
	t.Cleanup(func() { openJournal = prev })
	return j
}

// nopCloseJournal keeps the shared in-memory journal open across commands.
type nopCloseJournal struct{ state.Journal }

func (nopCloseJournal) Close() error { return nil }

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return out.String(), err
}

func expectColumns(mock sqlmock.Sqlmock, table string, pairs ...string) {
	rows := sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE"})
	for i := 0; i+1 < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1])
	}
	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("factory", table).
		WillReturnRows(rows)
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
		subs  []string
	}{
		{cmd: NewServeCommand(), use: "serve", flags: []string{"port", "addr"}},
		{cmd: NewSchemaCommand(), use: "schema", subs: []string{"tables", "columns", "map"}},
		{cmd: NewViewCommand(), use: "view", subs: []string{"summary", "calendar", "lots", "alerts", "realtime", "intervals", "analytics"}},
		{cmd: NewAlertsCommand(), use: "alerts", subs: []string{"history"}},
		{cmd: NewVersionCommand("1.0.0"), use: "version"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
			for _, name := range tt.subs {
				sub, _, err := tt.cmd.Find([]string{name})
				require.NoError(t, err)
				assert.Equal(t, name, sub.Name())
			}
		})
	}
}

func TestViewSubcommandFlags(t *testing.T) {
	view := NewViewCommand()
	want := map[string][]string{
		"calendar":  {"year", "month"},
		"lots":      {"period", "all", "debug", "no-date"},
		"intervals": {"params", "bins"},
	}
	for name, flags := range want {
		sub, _, err := view.Find([]string{name})
		require.NoError(t, err)
		for _, f := range flags {
			assert.NotNil(t, sub.Flags().Lookup(f), "%s should have --%s", name, f)
		}
	}
}

func TestNewVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCommand("1.2.3"))
	require.NoError(t, err)
	assert.Contains(t, out, "dashsql v1.2.3")
	assert.Contains(t, out, "MySQL")
}

func TestSchemaTables(t *testing.T) {
	useConfig(t, nil)
	mock := useMockDB(t)
	mock.ExpectQuery("FROM information_schema.TABLES").
		WithArgs("factory").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("mixing").AddRow("preprocessing"))

	out, err := execute(t, NewSchemaCommand(), "tables")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"tables":["mixing","preprocessing"]}`, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaTables_FailureExitsNonZero(t *testing.T) {
	useConfig(t, nil)
	mock := useMockDB(t)
	mock.ExpectQuery("FROM information_schema.TABLES").
		WillReturnError(errors.New("access denied"))

	out, err := execute(t, NewSchemaCommand(), "tables")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tables view failed")
	assert.NotContains(t, out, "Usage:")

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "access denied")
}

func TestSchemaColumns_Text(t *testing.T) {
	useConfig(t, func(c *config.Config) { c.Output = "text" })
	mock := useMockDB(t)
	expectColumns(mock, "mixing", "lot_no", "varchar", "temperature", "double")

	out, err := execute(t, NewSchemaCommand(), "columns", "mixing")
	require.NoError(t, err)
	assert.Contains(t, out, "Columns of mixing")
	assert.Contains(t, out, "lot_no")
	assert.Contains(t, out, "temperature")
	assert.Contains(t, out, "double")
}

func TestSchemaMap_JSON(t *testing.T) {
	useConfig(t, nil)
	mock := useMockDB(t)
	expectColumns(mock, "preprocessing", "temperature", "double", "pressure", "double", "note", "varchar")

	out, err := execute(t, NewSchemaCommand(), "map")
	require.NoError(t, err)

	var m core.ColumnMap
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "preprocessing", m.Table)
	assert.Equal(t, []string{"temperature", "pressure"}, m.NumericCols)
}

func TestViewAnalytics_JSON(t *testing.T) {
	useConfig(t, nil)
	mock := useMockDB(t)
	expectColumns(mock, "preprocessing", "temperature", "double", "pressure", "double")
	mock.ExpectQuery("SELECT `temperature`, `pressure` FROM `preprocessing` LIMIT 1000").
		WillReturnRows(sqlmock.NewRows([]string{"temperature", "pressure"}).
			AddRow(1.0, 2.0).
			AddRow(2.0, 4.0).
			AddRow(3.0, 6.0))

	out, err := execute(t, NewViewCommand(), "analytics")
	require.NoError(t, err)

	var res struct {
		Success     bool             `json:"success"`
		Correlation core.Correlation `json:"correlation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, []string{"temperature", "pressure"}, res.Correlation.Columns)
	require.Len(t, res.Correlation.Matrix, 2)
	assert.InDelta(t, 1.0, res.Correlation.Matrix[0][1], 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewAnalytics_Text(t *testing.T) {
	useConfig(t, func(c *config.Config) { c.Output = "markdown" })
	mock := useMockDB(t)
	expectColumns(mock, "preprocessing", "temperature", "double")

	out, err := execute(t, NewViewCommand(), "analytics")
	require.NoError(t, err)
	assert.Contains(t, out, "## Correlation")
	assert.Contains(t, out, "(0 rows)")
}

func TestViewCalendar_InvalidMonth(t *testing.T) {
	useConfig(t, nil)
	useMockDB(t)

	out, err := execute(t, NewViewCommand(), "calendar", "--year", "2024", "--month", "13")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar-month view failed")
	assert.NotContains(t, out, "Usage:")

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, false, body["success"])
}

func TestViewGroups_SilenceUsage(t *testing.T) {
	for _, cmd := range []*cobra.Command{NewSchemaCommand(), NewViewCommand(), NewAlertsCommand()} {
		assert.True(t, cmd.SilenceUsage, "%s should silence usage", cmd.Name())
		assert.True(t, cmd.SilenceErrors, "%s should silence errors", cmd.Name())
	}
}

func TestViewLots_NoLotColumn(t *testing.T) {
	useConfig(t, func(c *config.Config) { c.Output = "text" })
	mock := useMockDB(t)
	expectColumns(mock, "preprocessing", "temperature", "double")

	out, err := execute(t, NewViewCommand(), "lots", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "no lot column")
}

func TestViewIntervals_NoDefectColumn(t *testing.T) {
	useConfig(t, nil)
	mock := useMockDB(t)
	expectColumns(mock, "preprocessing", "temperature", "double")

	out, err := execute(t, NewViewCommand(), "intervals", "--bins", "4")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"error":"NO_DEFECT_COL","intervals":[]}`, out)
}

func TestViewSummary_ResolverFailure(t *testing.T) {
	useConfig(t, nil)
	mock := useMockDB(t)
	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WillReturnError(errors.New("gone away"))

	_, err := execute(t, NewViewCommand(), "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary view failed")
}

func TestConnectFailure(t *testing.T) {
	useConfig(t, nil)
	prev := openAdapter
	openAdapter = func(context.Context, core.AdapterConfig, *slog.Logger) (adapter.Adapter, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	t.Cleanup(func() { openAdapter = prev })

	_, err := execute(t, NewViewCommand(), "realtime")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestAlertsHistory_Disabled(t *testing.T) {
	useConfig(t, nil)

	out, err := execute(t, NewAlertsCommand(), "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alert journal disabled")
	assert.NotContains(t, out, "Usage:")
}

func TestAlertsHistory(t *testing.T) {
	useConfig(t, func(c *config.Config) { c.Alerts.Journal.Enabled = true })
	j := useJournal(t)
	observed := time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(context.Background(), "preprocessing", []core.Alert{
		{Column: "temperature", CurrentValue: 95, Mean: 60, UpperLimit: 80, LowerLimit: 40, Deviation: 3.5, Severity: core.SeverityCritical},
	}, observed))

	out, err := execute(t, NewAlertsCommand(), "history", "--limit", "10")
	require.NoError(t, err)

	var res struct {
		Success bool                `json:"success"`
		Alerts  []state.AlertRecord `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, "temperature", res.Alerts[0].Column)
	assert.Equal(t, core.SeverityCritical, res.Alerts[0].Severity)
}

func TestBuildServer(t *testing.T) {
	t.Run("without secret the API is open", func(t *testing.T) {
		useConfig(t, nil)
		mock := useMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("FROM information_schema.TABLES").
			WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("preprocessing"))

		cmd := NewServeCommand()
		cmd.SetContext(context.Background())
		cmdCtx, cleanup, err := NewCommandContext(cmd)
		require.NoError(t, err)
		defer cleanup()

		h := buildServer(cmdCtx).Handler()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/tables", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"tables":["preprocessing"]}`, rec.Body.String())
	})

	t.Run("with secret the API requires a token", func(t *testing.T) {
		useConfig(t, func(c *config.Config) { c.Auth.Secret = "s3cret" })
		useMockDB(t)

		cmd := NewServeCommand()
		cmd.SetContext(context.Background())
		cmdCtx, cleanup, err := NewCommandContext(cmd)
		require.NoError(t, err)
		defer cleanup()

		rec := httptest.NewRecorder()
		buildServer(cmdCtx).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/tables", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("journal enables history", func(t *testing.T) {
		useConfig(t, func(c *config.Config) { c.Alerts.Journal.Enabled = true })
		useMockDB(t)
		useJournal(t)

		cmd := NewServeCommand()
		cmd.SetContext(context.Background())
		cmdCtx, cleanup, err := NewCommandContext(cmd)
		require.NoError(t, err)
		defer cleanup()

		rec := httptest.NewRecorder()
		buildServer(cmdCtx).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/alerts/history", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)
	})
}

func TestOpenJournal_AppliesDedupWindow(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC)
	alert := []core.Alert{{Column: "temperature", CurrentValue: 95, Deviation: 3.5, Severity: core.SeverityCritical}}

	for _, tt := range []struct {
		window time.Duration
		want   int
	}{
		{window: 10 * time.Minute, want: 1},
		{window: 0, want: 2},
	} {
		j, err := openJournal(ctx, config.JournalConfig{Enabled: true, Path: state.MemoryPath, DedupWindow: tt.window})
		require.NoError(t, err)

		require.NoError(t, j.Record(ctx, "preprocessing", alert, at))
		require.NoError(t, j.Record(ctx, "preprocessing", alert, at.Add(time.Minute)))
		records, err := j.History(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, records, tt.want, "window %s", tt.window)
		require.NoError(t, j.Close())
	}
}
