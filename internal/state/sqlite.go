package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dashsql/pkg/core"

	// sqlite driver for the alert journal.
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

var errNotOpened = errors.New("database not opened")

// SQLiteStore implements Journal using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	dedup time.Duration
}

// NewSQLiteStore creates a new SQLite journal instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{dedup: DefaultDedupWindow}
}

// SetDedupWindow sets how long an alert with the same table, column,
// severity and value is skipped after being recorded. Zero records every
// alert.
func (s *SQLiteStore) SetDedupWindow(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.dedup = d
}

// OpenJournal opens the journal at path and migrates it.
func OpenJournal(ctx context.Context, path string) (*SQLiteStore, error) {
	s := NewSQLiteStore()
	if err := s.Open(ctx, path); err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database, creating parent
// directories as needed. Use MemoryPath for an in-memory database.
func (s *SQLiteStore) Open(ctx context.Context, path string) error {
	dsn := MemoryPath
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create journal directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores alerts raised for table at observedAt in one transaction.
// Alerts already recorded within the dedup window are skipped.
func (s *SQLiteStore) Record(ctx context.Context, table string, alerts []core.Alert, observedAt time.Time) error {
	if s.db == nil {
		return errNotOpened
	}
	if len(alerts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alert_journal
			(id, table_name, column_name, current_value, mean, upper_limit, lower_limit, deviation, severity, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	at := observedAt.UTC().UnixMilli()
	since := observedAt.Add(-s.dedup).UTC().UnixMilli()
	for _, a := range alerts {
		if s.dedup > 0 {
			dup, err := recentlyRecorded(ctx, tx, table, a, since)
			if err != nil {
				return err
			}
			if dup {
				continue
			}
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), table, a.Column,
			a.CurrentValue, a.Mean, a.UpperLimit, a.LowerLimit, a.Deviation,
			string(a.Severity), at,
		); err != nil {
			return fmt.Errorf("failed to record alert for %s: %w", a.Column, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alerts: %w", err)
	}
	return nil
}

func recentlyRecorded(ctx context.Context, tx *sql.Tx, table string, a core.Alert, since int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `
		SELECT 1 FROM alert_journal
		WHERE table_name = ? AND column_name = ? AND severity = ? AND current_value = ? AND observed_at >= ?
		LIMIT 1
	`, table, a.Column, string(a.Severity), a.CurrentValue, since).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check recent alerts for %s: %w", a.Column, err)
	}
	return true, nil
}

// History returns up to limit records, newest first. The limit is passed
// through ClampLimit.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]AlertRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_name, column_name, current_value, mean, upper_limit, lower_limit, deviation, severity, observed_at
		FROM alert_journal
		ORDER BY observed_at DESC, seq DESC
		LIMIT ?
	`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]AlertRecord, 0)
	for rows.Next() {
		var (
			r        AlertRecord
			severity string
			at       int64
		)
		if err := rows.Scan(&r.ID, &r.Table, &r.Column, &r.CurrentValue, &r.Mean,
			&r.UpperLimit, &r.LowerLimit, &r.Deviation, &severity, &at); err != nil {
			return nil, fmt.Errorf("failed to scan alert record: %w", err)
		}
		r.Severity = core.Severity(severity)
		r.ObservedAt = time.UnixMilli(at).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert history: %w", err)
	}
	return records, nil
}

var _ Journal = (*SQLiteStore)(nil)
