// Package mysql provides a MySQL database adapter for dashsql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/dashsql/pkg/adapter"
	"github.com/leapstack-labs/dashsql/pkg/core"
)

// Defaults applied when the config leaves a field empty.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 3306
	DefaultUser     = "root"
	DefaultDatabase = "factory"

	dialTimeout = 10 * time.Second
)

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "mysql"
}

// Connect establishes a connection pool to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dcfg := buildDriverConfig(cfg)

	a.Logger.Debug("connecting to mysql", slog.String("addr", dcfg.Addr), slog.String("database", dcfg.DBName))

	connector, err := driver.NewConnector(dcfg)
	if err != nil {
		return fmt.Errorf("failed to configure mysql connection: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.ApplyPool(cfg)
	return nil
}

// ListTables lists the base tables of the configured database.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx, a.schema())
}

// ListColumns lists the columns of table in the configured database.
func (a *Adapter) ListColumns(ctx context.Context, table string) ([]core.ColumnMetadata, error) {
	return a.ListColumnsCommon(ctx, a.schema(), table)
}

func (a *Adapter) schema() string {
	if a.Cfg.Database == "" {
		return DefaultDatabase
	}
	return a.Cfg.Database
}

// buildDriverConfig maps an adapter config onto the driver's config.
// Temporal columns are parsed into time.Time in UTC.
func buildDriverConfig(cfg adapter.Config) *driver.Config {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	user := cfg.Username
	if user == "" {
		user = DefaultUser
	}
	database := cfg.Database
	if database == "" {
		database = DefaultDatabase
	}

	dcfg := driver.NewConfig()
	dcfg.Net = "tcp"
	dcfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	dcfg.User = user
	dcfg.Passwd = cfg.Password
	dcfg.DBName = database
	dcfg.ParseTime = true
	dcfg.Loc = time.UTC
	dcfg.Timeout = dialTimeout
	if len(cfg.Params) > 0 {
		dcfg.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			dcfg.Params[k] = v
		}
	}
	return dcfg
}

var _ adapter.Adapter = (*Adapter)(nil)
