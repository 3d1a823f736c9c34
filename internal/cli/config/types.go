// Package config provides configuration management for the dashsql CLI.
//
// Configuration is layered with koanf: defaults, then the YAML file, then
// the legacy deployment variables, then DASHSQL_* variables, then explicitly
// changed command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// Default configuration values.
const (
	DefaultAdapter      = "mysql"
	DefaultHost         = "localhost"
	DefaultPort         = 3306
	DefaultUser         = "root"
	DefaultDatabase     = "factory"
	DefaultTable        = "preprocessing"
	DefaultTimezone     = "Asia/Seoul"
	DefaultServerPort   = 4000
	DefaultCacheTTL     = 30 * time.Second
	DefaultJournalPath  = ".dashsql/alerts.db"
	DefaultJournalDedup = 10 * time.Minute
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Config holds all CLI configuration options.
type Config struct {
	Database     DatabaseConfig `koanf:"database"`
	Table        string         `koanf:"table"`
	Timezone     string         `koanf:"timezone"`
	QueryTimeout time.Duration  `koanf:"query_timeout"`
	Server       ServerConfig   `koanf:"server"`
	Auth         AuthConfig     `koanf:"auth"`
	Cache        CacheConfig    `koanf:"cache"`
	Alerts       AlertsConfig   `koanf:"alerts"`
	LogLevel     string         `koanf:"log_level"`
	LogFormat    string         `koanf:"log_format"`
	Output       string         `koanf:"output"`
	Verbose      bool           `koanf:"verbose"`
}

// DatabaseConfig describes the MySQL connection.
type DatabaseConfig struct {
	Type     string            `koanf:"type"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"` // #nosec G117 -- loaded from config, never logged
	Name     string            `koanf:"name"`
	Params   map[string]string `koanf:"params"`
	Pool     PoolConfig        `koanf:"pool"`
}

// PoolConfig tunes the database/sql pool. Zero keeps the driver defaults.
type PoolConfig struct {
	MaxOpen         int           `koanf:"max_open"`
	MaxIdle         int           `koanf:"max_idle"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	Port              int           `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// AuthConfig configures bearer token verification. An empty secret
// disables authentication.
type AuthConfig struct {
	Secret string `koanf:"secret"` // #nosec G117 -- loaded from config, never logged
	Issuer string `koanf:"issuer"`
}

// CacheConfig configures the Column Map cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl"`
}

// AlertsConfig groups alert settings.
type AlertsConfig struct {
	Journal JournalConfig `koanf:"journal"`
}

// JournalConfig configures the local alert journal.
type JournalConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`

	// DedupWindow suppresses re-recording an identical alert. Zero disables it.
	DedupWindow time.Duration `koanf:"dedup_window"`
}

// AdapterConfig converts the database section into the adapter contract.
func (c *Config) AdapterConfig() core.AdapterConfig {
	db := c.Database
	return core.AdapterConfig{
		Type:            db.Type,
		Host:            db.Host,
		Port:            db.Port,
		Database:        db.Name,
		Username:        db.User,
		Password:        db.Password,
		Params:          db.Params,
		MaxOpenConns:    db.Pool.MaxOpen,
		MaxIdleConns:    db.Pool.MaxIdle,
		ConnMaxLifetime: db.Pool.ConnMaxLifetime,
	}
}

// Defaults returns a Config populated with the default values.
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type: DefaultAdapter,
			Host: DefaultHost,
			Port: DefaultPort,
			User: DefaultUser,
			Name: DefaultDatabase,
		},
		Table:    DefaultTable,
		Timezone: DefaultTimezone,
		Server:   ServerConfig{Port: DefaultServerPort},
		Cache:    CacheConfig{TTL: DefaultCacheTTL},
		Alerts: AlertsConfig{
			Journal: JournalConfig{Path: DefaultJournalPath, DedupWindow: DefaultJournalDedup},
		},
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Output:    DefaultOutput,
	}
}
