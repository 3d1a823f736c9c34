package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/dashsql/pkg/adapters/mysql"
)

// isolate clears the variables the loader reads and moves into an empty
// directory so no stray dashsql.yaml is picked up.
func isolate(t *testing.T) {
	t.Helper()
	ResetConfig()
	for key := range legacyEnv {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("table", "", "")
	flags.String("timezone", "", "")
	flags.Int("port", 0, "")
	flags.Int("limit", 0, "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "root", cfg.Database.User)
	assert.Equal(t, "factory", cfg.Database.Name)
	assert.Equal(t, "preprocessing", cfg.Table)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Alerts.Journal.Enabled)
	assert.Equal(t, ".dashsql/alerts.db", cfg.Alerts.Journal.Path)
	assert.Equal(t, 10*time.Minute, cfg.Alerts.Journal.DedupWindow)
	assert.Equal(t, "auto", cfg.Output)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
database:
  host: db.internal
  port: 3307
  name: plant
  params:
    tls: preferred
  pool:
    max_open: 8
    conn_max_lifetime: 5m
table: mixing
timezone: UTC
server:
  port: 8080
  shutdown_timeout: 2s
auth:
  secret: s3cret
  issuer: mes
cache:
  enabled: true
  ttl: 1m
alerts:
  journal:
    enabled: true
    path: /tmp/alerts.db
    dedup_window: 30s
log_format: json
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "plant", cfg.Database.Name)
	assert.Equal(t, map[string]string{"tls": "preferred"}, cfg.Database.Params)
	assert.Equal(t, 8, cfg.Database.Pool.MaxOpen)
	assert.Equal(t, 5*time.Minute, cfg.Database.Pool.ConnMaxLifetime)
	assert.Equal(t, "mixing", cfg.Table)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, "mes", cfg.Auth.Issuer)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Alerts.Journal.Enabled)
	assert.Equal(t, "/tmp/alerts.db", cfg.Alerts.Journal.Path)
	assert.Equal(t, 30*time.Second, cfg.Alerts.Journal.DedupWindow)
	assert.Equal(t, "json", cfg.LogFormat)
	// Untouched keys keep their defaults.
	assert.Equal(t, "root", cfg.Database.User)
}

func TestLoadConfig_FindsFileInWorkingDir(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("dashsql.yml", []byte("table: drying\n"), 0o600))

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "drying", cfg.Table)
	assert.Equal(t, "dashsql.yml", GetConfigFileUsed())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_LegacyEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DB_HOST", "10.0.0.5")
	t.Setenv("DB_PORT", "3310")
	t.Setenv("DB_USER", "mes")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "fallback")
	t.Setenv("PROCESS_DB_NAME", "process")
	t.Setenv("PROCESS_TABLE_NAME", "coating")
	t.Setenv("BACKEND_DATE_TZ", "UTC")
	t.Setenv("PORT", "5000")
	t.Setenv("JWT_SECRET", "jwt")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Database.Host)
	assert.Equal(t, 3310, cfg.Database.Port)
	assert.Equal(t, "mes", cfg.Database.User)
	assert.Equal(t, "pw", cfg.Database.Password)
	assert.Equal(t, "process", cfg.Database.Name, "PROCESS_DB_NAME wins over DB_NAME")
	assert.Equal(t, "coating", cfg.Table)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "jwt", cfg.Auth.Secret)
}

func TestLoadConfig_DBNameFallback(t *testing.T) {
	isolate(t)
	t.Setenv("DB_NAME", "fallback")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.Database.Name)
}

func TestLoadConfig_Precedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "table: from_file\ntimezone: UTC\nserver:\n  port: 7000\n")
	t.Setenv("PROCESS_TABLE_NAME", "from_legacy")
	t.Setenv("DASHSQL_TABLE", "from_env")
	t.Setenv("DASHSQL_SERVER__PORT", "7100")
	t.Setenv("DASHSQL_DATABASE__PARAMS", "tls=true, charset=utf8mb4")
	t.Setenv("DASHSQL_CACHE__TTL", "45s")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--table", "from_flag", "--limit", "9"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.Table, "flag beats env")
	assert.Equal(t, 7100, cfg.Server.Port, "prefixed env beats file")
	assert.Equal(t, "UTC", cfg.Timezone, "file beats defaults")
	assert.Equal(t, map[string]string{"tls": "true", "charset": "utf8mb4"}, cfg.Database.Params)
	assert.Equal(t, 45*time.Second, cfg.Cache.TTL)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DASHSQL_TABLE", "from_env")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--port", "9000"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Table)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadConfig_InvalidParams(t *testing.T) {
	isolate(t)
	t.Setenv("DASHSQL_DATABASE__PARAMS", "novalue")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to decode config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "uppercase type", mutate: func(c *Config) { c.Database.Type = "MySQL" }},
		{name: "empty type", mutate: func(c *Config) { c.Database.Type = "" }, errSubstr: "database.type is required"},
		{name: "unknown type", mutate: func(c *Config) { c.Database.Type = "oracle" }, errSubstr: "unknown adapter type"},
		{name: "unsafe table", mutate: func(c *Config) { c.Table = "t;drop" }, errSubstr: "table"},
		{name: "table with space", mutate: func(c *Config) { c.Table = "line a" }},
		{name: "empty table", mutate: func(c *Config) { c.Table = "" }},
		{name: "db port zero", mutate: func(c *Config) { c.Database.Port = 0 }, errSubstr: "database.port"},
		{name: "server port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, errSubstr: "server.port"},
		{name: "cache without ttl", mutate: func(c *Config) { c.Cache.Enabled = true; c.Cache.TTL = 0 }, errSubstr: "cache.ttl"},
		{name: "journal without path", mutate: func(c *Config) { c.Alerts.Journal.Enabled = true; c.Alerts.Journal.Path = "" }, errSubstr: "alerts.journal.path"},
		{name: "negative dedup window", mutate: func(c *Config) { c.Alerts.Journal.DedupWindow = -time.Second }, errSubstr: "dedup_window"},
		{name: "dedup disabled", mutate: func(c *Config) { c.Alerts.Journal.DedupWindow = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, errSubstr: "log_level"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, errSubstr: "log_format"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "csv" }, errSubstr: "output"},
		{name: "yaml output", mutate: func(c *Config) { c.Output = "yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Validate_NormalizesType(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Type = "MYSQL"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "mysql", cfg.Database.Type)
}

func TestConfig_AdapterConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Password = "pw"
	cfg.Database.Params = map[string]string{"tls": "true"}
	cfg.Database.Pool = PoolConfig{MaxOpen: 4, MaxIdle: 2, ConnMaxLifetime: time.Minute}

	ac := cfg.AdapterConfig()
	assert.Equal(t, "mysql", ac.Type)
	assert.Equal(t, "localhost", ac.Host)
	assert.Equal(t, 3306, ac.Port)
	assert.Equal(t, "factory", ac.Database)
	assert.Equal(t, "root", ac.Username)
	assert.Equal(t, "pw", ac.Password)
	assert.Equal(t, "true", ac.Params["tls"])
	assert.Equal(t, 4, ac.MaxOpenConns)
	assert.Equal(t, 2, ac.MaxIdleConns)
	assert.Equal(t, time.Minute, ac.ConnMaxLifetime)
}

func TestNewLogger(t *testing.T) {
	t.Run("text at info hides debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, &Config{LogLevel: "info"})
		logger.Debug("hidden")
		logger.Info("shown", slog.String("k", "v"))
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown k=v")
	})

	t.Run("verbose forces debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, &Config{LogLevel: "error", Verbose: true})
		logger.Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, &Config{LogFormat: "JSON"})
		logger.Info("hello")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Equal(t, loggerKey{}, LoggerKey())
}
