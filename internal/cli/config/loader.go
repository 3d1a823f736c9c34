package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via LoggerKey.
type loggerKey struct{}

// EnvPrefix prefixes the structured environment variables.
// Nested keys are separated by a double underscore:
// DASHSQL_DATABASE__HOST -> database.host.
const EnvPrefix = "DASHSQL_"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// legacyEnv maps the deployment variables used by existing installations.
var legacyEnv = map[string]string{
	"DB_HOST":            "database.host",
	"DB_PORT":            "database.port",
	"DB_USER":            "database.user",
	"DB_PASSWORD":        "database.password",
	"PROCESS_DB_NAME":    "database.name",
	"DB_NAME":            "database.name",
	"PROCESS_TABLE_NAME": "table",
	"BACKEND_DATE_TZ":    "timezone",
	"PORT":               "server.port",
	"JWT_SECRET":         "auth.secret",
}

// flagKeys maps CLI flag names to config keys. Flags not listed here are
// command options and never reach the config.
var flagKeys = map[string]string{
	"verbose":    "verbose",
	"output":     "output",
	"log-level":  "log_level",
	"log-format": "log_format",
	"table":      "table",
	"timezone":   "timezone",
	"port":       "server.port",
	"addr":       "server.addr",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > dashsql.yaml > dashsql.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"dashsql.yaml", "dashsql.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > DASHSQL_* > legacy env > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Load defaults
	d := Defaults()
	if err := k.Load(confmap.Provider(map[string]any{
		"database.type":               d.Database.Type,
		"database.host":               d.Database.Host,
		"database.port":               d.Database.Port,
		"database.user":               d.Database.User,
		"database.name":               d.Database.Name,
		"table":                       d.Table,
		"timezone":                    d.Timezone,
		"server.port":                 d.Server.Port,
		"cache.enabled":               d.Cache.Enabled,
		"cache.ttl":                   d.Cache.TTL.String(),
		"alerts.journal.path":         d.Alerts.Journal.Path,
		"alerts.journal.dedup_window": d.Alerts.Journal.DedupWindow.String(),
		"log_level":                   d.LogLevel,
		"log_format":                  d.LogFormat,
		"output":                      d.Output,
		"verbose":                     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Legacy deployment variables
	if err := k.Load(env.ProviderWithValue("", ".", legacyEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. DASHSQL_ variables
	// Transform: DASHSQL_CACHE__TTL -> cache.ttl
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringToParamsHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// legacyEnvKey maps a legacy variable to its config key. PROCESS_DB_NAME
// wins over DB_NAME regardless of environment order.
func legacyEnvKey(key, value string) (string, any) {
	target, ok := legacyEnv[key]
	if !ok || value == "" {
		return "", nil
	}
	if key == "DB_NAME" && os.Getenv("PROCESS_DB_NAME") != "" {
		return "", nil
	}
	return target, value
}

// stringToParamsHookFunc decodes "k1=v1,k2=v2" into a map[string]string so
// database.params can be set from a single environment variable.
func stringToParamsHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(map[string]string{}) {
			return data, nil
		}
		raw, _ := data.(string)
		out := make(map[string]string)
		for _, pair := range strings.Split(raw, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
			}
			out[strings.TrimSpace(key)] = strings.TrimSpace(val)
		}
		return out, nil
	}
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// SetCurrentConfig replaces the loaded configuration. Used for testing.
func SetCurrentConfig(cfg *Config) {
	currentConfig = cfg
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
