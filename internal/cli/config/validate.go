package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dashsql/pkg/adapter"
	"github.com/leapstack-labs/dashsql/pkg/ident"
)

// Valid output modes.
var outputModes = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	dbType := strings.ToLower(c.Database.Type)
	if dbType == "" {
		return fmt.Errorf("database.type is required")
	}
	if !adapter.IsRegistered(dbType) {
		return &adapter.UnknownAdapterError{Type: c.Database.Type, Available: adapter.ListAdapters()}
	}
	c.Database.Type = dbType

	if c.Table != "" && !ident.IsSafeName(c.Table) {
		return fmt.Errorf("table %q contains characters outside [A-Za-z0-9_ ]", c.Table)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port %d out of range 1-65535", c.Database.Port)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 0-65535", c.Server.Port)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}
	if c.Alerts.Journal.Enabled && c.Alerts.Journal.Path == "" {
		return fmt.Errorf("alerts.journal.path is required when the journal is enabled")
	}
	if c.Alerts.Journal.DedupWindow < 0 {
		return fmt.Errorf("alerts.journal.dedup_window must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format %q must be text or json", c.LogFormat)
	}
	if c.Output != "" && !contains(outputModes, strings.ToLower(c.Output)) {
		return fmt.Errorf("output %q must be one of %s", c.Output, strings.Join(outputModes, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
