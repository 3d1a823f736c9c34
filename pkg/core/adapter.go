package core

import (
	"database/sql"
	"time"
)

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Params   map[string]string

	// Pool settings. Zero values leave the database/sql defaults in place.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ColumnMetadata is one row of catalog output.
// Type is the raw database type name (e.g. "int", "datetime").
type ColumnMetadata struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
