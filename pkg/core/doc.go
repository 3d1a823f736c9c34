// Package core defines the shared language of the dashsql system.
//
// This package contains:
//   - Catalog entities (ColumnMetadata, ColumnMap)
//   - Dashboard values (DateRangeSet, LotSummary, Alert, Sensor, CalendarDay)
//   - Adapter configuration and row types (AdapterConfig, Rows)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
