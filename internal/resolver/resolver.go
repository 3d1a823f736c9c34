// Package resolver maps dashboard roles onto the physical columns of a table
// whose schema is only known at run time.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/dashsql/pkg/core"
	"golang.org/x/text/cases"
)

// Catalog lists the columns of a table in physical order.
type Catalog interface {
	ListColumns(ctx context.Context, table string) ([]core.ColumnMetadata, error)
}

// ColumnResolver produces the Column Map for a table.
type ColumnResolver interface {
	Resolve(ctx context.Context, table string) (core.ColumnMap, error)
}

// Resolver resolves Column Maps from the live catalog on every call.
type Resolver struct {
	catalog Catalog
	rules   []Rule
	logger  *slog.Logger
}

// New creates a Resolver using DefaultRules.
// If logger is nil, a discard logger is used.
func New(catalog Catalog, logger *slog.Logger) *Resolver {
	return NewWithRules(catalog, DefaultRules, logger)
}

// NewWithRules creates a Resolver with a custom role table.
func NewWithRules(catalog Catalog, rules []Rule, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{catalog: catalog, rules: rules, logger: logger}
}

// Resolve loads the columns of table and binds every role.
func (r *Resolver) Resolve(ctx context.Context, table string) (core.ColumnMap, error) {
	columns, err := r.catalog.ListColumns(ctx, table)
	if err != nil {
		return core.ColumnMap{}, fmt.Errorf("failed to load columns of %s: %w", table, err)
	}

	m := Build(table, columns, r.rules)
	r.logger.Debug("resolved column map",
		slog.String("table", table),
		slog.Int("columns", len(columns)),
		slog.String("date", m.DateCol),
		slog.String("quantity", m.QuantityCol),
		slog.String("lot", m.LotCol),
		slog.String("result", m.ResultCol),
	)
	return m, nil
}

// Build binds every role in rules against columns. It is deterministic:
// the same columns and rules always yield the same map.
func Build(table string, columns []core.ColumnMetadata, rules []Rule) core.ColumnMap {
	m := core.ColumnMap{
		Table:       table,
		NumericCols: NumericColumns(columns),
	}

	for _, rule := range rules {
		name := Match(columns, rule.Candidates)
		if name == "" {
			name = applyFallback(rule.Fallback, columns, m.NumericCols)
		}
		assign(&m, rule.Role, name)
	}
	return m
}

// Match finds the column for an ordered candidate list in two passes.
// The first pass looks for an exact case-insensitive match, trying candidates
// in order. The second pass accepts substring containment in either direction.
// It returns "" when nothing matches.
func Match(columns []core.ColumnMetadata, candidates []string) string {
	fold := cases.Fold()
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = fold.String(c.Name)
	}
	folded := make([]string, len(candidates))
	for i, cand := range candidates {
		folded[i] = fold.String(cand)
	}

	for _, cand := range folded {
		for i, name := range names {
			if name != "" && name == cand {
				return columns[i].Name
			}
		}
	}

	for _, cand := range folded {
		if cand == "" {
			continue
		}
		for i, name := range names {
			if name == "" {
				continue
			}
			if strings.Contains(name, cand) || strings.Contains(cand, name) {
				return columns[i].Name
			}
		}
	}
	return ""
}

// NumericColumns returns the names of numeric-typed columns in catalog order.
func NumericColumns(columns []core.ColumnMetadata) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if core.IsNumericType(c.Type) {
			out = append(out, c.Name)
		}
	}
	return out
}

func applyFallback(f Fallback, columns []core.ColumnMetadata, numeric []string) string {
	switch f {
	case FallbackDateType:
		for _, c := range columns {
			if core.IsDateType(c.Type) {
				return c.Name
			}
		}
	case FallbackNumeric:
		for _, name := range numeric {
			if !containsAny(strings.ToLower(name), quantityExcluded) {
				return name
			}
		}
	}
	return ""
}

func containsAny(s string, frags []string) bool {
	for _, f := range frags {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func assign(m *core.ColumnMap, role Role, name string) {
	switch role {
	case RoleDate:
		m.DateCol = name
	case RoleQuantity:
		m.QuantityCol = name
	case RolePassRate:
		m.PassRateCol = name
	case RoleDefect:
		m.DefectCol = name
	case RoleConsumption:
		m.ConsumptionCol = name
	case RoleEfficiency:
		m.EfficiencyCol = name
	case RoleLine:
		m.LineCol = name
	case RoleLot:
		m.LotCol = name
	case RoleResult:
		m.ResultCol = name
	}
}

var _ ColumnResolver = (*Resolver)(nil)
