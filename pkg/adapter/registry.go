package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// Factory builds an unconnected adapter. A nil logger means discard.
type Factory func(*slog.Logger) Adapter

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// normalize folds a database.type value to its registry key.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register makes a driver adapter available under name, which is matched
// case-insensitively. Adapter packages call it from init. Registering a nil
// factory panics; registering a name again replaces the factory.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("adapter: Register factory is nil for " + name)
	}
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[normalize(name)] = factory
}

// Get returns the factory registered under name.
func Get(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[normalize(name)]
	return f, ok
}

// NewAdapter builds the unconnected adapter for cfg.Type.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if normalize(cfg.Type) == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	a := factory(logger)
	if a == nil {
		return nil, fmt.Errorf("adapter %q factory returned nil", cfg.Type)
	}
	return a, nil
}

// Open is NewAdapter followed by Connect: it returns an adapter whose pool is
// ready for queries, or an error naming the adapter type and target host.
// Nothing is left open on failure. The caller owns the returned pool and
// must Close it.
func Open(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	a, err := NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("%s adapter: connect to %s: %w", normalize(cfg.Type), cfg.Host, err)
	}
	return a, nil
}

// ListAdapters returns the registered adapter names, sorted.
func ListAdapters() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name has a registered adapter.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// UnknownAdapterError is returned for a database.type with no registered
// adapter.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check database.type in dashsql.yaml", e.Type, e.Available)
}
