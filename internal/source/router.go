package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Router maps database types onto adapter factories
type Router struct {
	factories map[string]AdapterFactory
	mu        sync.RWMutex
}

// NewRouter creates a new adapter router
func NewRouter() *Router {
	return &Router{
		factories: make(map[string]AdapterFactory),
	}
}

// RegisterAdapter registers an adapter factory for a database type
func (r *Router) RegisterAdapter(dbType string, factory AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[dbType] = factory
}

// SupportedDatabases returns the registered database types, sorted
func (r *Router) SupportedDatabases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for dbType := range r.factories {
		types = append(types, dbType)
	}
	sort.Strings(types)
	return types
}

// Open creates an adapter for dbType and connects it
func (r *Router) Open(ctx context.Context, dbType string, config ConnectionConfig) (Adapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[dbType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	adapter := factory()
	if err := adapter.Connect(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return adapter, nil
}
