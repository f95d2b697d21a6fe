package schema

import (
	"sync"

	"github.com/perch-db/perch"
)

// A Registry holds schemas keyed by table name. Callers create registries
// explicitly and pass them where needed; there is no package-level instance.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Add registers a schema under its table name. Re-registering the same
// table is an error.
func (r *Registry) Add(s *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.Table]; ok {
		return perch.NewConstructionError("registry", "table %q already registered", s.Table)
	}
	r.schemas[s.Table] = s
	return nil
}

// MustAdd is Add, panicking on a duplicate table.
func (r *Registry) MustAdd(s *Schema) {
	if err := r.Add(s); err != nil {
		panic(err)
	}
}

// Lookup returns the schema registered under table, or nil.
func (r *Registry) Lookup(table string) *Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[table]
}

// Tables returns the registered table names. Order is unspecified.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tables := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		tables = append(tables, t)
	}
	return tables
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}
