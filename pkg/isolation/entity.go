package isolation

import (
	"fmt"
	"sync"
)

// DefaultTenantColumn is the column name assumed for tenant-scoped entities
// that do not override it.
const DefaultTenantColumn = "organization_id"

// Entity describes a persisted table to the isolation layer. TenantScoped is
// an explicit trait declared at registration time: the interceptor never
// probes a schema to guess whether a table carries the organization column.
type Entity struct {
	// Name uniquely identifies the entity within a registry.
	Name string

	// Table is the SQL table name.
	Table string

	// TenantScoped marks rows of this entity as owned by exactly one
	// organization for their entire lifetime.
	TenantScoped bool

	// TenantColumn overrides DefaultTenantColumn when set.
	TenantColumn string

	// registered is set by Registry.Register; the store refuses statements
	// built from descriptors that never went through a registry.
	registered bool
}

func (e *Entity) tenantColumn() string {
	if e.TenantColumn != "" {
		return e.TenantColumn
	}
	return DefaultTenantColumn
}

// qualifiedTenantColumn returns the table-qualified column so the predicate
// stays unambiguous when the statement joins several tables.
func (e *Entity) qualifiedTenantColumn() string {
	return e.Table + "." + e.tenantColumn()
}

// Registry holds registered entities. Registration happens once at startup;
// lookups afterwards are read-only.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Entity
}

// NewRegistry creates an empty entity registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Entity)}
}

// Register validates and stores an entity descriptor, returning the canonical
// pointer callers pass into statement constructors.
func (r *Registry) Register(e Entity) (*Entity, error) {
	if e.Name == "" || e.Table == "" {
		return nil, fmt.Errorf("%w: name and table are required", ErrInvalidEntity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[e.Name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.Name)
	}

	stored := e
	stored.registered = true
	r.byName[e.Name] = &stored
	return &stored, nil
}

// MustRegister is Register for package-level variable initialization.
// Panics on error because a broken entity set should prevent startup.
func (r *Registry) MustRegister(e Entity) *Entity {
	entity, err := r.Register(e)
	if err != nil {
		panic(err)
	}
	return entity
}

// Lookup returns the entity registered under name.
func (r *Registry) Lookup(name string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.byName[name]
	return entity, ok
}

// defaultRegistry backs the package-level registration helpers. Applications
// with a single entity set use these; tests create their own Registry.
var defaultRegistry = NewRegistry()

// Register adds an entity to the default registry.
func Register(e Entity) (*Entity, error) {
	return defaultRegistry.Register(e)
}

// MustRegister adds an entity to the default registry, panicking on error.
func MustRegister(e Entity) *Entity {
	return defaultRegistry.MustRegister(e)
}
