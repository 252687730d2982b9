package schema

import (
	"fmt"
	"reflect"
	"sync"
)

// Schemer is implemented by every persisted type. Schema is called once, on
// first use of the type, with a zero value receiver.
type Schemer interface {
	Schema() *TypeMapping
}

// Registry maps Go types to their TypeMapping.
type Registry struct {
	types sync.Map // reflect.Type -> *TypeMapping
	mu    sync.Mutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default is the process-wide registry. It is populated on first use of each
// type and is never torn down.
var Default = NewRegistry()

// Lookup returns the mapping registered for typ.
func (r *Registry) Lookup(typ reflect.Type) (*TypeMapping, bool) {
	v, ok := r.types.Load(typ)
	if !ok {
		return nil, false
	}
	return v.(*TypeMapping), true
}

// Register associates typ with m and returns the registered mapping. A second
// registration with identical metadata returns the first mapping. Invalid or
// conflicting registrations panic.
func (r *Registry) Register(typ reflect.Type, m *TypeMapping) *TypeMapping {
	mustValid(typ, m)
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.types.Load(typ); ok {
		prev := v.(*TypeMapping)
		if !prev.Equal(m) {
			panic(fmt.Sprintf("schema: conflicting registration for %s: table %q", typ, m.Table))
		}
		return prev
	}
	r.types.Store(typ, m)
	return m
}

// GetOrRegister returns the mapping of typ, calling register to create it if
// the type is not yet known. register runs at most once per type and must not
// call back into the registry.
func (r *Registry) GetOrRegister(typ reflect.Type, register func() *TypeMapping) *TypeMapping {
	if m, ok := r.Lookup(typ); ok {
		return m
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.Lookup(typ); ok {
		return m
	}
	m := register()
	mustValid(typ, m)
	r.types.Store(typ, m)
	return m
}

// Range calls fn for every registered type until fn returns false.
func (r *Registry) Range(fn func(reflect.Type, *TypeMapping) bool) {
	r.types.Range(func(k, v any) bool {
		return fn(k.(reflect.Type), v.(*TypeMapping))
	})
}

// Mapping returns the mapping of T, registering it from T's Schema method on
// first use.
func Mapping[T any, PT interface {
	*T
	Schemer
}](r *Registry) *TypeMapping {
	return r.GetOrRegister(reflect.TypeFor[T](), func() *TypeMapping {
		return PT(new(T)).Schema()
	})
}

func mustValid(typ reflect.Type, m *TypeMapping) {
	if m == nil {
		panic(fmt.Sprintf("schema: %s returned no mapping", typ))
	}
	if err := m.Err(); err != nil {
		panic(fmt.Sprintf("schema: register %s: %v", typ, err))
	}
}
