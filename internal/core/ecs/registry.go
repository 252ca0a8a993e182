package ecs

import (
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ComponentID is the process-stable integer identifier a component type is
// assigned on first registration. All storage keys off this identifier, never
// off reflection.
type ComponentID uint16

// ResourceID identifies a resource type. Resources live in a namespace
// independent from components; the two are never compared against each other.
type ResourceID uint16

type typeEntry struct {
	typ  reflect.Type
	name string
	// sig is the xxhash of the fully-qualified type name. Unlike the
	// sequentially-assigned ID it is stable across process runs, which is
	// what the string-keyed dynamic lookup path and the inspector report.
	sig  uint64
	size uintptr
}

// Registry maps component and resource types to stable integer identifiers.
// Registration is idempotent: two identical types always map to the same
// identifier within a process run.
type Registry struct {
	mu sync.RWMutex

	components []typeEntry
	compByType map[reflect.Type]ComponentID
	compByName map[string]ComponentID
	resources  []typeEntry
	resByType  map[reflect.Type]ResourceID
	resByName  map[string]ResourceID
}

func NewRegistry() *Registry {
	return &Registry{
		compByType: make(map[reflect.Type]ComponentID, 16),
		compByName: make(map[string]ComponentID, 16),
		resByType:  make(map[reflect.Type]ResourceID, 8),
		resByName:  make(map[string]ResourceID, 8),
	}
}

// RegisterComponent returns the identifier for t, assigning the next free
// one on first sight. Pointer types are normalized to their element type.
func (r *Registry) RegisterComponent(t reflect.Type) ComponentID {
	t = normalize(t)

	r.mu.RLock()
	if id, ok := r.compByType[t]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.compByType[t]; ok {
		return id
	}
	if len(r.components) >= MaxComponentTypes {
		panic("ecs: too many component types")
	}
	id := ComponentID(len(r.components))
	name := t.String()
	r.components = append(r.components, typeEntry{
		typ:  t,
		name: name,
		sig:  xxhash.Sum64String(name),
		size: t.Size(),
	})
	r.compByType[t] = id
	r.compByName[name] = id
	return id
}

// RegisterResource returns the identifier for resource type t.
func (r *Registry) RegisterResource(t reflect.Type) ResourceID {
	t = normalize(t)

	r.mu.RLock()
	if id, ok := r.resByType[t]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.resByType[t]; ok {
		return id
	}
	id := ResourceID(len(r.resources))
	name := t.String()
	r.resources = append(r.resources, typeEntry{
		typ:  t,
		name: name,
		sig:  xxhash.Sum64String(name),
		size: t.Size(),
	})
	r.resByType[t] = id
	r.resByName[name] = id
	return id
}

// ComponentByName resolves a registered component by its fully-qualified
// type name. This is the lookup path dynamically-typed callers (the script
// adapter) use to build query descriptors without compile-time types.
func (r *Registry) ComponentByName(name string) (ComponentID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.compByName[name]
	return id, ok
}

// ResourceByName resolves a registered resource by type name.
func (r *Registry) ResourceByName(name string) (ResourceID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.resByName[name]
	return id, ok
}

// ComponentType returns the reflect.Type behind id.
func (r *Registry) ComponentType(id ComponentID) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.components) {
		return nil, false
	}
	return r.components[id].typ, true
}

// ComponentName returns the registered name of id.
func (r *Registry) ComponentName(id ComponentID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.components) {
		return "<unregistered>"
	}
	return r.components[id].name
}

// ResourceName returns the registered name of id.
func (r *Registry) ResourceName(id ResourceID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.resources) {
		return "<unregistered>"
	}
	return r.resources[id].name
}

// ComponentSignature returns the cross-run-stable name hash of id.
func (r *Registry) ComponentSignature(id ComponentID) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.components) {
		return 0
	}
	return r.components[id].sig
}

// ComponentCount returns the number of registered component types.
func (r *Registry) ComponentCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

func (r *Registry) validComponent(id ComponentID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(id) < len(r.components)
}

func normalize(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// ComponentIDOf registers (if needed) and returns the identifier of T in
// w's registry.
func ComponentIDOf[T any](w *World) ComponentID {
	return w.registry.RegisterComponent(reflect.TypeFor[T]())
}

// ResourceIDOf registers (if needed) and returns the resource identifier of
// T in w's registry.
func ResourceIDOf[T any](w *World) ResourceID {
	return w.registry.RegisterResource(reflect.TypeFor[T]())
}
