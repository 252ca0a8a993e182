package ecs

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// resourceTable holds one singleton value per registered resource type,
// each behind its own read/write lock with the same non-blocking borrow
// discipline as component columns.
type resourceTable struct {
	registry *Registry

	mu    sync.RWMutex
	slots map[ResourceID]*resourceSlot
}

type resourceSlot struct {
	mu    sync.RWMutex
	id    ResourceID
	value reflect.Value // pointer to the stored value
}

func newResourceTable(reg *Registry) *resourceTable {
	return &resourceTable{
		registry: reg,
		slots:    make(map[ResourceID]*resourceSlot, 8),
	}
}

func (t *resourceTable) insert(rid ResourceID, v reflect.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.slots[rid]; ok {
		return errors.Wrap(ErrResourceExists, t.registry.ResourceName(rid))
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	t.slots[rid] = &resourceSlot{id: rid, value: ptr}
	return nil
}

func (t *resourceTable) remove(rid ResourceID) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, ok := t.slots[rid]
	if !ok {
		return nil, false
	}
	if !slot.mu.TryLock() {
		panic(fmt.Sprintf("ecs: removal of resource %s with a live borrow", t.registry.ResourceName(rid)))
	}
	delete(t.slots, rid)
	v := slot.value.Elem().Interface()
	slot.mu.Unlock()
	return v, true
}

func (t *resourceTable) lookup(rid ResourceID) (*resourceSlot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	slot, ok := t.slots[rid]
	return slot, ok
}

func (t *resourceTable) has(rid ResourceID) bool {
	_, ok := t.lookup(rid)
	return ok
}

func (s *resourceSlot) acquireRead(name string) {
	if !s.mu.TryRLock() {
		panic(fmt.Sprintf("ecs: read borrow of resource %s would block; conflicting write borrow is live", name))
	}
}

func (s *resourceSlot) acquireWrite(name string) {
	if !s.mu.TryLock() {
		panic(fmt.Sprintf("ecs: write borrow of resource %s would block; conflicting borrow is live", name))
	}
}

// InsertResource stores v as the world's singleton of its type. Inserting a
// second value of the same type without removal is an error.
func (w *World) InsertResource(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	rid := w.registry.RegisterResource(rv.Type())
	return w.resources.insert(rid, rv)
}

// HasResource reports whether a resource of T's type is present.
func HasResource[T any](w *World) bool {
	return w.resources.has(ResourceIDOf[T](w))
}

// Resource returns a read borrow of the T singleton. The value is valid
// until release; absence reports ok=false.
func Resource[T any](w *World) (value *T, release func(), ok bool) {
	rid := ResourceIDOf[T](w)
	slot, found := w.resources.lookup(rid)
	if !found {
		return nil, nil, false
	}
	slot.acquireRead(w.registry.ResourceName(rid))
	return slot.value.Interface().(*T), slot.mu.RUnlock, true
}

// ResourceMut returns a write borrow of the T singleton.
func ResourceMut[T any](w *World) (value *T, release func(), ok bool) {
	rid := ResourceIDOf[T](w)
	slot, found := w.resources.lookup(rid)
	if !found {
		return nil, nil, false
	}
	slot.acquireWrite(w.registry.ResourceName(rid))
	return slot.value.Interface().(*T), slot.mu.Unlock, true
}

// RemoveResource deletes the T singleton and returns the removed value.
func RemoveResource[T any](w *World) (T, bool) {
	var zero T
	v, ok := w.resources.remove(ResourceIDOf[T](w))
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// InitResource inserts T's zero value unless a singleton already exists.
// Systems that need a resource to merely exist use this during setup.
func InitResource[T any](w *World) {
	if HasResource[T](w) {
		return
	}
	var v T
	_ = w.InsertResource(v)
}
