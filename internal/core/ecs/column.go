package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// Column is the dense storage for one component type inside one archetype.
// Values live in a dense array; a sparse array keyed by entity slot maps to
// the dense index; a reverse array maps dense index back to the entity so
// swap-removal can fix up the sparse entry of the moved element. Two
// parallel tick arrays record when each slot was added and last changed.
//
// Every column carries its own read/write lock. The scheduler's static
// conflict check guarantees the lock is never contended, so an acquisition
// that would block is treated as a programming-invariant violation, not as
// a queue.
type Column struct {
	mu  sync.RWMutex
	id  ComponentID
	typ reflect.Type

	data     reflect.Value // addressable slice of typ
	sparse   []int32       // entity slot -> dense index, -1 when absent
	entities []Entity      // dense index -> entity
	added    []Tick
	changed  []Tick
}

func newColumn(id ComponentID, typ reflect.Type) *Column {
	return &Column{
		id:   id,
		typ:  typ,
		data: reflect.New(reflect.SliceOf(typ)).Elem(),
	}
}

// Len returns the number of live slots.
func (c *Column) Len() int {
	return len(c.entities)
}

func (c *Column) denseOf(slot uint32) int {
	if int(slot) >= len(c.sparse) {
		return -1
	}
	return int(c.sparse[slot])
}

func (c *Column) ensureSparse(slot uint32) {
	for int(slot) >= len(c.sparse) {
		c.sparse = append(c.sparse, -1)
	}
}

// append adds a value for e, stamping both tick entries with tick.
func (c *Column) append(e Entity, v reflect.Value, tick Tick) {
	c.appendWithTicks(e, v, newComponentTicks(tick))
}

// appendWithTicks adds a value for e, preserving a prior tick pair. Used by
// archetype migration so moving an entity does not reset its change history.
func (c *Column) appendWithTicks(e Entity, v reflect.Value, ticks ComponentTicks) {
	c.acquireWrite()
	defer c.mu.Unlock()

	c.data.Set(reflect.Append(c.data, v))
	c.entities = append(c.entities, e)
	c.added = append(c.added, ticks.Added)
	c.changed = append(c.changed, ticks.Changed)
	c.ensureSparse(e.ID)
	c.sparse[e.ID] = int32(len(c.entities) - 1)
}

// swapRemove removes e's value, moving the last dense element into the
// vacated slot and fixing up its sparse entry. Returns the removed value and
// its tick pair, or ok=false when e has no slot here.
func (c *Column) swapRemove(e Entity) (reflect.Value, ComponentTicks, bool) {
	c.acquireWrite()
	defer c.mu.Unlock()

	dense := c.denseOf(e.ID)
	if dense < 0 || c.entities[dense] != e {
		return reflect.Value{}, ComponentTicks{}, false
	}

	removed := reflect.New(c.typ).Elem()
	removed.Set(c.data.Index(dense))
	ticks := ComponentTicks{Added: c.added[dense], Changed: c.changed[dense]}

	last := len(c.entities) - 1
	if dense != last {
		moved := c.entities[last]
		c.data.Index(dense).Set(c.data.Index(last))
		c.entities[dense] = moved
		c.added[dense] = c.added[last]
		c.changed[dense] = c.changed[last]
		c.sparse[moved.ID] = int32(dense)
	}
	c.data.SetLen(last)
	c.entities = c.entities[:last]
	c.added = c.added[:last]
	c.changed = c.changed[:last]
	c.sparse[e.ID] = -1

	return removed, ticks, true
}

// value returns a copy of e's component, or ok=false when absent.
func (c *Column) value(e Entity) (any, bool) {
	c.acquireRead()
	defer c.mu.RUnlock()

	dense := c.denseOf(e.ID)
	if dense < 0 || c.entities[dense] != e {
		return nil, false
	}
	return c.data.Index(dense).Interface(), true
}

// ptrAt returns a pointer to the dense slot. The caller must hold the
// column lock for the duration of use.
func (c *Column) ptrAt(dense int) any {
	return c.data.Index(dense).Addr().Interface()
}

func (c *Column) ticksAt(dense int) ComponentTicks {
	return ComponentTicks{Added: c.added[dense], Changed: c.changed[dense]}
}

func (c *Column) markChanged(dense int, tick Tick) {
	c.changed[dense] = tick
}

// release drops the column's backing arrays. Called only from the explicit
// GC pass once the owning archetype is empty.
func (c *Column) release() {
	c.acquireWrite()
	defer c.mu.Unlock()

	c.data = reflect.New(reflect.SliceOf(c.typ)).Elem()
	c.sparse = nil
	c.entities = nil
	c.added = nil
	c.changed = nil
}

// checkInvariant verifies sparse/dense consistency. Test hook.
func (c *Column) checkInvariant() error {
	c.acquireRead()
	defer c.mu.RUnlock()

	for i, e := range c.entities {
		if c.denseOf(e.ID) != i {
			return fmt.Errorf("ecs: column %d sparse[%d]=%d, want %d", c.id, e.ID, c.denseOf(e.ID), i)
		}
	}
	return nil
}

func (c *Column) acquireRead() {
	if !c.mu.TryRLock() {
		panic(fmt.Sprintf("ecs: read borrow of component %d would block; conflicting write borrow is live", c.id))
	}
}

func (c *Column) acquireWrite() {
	if !c.mu.TryLock() {
		panic(fmt.Sprintf("ecs: write borrow of component %d would block; conflicting borrow is live", c.id))
	}
}

func (c *Column) releaseRead()  { c.mu.RUnlock() }
func (c *Column) releaseWrite() { c.mu.Unlock() }
