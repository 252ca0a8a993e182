package ecs

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// World owns the archetypes, the entity->archetype index, the resource
// table and the monotonic change tick. Every other piece of the engine is
// built on top of it.
//
// Structural mutation (spawn, insert, remove, destroy) takes the world's
// write lock and therefore must not run while systems are iterating; the
// scheduler routes mid-pass mutation through command buffers instead.
type World struct {
	id  uuid.UUID
	log *zap.Logger

	registry  *Registry
	allocator *Allocator
	resources *resourceTable

	mu         sync.RWMutex
	archetypes []*Archetype
	byMask     map[typeMask]int
	archOf     map[uint32]int // entity slot -> archetype index

	// archVersion bumps on every archetype creation. Queries memoize their
	// matching archetype list against it.
	archVersion atomic.Uint64

	// accessMemo caches computed query footprints keyed by term sequence.
	accessMemo sync.Map

	tick atomic.Uint64
}

// Option configures a World at construction.
type Option func(*World)

// WithLogger routes the world's diagnostics through log.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) { w.log = log }
}

func NewWorld(opts ...Option) *World {
	w := &World{
		id:        uuid.New(),
		log:       zap.NewNop(),
		registry:  NewRegistry(),
		allocator: NewAllocator(),
		byMask:    make(map[typeMask]int),
		archOf:    make(map[uint32]int),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.resources = newResourceTable(w.registry)
	// Tick zero is reserved as "before any pass" so fresh queries have a
	// strictly older last_run to compare against.
	w.tick.Store(1)
	return w
}

// ID returns the world's instance identifier.
func (w *World) ID() uuid.UUID { return w.id }

// Registry exposes the type registry, mainly to the dynamic lookup path.
func (w *World) Registry() *Registry { return w.registry }

// Tick returns the current change tick.
func (w *World) Tick() Tick {
	return Tick(w.tick.Load())
}

// AdvanceTick moves the change window forward. The scheduler calls it once
// per pass, never per system, so all systems of one pass share a window.
func (w *World) AdvanceTick() Tick {
	return Tick(w.tick.Add(1))
}

// Alive reports whether e is a currently-live entity.
func (w *World) Alive(e Entity) bool {
	return w.allocator.Contains(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.allocator.Live()
}

// ArchetypeCount returns the number of distinct archetypes ever created,
// including empty ones retained for reuse.
func (w *World) ArchetypeCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.archetypes)
}

// Spawn creates a new entity carrying the given component values. Passing
// two values of the same component type is rejected before any state
// changes. Spawning with no components places the entity in the empty
// archetype.
func (w *World) Spawn(components ...any) (Entity, error) {
	ids, values, err := w.decompose(components)
	if err != nil {
		return Placeholder, err
	}

	e := w.allocator.Alloc()
	tick := w.Tick()

	w.mu.Lock()
	defer w.mu.Unlock()

	var mask typeMask
	for _, cid := range ids {
		mask.set(cid)
	}
	arch := w.archetypeFor(mask)

	ticks := make(map[ComponentID]ComponentTicks, len(ids))
	for _, cid := range ids {
		ticks[cid] = newComponentTicks(tick)
	}
	arch.push(e, values, ticks)
	w.archOf[e.ID] = arch.id
	return e, nil
}

// Insert attaches additional components to e, migrating it to the archetype
// matching its widened type set. Attaching a type e already carries is an
// error and leaves e untouched.
func (w *World) Insert(e Entity, components ...any) error {
	if !w.allocator.Contains(e) {
		return errors.Wrapf(ErrEntityNotAlive, "insert into %s", e)
	}
	ids, values, err := w.decompose(components)
	if err != nil {
		return err
	}
	tick := w.Tick()

	w.mu.Lock()
	defer w.mu.Unlock()

	moved := make(map[ComponentID]reflect.Value, len(ids))
	ticks := make(map[ComponentID]ComponentTicks, len(ids))
	var mask typeMask

	// A command-reserved entity that was never placed starts from the
	// empty type set.
	if idx, placed := w.archOf[e.ID]; placed {
		old := w.archetypes[idx]
		mask = old.mask
		for _, cid := range ids {
			if mask.has(cid) {
				return errors.Wrapf(ErrDuplicateComponent, "%s on %s", w.registry.ComponentName(cid), e)
			}
		}
		var ok bool
		moved, ticks, ok = old.removeRow(e)
		if !ok {
			return errors.Wrapf(ErrEntityNotAlive, "insert into %s", e)
		}
	}

	for _, cid := range ids {
		mask.set(cid)
		moved[cid] = values[cid]
		ticks[cid] = newComponentTicks(tick)
	}

	arch := w.archetypeFor(mask)
	arch.push(e, moved, ticks)
	w.archOf[e.ID] = arch.id
	return nil
}

// RemoveID detaches the component identified by cid from e, migrating e to
// the narrowed archetype, and returns the removed value. A type e does not
// carry reports absence, not an error.
func (w *World) RemoveID(e Entity, cid ComponentID) (any, bool, error) {
	if !w.allocator.Contains(e) {
		return nil, false, errors.Wrapf(ErrEntityNotAlive, "remove from %s", e)
	}
	if !w.registry.validComponent(cid) {
		return nil, false, errors.Wrapf(ErrComponentNotRegistered, "component %d", cid)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx, placed := w.archOf[e.ID]
	if !placed {
		return nil, false, nil
	}
	old := w.archetypes[idx]
	if !old.mask.has(cid) {
		return nil, false, nil
	}

	moved, ticks, ok := old.removeRow(e)
	if !ok {
		return nil, false, errors.Wrapf(ErrEntityNotAlive, "remove from %s", e)
	}
	removed := moved[cid]
	delete(moved, cid)
	delete(ticks, cid)

	mask := old.mask
	mask.unset(cid)
	arch := w.archetypeFor(mask)
	arch.push(e, moved, ticks)
	w.archOf[e.ID] = arch.id
	return removed.Interface(), true, nil
}

// Destroy removes e from its archetype and retires its identifier. The slot
// generation bumps so stale handles compare dead.
func (w *World) Destroy(e Entity) error {
	if !w.allocator.Contains(e) {
		return errors.Wrapf(ErrEntityNotAlive, "destroy %s", e)
	}

	w.mu.Lock()
	// A command-reserved entity may die before its placement applies, in
	// which case it has no archetype yet.
	if idx, ok := w.archOf[e.ID]; ok {
		w.archetypes[idx].removeRow(e)
		delete(w.archOf, e.ID)
	}
	w.mu.Unlock()

	w.allocator.Dealloc(e)
	return nil
}

// GC releases the backing arrays of empty archetypes. Emptiness is common
// and transient under add/remove churn, so reclamation only happens on this
// explicit call, never eagerly.
func (w *World) GC() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	released := 0
	for _, arch := range w.archetypes {
		if arch.Len() == 0 && !arch.mask.isEmpty() {
			arch.release()
			released++
		}
	}
	if released > 0 {
		w.log.Debug("released empty archetype storage", zap.Int("archetypes", released))
	}
	return released
}

// archetypeFor finds or lazily creates the archetype with exactly mask.
// Caller holds w.mu.
func (w *World) archetypeFor(mask typeMask) *Archetype {
	if idx, ok := w.byMask[mask]; ok {
		return w.archetypes[idx]
	}
	arch := newArchetype(len(w.archetypes), mask, w.registry)
	w.archetypes = append(w.archetypes, arch)
	w.byMask[mask] = arch.id
	w.archVersion.Add(1)
	return arch
}

// archetypeOf returns the archetype currently holding e.
func (w *World) archetypeOf(e Entity) (*Archetype, bool) {
	if !w.allocator.Contains(e) {
		return nil, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	idx, ok := w.archOf[e.ID]
	if !ok {
		return nil, false
	}
	return w.archetypes[idx], true
}

// decompose splits component values into registered identifiers and
// reflect values, rejecting duplicate types among the arguments.
func (w *World) decompose(components []any) ([]ComponentID, map[ComponentID]reflect.Value, error) {
	ids := make([]ComponentID, 0, len(components))
	values := make(map[ComponentID]reflect.Value, len(components))
	for _, c := range components {
		v := reflect.ValueOf(c)
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		cid := w.registry.RegisterComponent(v.Type())
		if _, dup := values[cid]; dup {
			return nil, nil, errors.Wrapf(ErrDuplicateComponent, "%s passed twice", v.Type())
		}
		ids = append(ids, cid)
		values[cid] = v
	}
	return ids, values, nil
}

// Has reports whether e currently carries component T.
func Has[T any](w *World, e Entity) bool {
	cid := ComponentIDOf[T](w)
	arch, ok := w.archetypeOf(e)
	return ok && arch.mask.has(cid)
}

// Get returns a copy of e's T component. Absence of the type or the entity
// reports ok=false, never an error.
func Get[T any](w *World, e Entity) (T, bool) {
	var zero T
	cid := ComponentIDOf[T](w)
	arch, ok := w.archetypeOf(e)
	if !ok {
		return zero, false
	}
	col, ok := arch.column(cid)
	if !ok {
		return zero, false
	}
	v, ok := col.value(e)
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// Mut returns a write borrow of e's T component. The pointer is valid until
// release is called; release marks the slot changed at the current tick and
// drops the column lock. Callers must release on every exit path.
func Mut[T any](w *World, e Entity) (ptr *T, release func(), ok bool) {
	cid := ComponentIDOf[T](w)
	arch, found := w.archetypeOf(e)
	if !found {
		return nil, nil, false
	}
	col, found := arch.column(cid)
	if !found {
		return nil, nil, false
	}

	col.acquireWrite()
	row := col.denseOf(e.ID)
	if row < 0 || col.entities[row] != e {
		col.releaseWrite()
		return nil, nil, false
	}
	p := col.ptrAt(row).(*T)
	tick := w.Tick()
	return p, func() {
		col.markChanged(row, tick)
		col.releaseWrite()
	}, true
}

// Remove detaches component T from e and returns the removed value.
func Remove[T any](w *World, e Entity) (T, bool, error) {
	var zero T
	cid := ComponentIDOf[T](w)
	v, ok, err := w.RemoveID(e, cid)
	if err != nil || !ok {
		return zero, ok, err
	}
	return v.(T), true, nil
}
