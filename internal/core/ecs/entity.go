package ecs

import (
	"fmt"
	"math"
	"sync"
)

// Entity is an opaque generational identifier for a simulated object. The
// slot ID is recycled after the entity is destroyed; the generation is bumped
// on every reuse so stale handles compare unequal to the live occupant.
type Entity struct {
	ID         uint32
	Generation uint32
}

const (
	placeholderID         = math.MaxUint32
	placeholderGeneration = math.MaxUint32
)

// Placeholder is the reserved sentinel entity. It is never issued by the
// allocator and never refers to live data.
var Placeholder = Entity{ID: placeholderID, Generation: placeholderGeneration}

// IsPlaceholder reports whether e is the reserved sentinel.
func (e Entity) IsPlaceholder() bool {
	return e == Placeholder
}

func (e Entity) String() string {
	if e.IsPlaceholder() {
		return "Entity(placeholder)"
	}
	return fmt.Sprintf("Entity(%dv%d)", e.ID, e.Generation)
}

// Allocator issues unique, generation-stamped entity identifiers and
// reclaims freed slots. It is safe for concurrent use so deferred command
// buffers can reserve entities while a pass is in flight.
type Allocator struct {
	mu          sync.Mutex
	generations []uint32
	alive       []bool
	free        []uint32
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Alloc pops a reclaimed slot and reuses its current generation, or extends
// the slot space with a fresh slot at generation zero. It panics only on
// absolute identifier-space exhaustion.
func (a *Allocator) Alloc() Entity {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		slot := a.free[n-1]
		a.free = a.free[:n-1]
		a.alive[slot] = true
		return Entity{ID: slot, Generation: a.generations[slot]}
	}

	slot := len(a.generations)
	if slot >= placeholderID {
		panic("ecs: entity identifier space exhausted")
	}
	a.generations = append(a.generations, 0)
	a.alive = append(a.alive, true)
	return Entity{ID: uint32(slot), Generation: 0}
}

// Dealloc pushes the slot onto the free list and bumps its generation. The
// bump skips the reserved placeholder generation so no live entity can ever
// compare equal to the sentinel.
func (a *Allocator) Dealloc(e Entity) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.contains(e) {
		return false
	}
	a.alive[e.ID] = false
	next := a.generations[e.ID] + 1
	if next == placeholderGeneration {
		next = 0
	}
	a.generations[e.ID] = next
	a.free = append(a.free, e.ID)
	return true
}

// Contains reports whether e is a currently-live identifier. A stale handle
// whose slot was reallocated is reported dead.
func (a *Allocator) Contains(e Entity) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.contains(e)
}

func (a *Allocator) contains(e Entity) bool {
	if int(e.ID) >= len(a.generations) {
		return false
	}
	return a.alive[e.ID] && a.generations[e.ID] == e.Generation
}

// Live returns the number of currently-live entities.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, ok := range a.alive {
		if ok {
			n++
		}
	}
	return n
}
