package ecs

import (
	"sort"
	"strings"
)

// Access is the declared data footprint of a system or query: which
// component and resource types it reads and writes, plus whether it demands
// the whole world to itself. The scheduler compares descriptors pairwise to
// decide what may run concurrently.
type Access struct {
	compRead  typeMask
	compWrite typeMask
	resRead   map[ResourceID]struct{}
	resWrite  map[ResourceID]struct{}
	exclusive bool
}

func NewAccess() *Access {
	return &Access{
		resRead:  make(map[ResourceID]struct{}),
		resWrite: make(map[ResourceID]struct{}),
	}
}

func (a *Access) ReadComponent(id ComponentID) *Access {
	a.compRead.set(id)
	return a
}

func (a *Access) WriteComponent(id ComponentID) *Access {
	a.compWrite.set(id)
	return a
}

func (a *Access) ReadResource(id ResourceID) *Access {
	a.resRead[id] = struct{}{}
	return a
}

func (a *Access) WriteResource(id ResourceID) *Access {
	a.resWrite[id] = struct{}{}
	return a
}

// Exclusive marks the descriptor incompatible with every other descriptor,
// including another exclusive one.
func (a *Access) Exclusive() *Access {
	a.exclusive = true
	return a
}

func (a *Access) IsExclusive() bool {
	return a.exclusive
}

func (a *Access) ReadsComponent(id ComponentID) bool  { return a.compRead.has(id) }
func (a *Access) WritesComponent(id ComponentID) bool { return a.compWrite.has(id) }

func (a *Access) ReadsResource(id ResourceID) bool {
	_, ok := a.resRead[id]
	return ok
}

func (a *Access) WritesResource(id ResourceID) bool {
	_, ok := a.resWrite[id]
	return ok
}

// Merge unions other into a. Query construction merges one term at a time.
func (a *Access) Merge(other *Access) *Access {
	for i := range a.compRead {
		a.compRead[i] |= other.compRead[i]
		a.compWrite[i] |= other.compWrite[i]
	}
	for id := range other.resRead {
		a.resRead[id] = struct{}{}
	}
	for id := range other.resWrite {
		a.resWrite[id] = struct{}{}
	}
	a.exclusive = a.exclusive || other.exclusive
	return a
}

// CompatibleWith reports whether a and other may run concurrently: neither
// side's written set may intersect the other's written or read set.
// Components and resources are checked independently; read/read overlap is
// always fine.
func (a *Access) CompatibleWith(other *Access) bool {
	if a.exclusive || other.exclusive {
		return false
	}
	if a.compWrite.intersects(other.compWrite) ||
		a.compWrite.intersects(other.compRead) ||
		other.compWrite.intersects(a.compRead) {
		return false
	}
	if intersectRes(a.resWrite, other.resWrite) ||
		intersectRes(a.resWrite, other.resRead) ||
		intersectRes(other.resWrite, a.resRead) {
		return false
	}
	return true
}

func intersectRes(a, b map[ResourceID]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for id := range a {
		if _, ok := b[id]; ok {
			return true
		}
	}
	return false
}

// Describe renders the footprint with registered names, for conflict
// diagnostics and the inspector.
func (a *Access) Describe(reg *Registry) string {
	var b strings.Builder
	if a.exclusive {
		b.WriteString("exclusive")
	}
	appendSet := func(label string, ids []ComponentID) {
		if len(ids) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(label)
		b.WriteByte(' ')
		for i, id := range ids {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(reg.ComponentName(id))
		}
	}
	appendSet("reads", a.compRead.ids())
	appendSet("writes", a.compWrite.ids())
	appendResSet := func(label string, set map[ResourceID]struct{}) {
		if len(set) == 0 {
			return
		}
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(label)
		b.WriteByte(' ')
		for i, id := range ids {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(reg.ResourceName(ResourceID(id)))
		}
	}
	appendResSet("reads res", a.resRead)
	appendResSet("writes res", a.resWrite)
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}
