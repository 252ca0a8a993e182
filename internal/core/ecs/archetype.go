package ecs

import "reflect"

// Archetype groups every entity sharing one exact component-type set. It
// owns one Column per type in its mask. All columns append and swap-remove
// in lockstep, so a row index addresses the same entity in every column.
type Archetype struct {
	id   int
	mask typeMask

	columns map[ComponentID]*Column

	// entities and rows duplicate the column-level bookkeeping at the
	// archetype granularity so the empty-mask archetype and entity-only
	// queries work without a component column to lean on.
	entities []Entity
	rows     map[uint32]int
}

func newArchetype(id int, mask typeMask, reg *Registry) *Archetype {
	a := &Archetype{
		id:      id,
		mask:    mask,
		columns: make(map[ComponentID]*Column, mask.count()),
		rows:    make(map[uint32]int),
	}
	for _, cid := range mask.ids() {
		typ, ok := reg.ComponentType(cid)
		if !ok {
			panic("ecs: archetype mask references unregistered component")
		}
		a.columns[cid] = newColumn(cid, typ)
	}
	return a
}

// Len returns the number of entities in the archetype.
func (a *Archetype) Len() int {
	return len(a.entities)
}

func (a *Archetype) column(id ComponentID) (*Column, bool) {
	c, ok := a.columns[id]
	return c, ok
}

func (a *Archetype) rowOf(e Entity) (int, bool) {
	row, ok := a.rows[e.ID]
	if !ok || a.entities[row] != e {
		return 0, false
	}
	return row, true
}

func (a *Archetype) entityAt(row int) Entity {
	return a.entities[row]
}

// push appends e with one value per column. values must cover the mask
// exactly; ticks carries the per-type tick pair (migration preserves the
// old pair, fresh inserts stamp both sides with the current tick).
func (a *Archetype) push(e Entity, values map[ComponentID]reflect.Value, ticks map[ComponentID]ComponentTicks) {
	for cid, col := range a.columns {
		col.appendWithTicks(e, values[cid], ticks[cid])
	}
	a.rows[e.ID] = len(a.entities)
	a.entities = append(a.entities, e)
}

// removeRow swap-removes e from every column, returning ownership of the
// removed values and their tick pairs.
func (a *Archetype) removeRow(e Entity) (map[ComponentID]reflect.Value, map[ComponentID]ComponentTicks, bool) {
	row, ok := a.rowOf(e)
	if !ok {
		return nil, nil, false
	}

	values := make(map[ComponentID]reflect.Value, len(a.columns))
	ticks := make(map[ComponentID]ComponentTicks, len(a.columns))
	for cid, col := range a.columns {
		v, t, ok := col.swapRemove(e)
		if !ok {
			panic("ecs: archetype columns out of lockstep")
		}
		values[cid] = v
		ticks[cid] = t
	}

	last := len(a.entities) - 1
	if row != last {
		moved := a.entities[last]
		a.entities[row] = moved
		a.rows[moved.ID] = row
	}
	a.entities = a.entities[:last]
	delete(a.rows, e.ID)

	return values, ticks, true
}

// release drops the backing arrays of every column. Only legal on an empty
// archetype; the archetype slot itself stays registered so a later spawn
// with the same type set reuses it.
func (a *Archetype) release() {
	if len(a.entities) > 0 {
		panic("ecs: release of non-empty archetype")
	}
	for _, col := range a.columns {
		col.release()
	}
	a.entities = nil
	a.rows = make(map[uint32]int)
}
