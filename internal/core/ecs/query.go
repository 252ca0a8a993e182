package ecs

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/vantus-engine/vantus/pkg/generic"
	"github.com/vantus-engine/vantus/pkg/sequence"
)

// FetchTerm names one component a query borrows per matched entity. A
// write term takes the column's write lock during iteration; an optional
// term never disqualifies an archetype and yields absence instead.
type FetchTerm struct {
	ID       ComponentID
	Write    bool
	Optional bool
}

// FilterTerm narrows which archetypes a query visits without fetching
// data.
type FilterTerm struct {
	ID      ComponentID
	Without bool
}

// Query enumerates the entities matching a fetch/filter description and
// yields per-entity borrows of their data. Construction computes the
// static access set once; the matching archetype list is memoized and
// refreshed only when new archetypes appear.
type Query struct {
	world  *World
	fetch  []FetchTerm
	access *Access

	required typeMask // non-optional fetch terms plus with-filters
	without  typeMask

	lastRun Tick

	cachedVersion uint64
	cached        []*Archetype

	// colsPool recycles the per-archetype column slices the iterator
	// allocates; queries run every frame, so this is a hot path.
	colsPool *generic.Pool[[]*Column]
}

// QueryBuilder accumulates fetch and filter terms. Both the compile-time
// typed helpers and the string-keyed dynamic path funnel through it.
type QueryBuilder struct {
	world   *World
	fetch   []FetchTerm
	filters []FilterTerm
	err     error
}

// Query starts building a query against w.
func (w *World) Query() *QueryBuilder {
	return &QueryBuilder{world: w}
}

func (b *QueryBuilder) Read(id ComponentID) *QueryBuilder {
	return b.term(FetchTerm{ID: id})
}

func (b *QueryBuilder) Write(id ComponentID) *QueryBuilder {
	return b.term(FetchTerm{ID: id, Write: true})
}

func (b *QueryBuilder) ReadOpt(id ComponentID) *QueryBuilder {
	return b.term(FetchTerm{ID: id, Optional: true})
}

func (b *QueryBuilder) WriteOpt(id ComponentID) *QueryBuilder {
	return b.term(FetchTerm{ID: id, Write: true, Optional: true})
}

func (b *QueryBuilder) With(id ComponentID) *QueryBuilder {
	b.filters = append(b.filters, FilterTerm{ID: id})
	return b
}

func (b *QueryBuilder) Without(id ComponentID) *QueryBuilder {
	b.filters = append(b.filters, FilterTerm{ID: id, Without: true})
	return b
}

// ReadNamed resolves a component by its registered type name. This is the
// path dynamically-typed callers use.
func (b *QueryBuilder) ReadNamed(name string) *QueryBuilder {
	return b.named(name, false)
}

func (b *QueryBuilder) WriteNamed(name string) *QueryBuilder {
	return b.named(name, true)
}

func (b *QueryBuilder) named(name string, write bool) *QueryBuilder {
	id, ok := b.world.registry.ComponentByName(name)
	if !ok {
		b.err = errors.Wrap(ErrComponentNotRegistered, name)
		return b
	}
	return b.term(FetchTerm{ID: id, Write: write})
}

func (b *QueryBuilder) term(t FetchTerm) *QueryBuilder {
	b.fetch = append(b.fetch, t)
	return b
}

// Build validates the terms and returns the query.
func (b *QueryBuilder) Build() (*Query, error) {
	if b.err != nil {
		return nil, b.err
	}
	w := b.world
	for _, t := range b.fetch {
		if !w.registry.validComponent(t.ID) {
			return nil, errors.Wrapf(ErrComponentNotRegistered, "fetch term %d", t.ID)
		}
	}
	for _, f := range b.filters {
		if !w.registry.validComponent(f.ID) {
			return nil, errors.Wrapf(ErrComponentNotRegistered, "filter term %d", f.ID)
		}
	}

	var seen typeMask
	for _, t := range b.fetch {
		if seen.has(t.ID) {
			return nil, errors.Wrapf(ErrDuplicateComponent, "fetch term %s", w.registry.ComponentName(t.ID))
		}
		seen.set(t.ID)
	}

	arity := len(b.fetch)
	q := &Query{
		world:  w,
		fetch:  b.fetch,
		access: w.queryAccess(b.fetch),
		colsPool: generic.NewPool(func() []*Column {
			return make([]*Column, arity)
		}),
	}
	for _, t := range b.fetch {
		if !t.Optional {
			q.required.set(t.ID)
		}
	}
	for _, f := range b.filters {
		if f.Without {
			q.without.set(f.ID)
		} else {
			q.required.set(f.ID)
		}
	}
	return q, nil
}

// MustBuild is Build for statically-known term lists.
func (b *QueryBuilder) MustBuild() *Query {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// Access returns the query's static footprint. The scheduler merges it
// into the owning system's descriptor.
func (q *Query) Access() *Access {
	return q.access
}

// queryAccess computes the union footprint of a fetch list, memoized per
// distinct term sequence so repeated query construction is cheap.
func (w *World) queryAccess(fetch []FetchTerm) *Access {
	var key strings.Builder
	for _, t := range fetch {
		if t.Write {
			key.WriteByte('w')
		} else {
			key.WriteByte('r')
		}
		key.WriteString(strconv.Itoa(int(t.ID)))
	}
	if cached, ok := w.accessMemo.Load(key.String()); ok {
		return cached.(*Access)
	}
	a := NewAccess()
	for _, t := range fetch {
		if t.Write {
			a.WriteComponent(t.ID)
		} else {
			a.ReadComponent(t.ID)
		}
	}
	actual, _ := w.accessMemo.LoadOrStore(key.String(), a)
	return actual.(*Access)
}

// matches returns the archetypes satisfying the query's filters, reusing
// the cached list while no archetype has been created since.
func (q *Query) matches() []*Archetype {
	version := q.world.archVersion.Load()
	if q.cached != nil && q.cachedVersion == version {
		return q.cached
	}

	w := q.world
	w.mu.RLock()
	out := make([]*Archetype, 0, len(w.archetypes))
	for _, arch := range w.archetypes {
		if arch.mask.contains(q.required) && !arch.mask.intersects(q.without) {
			out = append(out, arch)
		}
	}
	w.mu.RUnlock()

	q.cached = out
	q.cachedVersion = version
	return out
}

// Row is one matched entity with its borrowed fetch terms. A Row is only
// valid inside the iteration step that yielded it; the column locks it
// leans on are released when iteration leaves the archetype.
type Row struct {
	entity  Entity
	cols    []*Column // per fetch term, nil when optional-absent
	terms   []FetchTerm
	dense   int
	lastRun Tick
	thisRun Tick
}

// Entity returns the matched entity.
func (r Row) Entity() Entity { return r.entity }

// Get returns a pointer to the term'th fetched component, or nil when the
// term is optional and absent here. Taking a write term's pointer stamps
// the slot's changed tick.
func (r Row) Get(term int) any {
	col := r.cols[term]
	if col == nil {
		return nil
	}
	if r.terms[term].Write {
		col.markChanged(r.dense, r.thisRun)
	}
	return col.ptrAt(r.dense)
}

// ptr returns the term'th pointer without touching the changed tick. The
// typed write wrappers stamp the tick themselves on first dereference.
func (r Row) ptr(term int) any {
	col := r.cols[term]
	if col == nil {
		return nil
	}
	return col.ptrAt(r.dense)
}

// markWritten stamps the term'th slot's changed tick.
func (r Row) markWritten(term int) {
	if col := r.cols[term]; col != nil {
		col.markChanged(r.dense, r.thisRun)
	}
}

// Ticks returns the term'th slot's tick pair; ok=false for an absent
// optional term.
func (r Row) Ticks(term int) (ComponentTicks, bool) {
	col := r.cols[term]
	if col == nil {
		return ComponentTicks{}, false
	}
	return col.ticksAt(r.dense), true
}

// Added reports whether the term'th component was added since the query's
// previous run.
func (r Row) Added(term int) bool {
	t, ok := r.Ticks(term)
	return ok && t.IsAdded(r.lastRun, r.thisRun)
}

// Changed reports whether the term'th component changed since the query's
// previous run.
func (r Row) Changed(term int) bool {
	t, ok := r.Ticks(term)
	return ok && t.IsChanged(r.lastRun, r.thisRun)
}

// Iter lazily walks the matching entities in archetype-then-dense order.
// The order is not stable across archetype creation. Column locks are held
// per archetype for the duration of that archetype's rows and released on
// every exit path, early break included. Each call restarts from scratch
// and advances the query's change window.
func (q *Query) Iter() *sequence.Iterator[Row] {
	lastRun := q.lastRun
	thisRun := q.world.Tick()
	q.lastRun = thisRun

	arches := q.matches()
	return sequence.New(func(yield func(Row) bool) {
		for _, arch := range arches {
			if arch.Len() == 0 {
				continue
			}
			cols := q.acquire(arch)
			done := false
			for dense := 0; dense < arch.Len(); dense++ {
				row := Row{
					entity:  arch.entityAt(dense),
					cols:    cols,
					terms:   q.fetch,
					dense:   dense,
					lastRun: lastRun,
					thisRun: thisRun,
				}
				if !yield(row) {
					done = true
					break
				}
			}
			q.releaseCols(cols)
			if done {
				return
			}
		}
	})
}

// Count iterates without borrowing data and returns the number of matches.
func (q *Query) Count() int {
	n := 0
	for _, arch := range q.matches() {
		n += arch.Len()
	}
	return n
}

// acquire takes the column locks this query's fetch list needs in arch,
// term order. Returns one column per term, nil for absent optional terms.
func (q *Query) acquire(arch *Archetype) []*Column {
	cols := q.colsPool.Get()
	for i, t := range q.fetch {
		col, ok := arch.column(t.ID)
		if !ok {
			continue // optional term absent from this archetype
		}
		if t.Write {
			col.acquireWrite()
		} else {
			col.acquireRead()
		}
		cols[i] = col
	}
	return cols
}

func (q *Query) releaseCols(cols []*Column) {
	for i, col := range cols {
		if col == nil {
			continue
		}
		if q.fetch[i].Write {
			col.releaseWrite()
		} else {
			col.releaseRead()
		}
		cols[i] = nil
	}
	q.colsPool.Put(cols)
}
