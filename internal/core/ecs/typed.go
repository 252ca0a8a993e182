package ecs

import "github.com/vantus-engine/vantus/pkg/sequence"

// The typed query wrappers below give compile-time term lists over the
// dynamic engine. Each term is declared by a marker type (R, W, OptR,
// OptW) that knows how to produce its fetch term and rebind itself to a
// matched row; the N-ary query types just thread the markers through.
// Access-set union and archetype matching are exactly the dynamic
// engine's, the wrappers add no semantics of their own.

// Fetcher is the contract a typed term marker satisfies. S is always the
// marker's own type.
type Fetcher[S any] interface {
	termOf(w *World) FetchTerm
	bind(r Row, term int) S
}

// R is a read borrow of T.
type R[T any] struct{ p *T }

func (R[T]) termOf(w *World) FetchTerm {
	return FetchTerm{ID: ComponentIDOf[T](w)}
}

func (R[T]) bind(r Row, term int) R[T] {
	return R[T]{p: r.ptr(term).(*T)}
}

// Get returns the component value.
func (f R[T]) Get() T { return *f.p }

// W is a write borrow of T. The slot's changed tick is stamped on the
// first Get, not merely on being visited.
type W[T any] struct {
	row  Row
	term int
}

func (W[T]) termOf(w *World) FetchTerm {
	return FetchTerm{ID: ComponentIDOf[T](w), Write: true}
}

func (W[T]) bind(r Row, term int) W[T] {
	return W[T]{row: r, term: term}
}

// Get returns a mutable pointer and stamps the changed tick.
func (f W[T]) Get() *T {
	f.row.markWritten(f.term)
	return f.row.ptr(f.term).(*T)
}

// Peek returns the value without stamping the changed tick.
func (f W[T]) Peek() T {
	return *f.row.ptr(f.term).(*T)
}

// OptR is an optional read borrow: it never disqualifies an archetype.
type OptR[T any] struct{ p *T }

func (OptR[T]) termOf(w *World) FetchTerm {
	return FetchTerm{ID: ComponentIDOf[T](w), Optional: true}
}

func (OptR[T]) bind(r Row, term int) OptR[T] {
	p, _ := r.ptr(term).(*T)
	return OptR[T]{p: p}
}

// Get returns the value, or ok=false when T is absent on this entity.
func (f OptR[T]) Get() (T, bool) {
	if f.p == nil {
		var zero T
		return zero, false
	}
	return *f.p, true
}

// OptW is an optional write borrow.
type OptW[T any] struct {
	row     Row
	term    int
	present bool
}

func (OptW[T]) termOf(w *World) FetchTerm {
	return FetchTerm{ID: ComponentIDOf[T](w), Write: true, Optional: true}
}

func (OptW[T]) bind(r Row, term int) OptW[T] {
	return OptW[T]{row: r, term: term, present: r.ptr(term) != nil}
}

// Get returns a mutable pointer and stamps the changed tick, or ok=false
// when T is absent on this entity.
func (f OptW[T]) Get() (*T, bool) {
	if !f.present {
		return nil, false
	}
	f.row.markWritten(f.term)
	return f.row.ptr(f.term).(*T), true
}

// WithT builds a with-filter for T.
func WithT[T any](w *World) FilterTerm {
	return FilterTerm{ID: ComponentIDOf[T](w)}
}

// WithoutT builds a without-filter for T.
func WithoutT[T any](w *World) FilterTerm {
	return FilterTerm{ID: ComponentIDOf[T](w), Without: true}
}

func buildTyped(w *World, terms []FetchTerm, filters []FilterTerm) (*Query, error) {
	b := w.Query()
	for _, t := range terms {
		b.term(t)
	}
	for _, f := range filters {
		if f.Without {
			b.Without(f.ID)
		} else {
			b.With(f.ID)
		}
	}
	return b.Build()
}

// Query1 matches entities carrying term A (plus any filters).
type Query1[A Fetcher[A]] struct{ q *Query }

// Item1 is one Query1 match.
type Item1[A Fetcher[A]] struct {
	Entity Entity
	A      A
	Row    Row
}

func NewQuery1[A Fetcher[A]](w *World, filters ...FilterTerm) (*Query1[A], error) {
	var a A
	q, err := buildTyped(w, []FetchTerm{a.termOf(w)}, filters)
	if err != nil {
		return nil, err
	}
	return &Query1[A]{q: q}, nil
}

func (q *Query1[A]) Access() *Access { return q.q.Access() }
func (q *Query1[A]) Count() int      { return q.q.Count() }

func (q *Query1[A]) Iter() *sequence.Iterator[Item1[A]] {
	var a A
	return sequence.New(func(yield func(Item1[A]) bool) {
		for r := range q.q.Iter().Seq() {
			if !yield(Item1[A]{Entity: r.Entity(), A: a.bind(r, 0), Row: r}) {
				return
			}
		}
	})
}

// Query2 matches entities carrying terms A and B.
type Query2[A Fetcher[A], B Fetcher[B]] struct{ q *Query }

// Item2 is one Query2 match.
type Item2[A Fetcher[A], B Fetcher[B]] struct {
	Entity Entity
	A      A
	B      B
	Row    Row
}

func NewQuery2[A Fetcher[A], B Fetcher[B]](w *World, filters ...FilterTerm) (*Query2[A, B], error) {
	var (
		a A
		b B
	)
	q, err := buildTyped(w, []FetchTerm{a.termOf(w), b.termOf(w)}, filters)
	if err != nil {
		return nil, err
	}
	return &Query2[A, B]{q: q}, nil
}

func (q *Query2[A, B]) Access() *Access { return q.q.Access() }
func (q *Query2[A, B]) Count() int      { return q.q.Count() }

func (q *Query2[A, B]) Iter() *sequence.Iterator[Item2[A, B]] {
	var (
		a A
		b B
	)
	return sequence.New(func(yield func(Item2[A, B]) bool) {
		for r := range q.q.Iter().Seq() {
			if !yield(Item2[A, B]{Entity: r.Entity(), A: a.bind(r, 0), B: b.bind(r, 1), Row: r}) {
				return
			}
		}
	})
}

// Query3 matches entities carrying terms A, B and C.
type Query3[A Fetcher[A], B Fetcher[B], C Fetcher[C]] struct{ q *Query }

// Item3 is one Query3 match.
type Item3[A Fetcher[A], B Fetcher[B], C Fetcher[C]] struct {
	Entity Entity
	A      A
	B      B
	C      C
	Row    Row
}

func NewQuery3[A Fetcher[A], B Fetcher[B], C Fetcher[C]](w *World, filters ...FilterTerm) (*Query3[A, B, C], error) {
	var (
		a A
		b B
		c C
	)
	q, err := buildTyped(w, []FetchTerm{a.termOf(w), b.termOf(w), c.termOf(w)}, filters)
	if err != nil {
		return nil, err
	}
	return &Query3[A, B, C]{q: q}, nil
}

func (q *Query3[A, B, C]) Access() *Access { return q.q.Access() }
func (q *Query3[A, B, C]) Count() int      { return q.q.Count() }

func (q *Query3[A, B, C]) Iter() *sequence.Iterator[Item3[A, B, C]] {
	var (
		a A
		b B
		c C
	)
	return sequence.New(func(yield func(Item3[A, B, C]) bool) {
		for r := range q.q.Iter().Seq() {
			if !yield(Item3[A, B, C]{Entity: r.Entity(), A: a.bind(r, 0), B: b.bind(r, 1), C: c.bind(r, 2), Row: r}) {
				return
			}
		}
	})
}

// Query4 matches entities carrying terms A, B, C and D.
type Query4[A Fetcher[A], B Fetcher[B], C Fetcher[C], D Fetcher[D]] struct{ q *Query }

// Item4 is one Query4 match.
type Item4[A Fetcher[A], B Fetcher[B], C Fetcher[C], D Fetcher[D]] struct {
	Entity Entity
	A      A
	B      B
	C      C
	D      D
	Row    Row
}

func NewQuery4[A Fetcher[A], B Fetcher[B], C Fetcher[C], D Fetcher[D]](w *World, filters ...FilterTerm) (*Query4[A, B, C, D], error) {
	var (
		a A
		b B
		c C
		d D
	)
	q, err := buildTyped(w, []FetchTerm{a.termOf(w), b.termOf(w), c.termOf(w), d.termOf(w)}, filters)
	if err != nil {
		return nil, err
	}
	return &Query4[A, B, C, D]{q: q}, nil
}

func (q *Query4[A, B, C, D]) Access() *Access { return q.q.Access() }
func (q *Query4[A, B, C, D]) Count() int      { return q.q.Count() }

func (q *Query4[A, B, C, D]) Iter() *sequence.Iterator[Item4[A, B, C, D]] {
	var (
		a A
		b B
		c C
		d D
	)
	return sequence.New(func(yield func(Item4[A, B, C, D]) bool) {
		for r := range q.q.Iter().Seq() {
			item := Item4[A, B, C, D]{
				Entity: r.Entity(),
				A:      a.bind(r, 0),
				B:      b.bind(r, 1),
				C:      c.bind(r, 2),
				D:      d.bind(r, 3),
				Row:    r,
			}
			if !yield(item) {
				return
			}
		}
	})
}
