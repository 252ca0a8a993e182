package sequence

import "iter"

// Iterator is a thin wrapper around a pull-style sequence of values.
// It exists so helpers in pkg/concurrent can consume any source of
// elements (slices, generators) through a single type.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// New wraps a raw iter.Seq into an Iterator.
func New[T any](seq iter.Seq[T]) *Iterator[T] {
	return &Iterator[T]{seq: seq}
}

// FromSlice returns an Iterator over the elements of s.
func FromSlice[T any](s []T) *Iterator[T] {
	return New(func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	})
}

// Seq exposes the underlying sequence for range-over-func consumption.
func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Pull converts the iterator into a pull-based next/stop pair.
// The caller must call stop when done.
func (i *Iterator[T]) Pull() (next func() (T, bool), stop func()) {
	return iter.Pull(i.seq)
}

// Collect drains the iterator into a slice.
func (i *Iterator[T]) Collect() []T {
	var out []T
	for v := range i.seq {
		out = append(out, v)
	}
	return out
}

// Each invokes fn for every element in order.
func (i *Iterator[T]) Each(fn func(T)) {
	for v := range i.seq {
		fn(v)
	}
}
