package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterator(t *testing.T) {
	t.Run("collect drains in order", func(t *testing.T) {
		it := FromSlice([]int{1, 2, 3})
		require.Equal(t, []int{1, 2, 3}, it.Collect())
	})

	t.Run("pull stops early", func(t *testing.T) {
		next, stop := FromSlice([]int{1, 2, 3}).Pull()
		v, ok := next()
		require.True(t, ok)
		require.Equal(t, 1, v)
		stop()
		_, ok = next()
		require.False(t, ok)
	})

	t.Run("each visits every element", func(t *testing.T) {
		sum := 0
		FromSlice([]int{1, 2, 3}).Each(func(v int) { sum += v })
		require.Equal(t, 6, sum)
	})
}

func TestPriorityQueue(t *testing.T) {
	t.Run("dequeues highest priority first", func(t *testing.T) {
		q := NewPriorityQueue[string]()
		q.Enqueue("low", 1)
		q.Enqueue("high", 10)
		q.Enqueue("mid", 5)

		v, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, "high", v)
		v, _ = q.Dequeue()
		require.Equal(t, "mid", v)
		v, _ = q.Dequeue()
		require.Equal(t, "low", v)

		_, ok = q.Dequeue()
		require.False(t, ok)
		require.True(t, q.IsEmpty())
	})

	t.Run("negated keys give ascending order", func(t *testing.T) {
		q := NewPriorityQueue[int]()
		for _, id := range []int{3, 0, 2, 1} {
			q.Enqueue(id, -id)
		}
		var got []int
		for !q.IsEmpty() {
			v, _ := q.Dequeue()
			got = append(got, v)
		}
		require.Equal(t, []int{0, 1, 2, 3}, got)
	})
}
