package concurrent

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vantus-engine/vantus/pkg/sequence"
)

func TestConcurrent(t *testing.T) {
	t.Run("visits every element", func(t *testing.T) {
		var sum atomic.Int64
		err := Concurrent(sequence.FromSlice([]int{1, 2, 3, 4}), func(v int) error {
			sum.Add(int64(v))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, int64(10), sum.Load())
	})

	t.Run("action error surfaces", func(t *testing.T) {
		boom := errors.New("boom")
		err := Concurrent(sequence.FromSlice([]int{1, 2, 3}), func(v int) error {
			if v == 2 {
				return boom
			}
			return nil
		})
		require.ErrorIs(t, err, boom)
	})
}

func TestConcurrentLimit(t *testing.T) {
	t.Run("caps in-flight goroutines", func(t *testing.T) {
		var inFlight, peak atomic.Int32
		err := ConcurrentLimit(sequence.FromSlice(make([]struct{}, 64)), 4, func(struct{}) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			return nil
		})
		require.NoError(t, err)
		require.Positive(t, peak.Load())
		require.LessOrEqual(t, peak.Load(), int32(4))
	})

	t.Run("visits every element", func(t *testing.T) {
		var visited atomic.Int32
		err := ConcurrentLimit(sequence.FromSlice(make([]int, 100)), 2, func(int) error {
			visited.Add(1)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, int32(100), visited.Load())
	})
}
