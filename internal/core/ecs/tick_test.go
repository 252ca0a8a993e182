package ecs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTickIsNewerThan(t *testing.T) {
	t.Run("inside the window", func(t *testing.T) {
		require.True(t, Tick(5).IsNewerThan(3, 6))
		require.True(t, Tick(4).IsNewerThan(3, 6))
	})

	t.Run("at or before last run", func(t *testing.T) {
		require.False(t, Tick(3).IsNewerThan(3, 6))
		require.False(t, Tick(1).IsNewerThan(3, 6))
	})

	t.Run("empty window sees nothing", func(t *testing.T) {
		require.False(t, Tick(6).IsNewerThan(6, 6))
		require.False(t, Tick(2).IsNewerThan(6, 6))
	})

	t.Run("survives counter wraparound", func(t *testing.T) {
		near := Tick(math.MaxUint64 - 1)
		wrapped := Tick(2)
		require.True(t, Tick(0).IsNewerThan(near, wrapped))
		require.False(t, Tick(near-5).IsNewerThan(near, wrapped))
	})
}

func TestComponentTicks(t *testing.T) {
	ct := newComponentTicks(4)
	require.True(t, ct.IsAdded(3, 5))
	require.True(t, ct.IsChanged(3, 5))
	require.False(t, ct.IsAdded(4, 5))

	ct.Changed = 5
	require.True(t, ct.IsChanged(4, 5))
	require.False(t, ct.IsAdded(4, 5))
}
