package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type damage struct {
	Amount int
}

type heal struct {
	Amount int
}

func TestBus(t *testing.T) {
	t.Run("publish buffers until dispatch", func(t *testing.T) {
		b := NewBus(nil)
		var got []damage
		Subscribe(b, func(d damage) { got = append(got, d) })

		b.Publish(damage{Amount: 5})
		require.Empty(t, got)
		require.Equal(t, 1, b.Pending())

		require.Equal(t, 1, b.Dispatch())
		require.Equal(t, []damage{{Amount: 5}}, got)
		require.Equal(t, 0, b.Pending())
	})

	t.Run("delivery is per concrete type", func(t *testing.T) {
		b := NewBus(nil)
		var damages, heals int
		Subscribe(b, func(damage) { damages++ })
		Subscribe(b, func(heal) { heals++ })

		b.Publish(damage{})
		b.Publish(heal{})
		b.Publish(damage{})
		b.Dispatch()

		require.Equal(t, 2, damages)
		require.Equal(t, 1, heals)
	})

	t.Run("publish order is preserved", func(t *testing.T) {
		b := NewBus(nil)
		var order []int
		Subscribe(b, func(d damage) { order = append(order, d.Amount) })

		for i := 0; i < 5; i++ {
			b.Publish(damage{Amount: i})
		}
		b.Dispatch()
		require.Equal(t, []int{0, 1, 2, 3, 4}, order)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		b := NewBus(nil)
		calls := 0
		id := Subscribe(b, func(damage) { calls++ })

		b.Publish(damage{})
		b.Dispatch()
		b.Unsubscribe(id)
		b.Publish(damage{})
		b.Dispatch()

		require.Equal(t, 1, calls)
	})

	t.Run("events published during dispatch wait a frame", func(t *testing.T) {
		b := NewBus(nil)
		chained := 0
		Subscribe(b, func(damage) {
			if chained == 0 {
				b.Publish(damage{})
			}
			chained++
		})

		b.Publish(damage{})
		require.Equal(t, 1, b.Dispatch())
		require.Equal(t, 1, chained)
		require.Equal(t, 1, b.Pending())
		require.Equal(t, 1, b.Dispatch())
		require.Equal(t, 2, chained)
	})

	t.Run("no subscribers is not an error", func(t *testing.T) {
		b := NewBus(nil)
		b.Publish(heal{})
		require.Equal(t, 1, b.Dispatch())
	})
}
