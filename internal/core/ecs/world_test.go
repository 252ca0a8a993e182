package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type position struct {
	X, Y float64
}

type velocity struct {
	DX, DY float64
}

type tag struct{}

func TestWorldSpawn(t *testing.T) {
	t.Run("spawned entity carries its components", func(t *testing.T) {
		w := NewWorld()
		e, err := w.Spawn(position{X: 1}, velocity{DX: 2})
		require.NoError(t, err)
		require.True(t, w.Alive(e))

		p, ok := Get[position](w, e)
		require.True(t, ok)
		require.Equal(t, position{X: 1}, p)

		v, ok := Get[velocity](w, e)
		require.True(t, ok)
		require.Equal(t, velocity{DX: 2}, v)
	})

	t.Run("empty spawn lives in the empty archetype", func(t *testing.T) {
		w := NewWorld()
		e, err := w.Spawn()
		require.NoError(t, err)
		require.True(t, w.Alive(e))
		require.False(t, Has[position](w, e))
	})

	t.Run("duplicate component type among arguments is rejected", func(t *testing.T) {
		w := NewWorld()
		_, err := w.Spawn(position{}, position{X: 2})
		require.ErrorIs(t, err, ErrDuplicateComponent)
		require.Equal(t, 0, w.EntityCount())
	})

	t.Run("same type set reuses one archetype", func(t *testing.T) {
		w := NewWorld()
		for i := 0; i < 10; i++ {
			_, err := w.Spawn(position{}, velocity{})
			require.NoError(t, err)
		}
		require.Equal(t, 1, w.ArchetypeCount())
	})
}

func TestWorldInsert(t *testing.T) {
	t.Run("insert migrates to the widened archetype", func(t *testing.T) {
		w := NewWorld()
		e, err := w.Spawn(position{X: 3})
		require.NoError(t, err)

		require.NoError(t, w.Insert(e, velocity{DX: 4}))
		require.True(t, Has[position](w, e))
		require.True(t, Has[velocity](w, e))

		p, ok := Get[position](w, e)
		require.True(t, ok)
		require.Equal(t, position{X: 3}, p)
	})

	t.Run("duplicate insert is rejected without mutation", func(t *testing.T) {
		w := NewWorld()
		e, err := w.Spawn(position{X: 3})
		require.NoError(t, err)

		err = w.Insert(e, position{X: 9})
		require.ErrorIs(t, err, ErrDuplicateComponent)

		p, ok := Get[position](w, e)
		require.True(t, ok)
		require.Equal(t, position{X: 3}, p)
	})

	t.Run("insert on a dead entity fails", func(t *testing.T) {
		w := NewWorld()
		e, err := w.Spawn(position{})
		require.NoError(t, err)
		require.NoError(t, w.Destroy(e))
		require.ErrorIs(t, w.Insert(e, velocity{}), ErrEntityNotAlive)
	})

	t.Run("migration preserves change ticks of surviving components", func(t *testing.T) {
		w := NewWorld()
		e, err := w.Spawn(position{})
		require.NoError(t, err)
		spawnTick := w.Tick()

		w.AdvanceTick()
		require.NoError(t, w.Insert(e, velocity{}))

		arch, ok := w.archetypeOf(e)
		require.True(t, ok)

		posCol, ok := arch.column(ComponentIDOf[position](w))
		require.True(t, ok)
		row, ok := arch.rowOf(e)
		require.True(t, ok)
		require.Equal(t, spawnTick, posCol.ticksAt(row).Added)

		velCol, ok := arch.column(ComponentIDOf[velocity](w))
		require.True(t, ok)
		require.Equal(t, w.Tick(), velCol.ticksAt(row).Added)
	})
}

func TestWorldRemove(t *testing.T) {
	t.Run("remove returns the stored value and narrows the archetype", func(t *testing.T) {
		w := NewWorld()
		e, err := w.Spawn(position{X: 7}, velocity{})
		require.NoError(t, err)

		p, ok, err := Remove[position](w, e)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, position{X: 7}, p)
		require.False(t, Has[position](w, e))
		require.True(t, Has[velocity](w, e))
	})

	t.Run("removing an absent component reports absence", func(t *testing.T) {
		w := NewWorld()
		e, err := w.Spawn(position{})
		require.NoError(t, err)

		_, ok, err := Remove[velocity](w, e)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestWorldDestroy(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(position{}, velocity{})
	require.NoError(t, err)

	require.NoError(t, w.Destroy(e))
	require.False(t, w.Alive(e))
	_, ok := Get[position](w, e)
	require.False(t, ok)

	require.ErrorIs(t, w.Destroy(e), ErrEntityNotAlive)
}

func TestArchetypeInvariant(t *testing.T) {
	// The component set reachable by per-type lookup must equal the type
	// set of the archetype the entity belongs to, across migrations.
	w := NewWorld()
	e, err := w.Spawn(position{}, tag{})
	require.NoError(t, err)
	require.NoError(t, w.Insert(e, velocity{}))
	_, _, err = Remove[tag](w, e)
	require.NoError(t, err)

	arch, ok := w.archetypeOf(e)
	require.True(t, ok)

	for _, cid := range arch.mask.ids() {
		col, ok := arch.column(cid)
		require.True(t, ok)
		_, ok = col.value(e)
		require.True(t, ok, "column %d missing entity data", cid)
	}
	require.True(t, Has[position](w, e))
	require.True(t, Has[velocity](w, e))
	require.False(t, Has[tag](w, e))
	require.NoError(t, arch.columns[ComponentIDOf[position](w)].checkInvariant())
}

func TestWorldMut(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(position{X: 1})
	require.NoError(t, err)

	w.AdvanceTick()
	ptr, release, ok := Mut[position](w, e)
	require.True(t, ok)
	ptr.X = 99
	release()

	p, ok := Get[position](w, e)
	require.True(t, ok)
	require.Equal(t, 99.0, p.X)

	arch, _ := w.archetypeOf(e)
	row, _ := arch.rowOf(e)
	col, _ := arch.column(ComponentIDOf[position](w))
	require.Equal(t, w.Tick(), col.ticksAt(row).Changed)
}

func TestWorldGC(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(position{})
	require.NoError(t, err)
	require.NoError(t, w.Insert(e, velocity{}))

	// The {position} archetype is now empty but still registered.
	archCount := w.ArchetypeCount()
	require.Equal(t, 1, w.GC())
	require.Equal(t, archCount, w.ArchetypeCount())

	// The released archetype slot is reused for the same type set.
	f, err := w.Spawn(position{})
	require.NoError(t, err)
	require.True(t, Has[position](w, f))
	require.Equal(t, archCount, w.ArchetypeCount())
}

func TestResources(t *testing.T) {
	type clock struct {
		Frame uint64
	}

	t.Run("insert then read and write borrows", func(t *testing.T) {
		w := NewWorld()
		require.NoError(t, w.InsertResource(clock{Frame: 1}))
		require.True(t, HasResource[clock](w))

		v, release, ok := Resource[clock](w)
		require.True(t, ok)
		require.Equal(t, uint64(1), v.Frame)
		release()

		p, release, ok := ResourceMut[clock](w)
		require.True(t, ok)
		p.Frame = 7
		release()

		v, release, ok = Resource[clock](w)
		require.True(t, ok)
		require.Equal(t, uint64(7), v.Frame)
		release()
	})

	t.Run("double insert is rejected", func(t *testing.T) {
		w := NewWorld()
		require.NoError(t, w.InsertResource(clock{}))
		require.ErrorIs(t, w.InsertResource(clock{}), ErrResourceExists)
	})

	t.Run("remove returns the value", func(t *testing.T) {
		w := NewWorld()
		require.NoError(t, w.InsertResource(clock{Frame: 3}))
		v, ok := RemoveResource[clock](w)
		require.True(t, ok)
		require.Equal(t, uint64(3), v.Frame)
		require.False(t, HasResource[clock](w))
	})

	t.Run("missing resource reports absence", func(t *testing.T) {
		w := NewWorld()
		_, _, ok := Resource[clock](w)
		require.False(t, ok)
	})

	t.Run("init resource installs a zero value once", func(t *testing.T) {
		w := NewWorld()
		require.NoError(t, w.InsertResource(clock{Frame: 5}))
		InitResource[clock](w)

		v, release, ok := Resource[clock](w)
		require.True(t, ok)
		require.Equal(t, uint64(5), v.Frame)
		release()
	})

	t.Run("blocked resource borrow panics", func(t *testing.T) {
		w := NewWorld()
		require.NoError(t, w.InsertResource(clock{}))

		_, release, ok := ResourceMut[clock](w)
		require.True(t, ok)
		defer release()
		require.Panics(t, func() { Resource[clock](w) })
	})
}
