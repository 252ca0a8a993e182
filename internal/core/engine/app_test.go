package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vantus-engine/vantus/internal/core/ecs"
	"github.com/vantus-engine/vantus/internal/core/events"
	"github.com/vantus-engine/vantus/internal/core/schedule"
)

type trace struct {
	mu    sync.Mutex
	names []string
}

func (tr *trace) add(name string) {
	tr.mu.Lock()
	tr.names = append(tr.names, name)
	tr.mu.Unlock()
}

func (tr *trace) snapshot() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.names...)
}

func traced(tr *trace, name string) schedule.System {
	return schedule.NewFunc(name, ecs.NewAccess(),
		func(context.Context, *ecs.World, *ecs.Commands) error {
			tr.add(name)
			return nil
		})
}

func TestAppLifecycle(t *testing.T) {
	t.Run("stages run in their fixed order", func(t *testing.T) {
		app := NewApp()
		tr := &trace{}

		placements := []struct {
			stage Stage
			name  string
		}{
			{StagePostShutdown, "post-shutdown"},
			{StageRender, "render"},
			{StagePreInit, "pre-init"},
			{StageUpdate, "update"},
			{StageShutdown, "shutdown"},
			{StagePostInit, "post-init"},
			{StagePreUpdate, "pre-update"},
			{StagePostRender, "post-render"},
			{StageInit, "init"},
			{StagePreRender, "pre-render"},
			{StagePreShutdown, "pre-shutdown"},
			{StagePostUpdate, "post-update"},
		}
		for _, p := range placements {
			require.NoError(t, app.AddSystem(p.stage, traced(tr, p.name)))
		}

		ctx := context.Background()
		require.NoError(t, app.Init(ctx))
		require.NoError(t, app.Update(ctx))
		require.NoError(t, app.Shutdown(ctx))

		require.Equal(t, []string{
			"pre-init", "init", "post-init",
			"pre-update", "update", "post-update",
			"pre-render", "render", "post-render",
			"pre-shutdown", "shutdown", "post-shutdown",
		}, tr.snapshot())
	})

	t.Run("init stages run once, frame stages per update", func(t *testing.T) {
		app := NewApp()
		tr := &trace{}
		require.NoError(t, app.AddSystem(StageInit, traced(tr, "init")))
		require.NoError(t, app.AddSystem(StageUpdate, traced(tr, "update")))

		ctx := context.Background()
		require.NoError(t, app.Init(ctx))
		require.NoError(t, app.Update(ctx))
		require.NoError(t, app.Update(ctx))
		require.NoError(t, app.Update(ctx))

		require.Equal(t, []string{"init", "update", "update", "update"}, tr.snapshot())
	})

	t.Run("time resource tracks frames", func(t *testing.T) {
		app := NewApp()
		ctx := context.Background()
		require.NoError(t, app.Init(ctx))
		require.NoError(t, app.Update(ctx))
		require.NoError(t, app.Update(ctx))

		tm, release, ok := ecs.Resource[Time](app.World())
		require.True(t, ok)
		require.Equal(t, uint64(2), tm.Frame)
		release()
	})

	t.Run("cyclic stage graph fails build", func(t *testing.T) {
		app := NewApp()
		tr := &trace{}
		require.NoError(t, app.AddSystem(StageUpdate, traced(tr, "a")))
		require.NoError(t, app.AddSystem(StageUpdate, traced(tr, "b")))
		require.NoError(t, app.Order(StageUpdate, "a", "b"))
		require.NoError(t, app.Order(StageUpdate, "b", "a"))

		err := app.Build()
		require.ErrorIs(t, err, schedule.ErrCyclicDependency)
		require.Contains(t, err.Error(), "update")
	})

	t.Run("invalid stage rejected", func(t *testing.T) {
		app := NewApp()
		tr := &trace{}
		require.Error(t, app.AddSystem(Stage(99), traced(tr, "x")))
	})

	t.Run("events dispatch after frame stages", func(t *testing.T) {
		type collision struct{ A, B ecs.Entity }
		app := NewApp()

		var delivered []collision
		events.Subscribe(app.Bus(), func(c collision) {
			delivered = append(delivered, c)
		})

		require.NoError(t, app.AddSystem(StageUpdate, schedule.NewFunc("emitter", ecs.NewAccess(),
			func(context.Context, *ecs.World, *ecs.Commands) error {
				app.Bus().Publish(collision{})
				return nil
			})))

		ctx := context.Background()
		require.NoError(t, app.Init(ctx))
		require.Empty(t, delivered)
		require.NoError(t, app.Update(ctx))
		require.Len(t, delivered, 1)
	})

	t.Run("stats snapshot is safe against a live frame loop", func(t *testing.T) {
		app := NewApp()
		tr := &trace{}
		require.NoError(t, app.AddSystem(StageUpdate, traced(tr, "tick")))

		ctx := context.Background()
		require.NoError(t, app.Init(ctx))

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 200; i++ {
				_ = app.Stats()
			}
		}()
		for i := 0; i < 200; i++ {
			require.NoError(t, app.Update(ctx))
		}
		<-done

		require.Equal(t, uint64(200), app.Stats().Frame)
	})

	t.Run("stats reflect the resolved schedules", func(t *testing.T) {
		app := NewApp()
		tr := &trace{}
		require.NoError(t, app.AddSystem(StageUpdate, traced(tr, "only")))

		ctx := context.Background()
		require.NoError(t, app.Init(ctx))
		require.NoError(t, app.Update(ctx))

		st := app.Stats()
		require.Equal(t, uint64(1), st.Frame)
		require.Len(t, st.Stages, 1)
		require.Equal(t, "update", st.Stages[0].Stage)
		require.Equal(t, 1, st.Stages[0].Systems)
	})
}

func TestStageString(t *testing.T) {
	require.Equal(t, "pre-init", StagePreInit.String())
	require.Equal(t, "post-shutdown", StagePostShutdown.String())
	require.Equal(t, "unknown", Stage(200).String())
}
