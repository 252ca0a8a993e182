package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vantus-engine/vantus/internal/core/ecs"
	"github.com/vantus-engine/vantus/internal/core/events"
	"github.com/vantus-engine/vantus/internal/core/schedule"
)

// Time is the frame-clock resource the app maintains: delta since the
// previous frame, total elapsed time and the frame counter. Systems read
// it like any other resource.
type Time struct {
	Delta   time.Duration
	Elapsed time.Duration
	Frame   uint64
}

// App wires a world, an event bus and twelve per-stage schedules into a
// frame loop. Systems are added to a stage, the stage graphs resolve once
// at startup, then init stages run once, frame stages run every frame and
// shutdown stages run at teardown.
type App struct {
	log   *zap.Logger
	world *ecs.World
	bus   *events.Bus

	frameRate int

	graphs    [stageCount]*schedule.Graph
	schedules [stageCount]*schedule.Schedule
	built     bool

	start     time.Time
	lastFrame time.Time
	// frame is atomic: Stats snapshots it from the inspector's
	// goroutines while Update advances it on the engine goroutine.
	frame atomic.Uint64
}

// AppOption configures an App.
type AppOption func(*App)

// WithLogger routes engine and world diagnostics through log.
func WithLogger(log *zap.Logger) AppOption {
	return func(a *App) { a.log = log }
}

// WithFrameRate caps Run's frame loop at fps frames per second. Zero
// means uncapped.
func WithFrameRate(fps int) AppOption {
	return func(a *App) { a.frameRate = fps }
}

func NewApp(opts ...AppOption) *App {
	a := &App{
		log:       zap.NewNop(),
		frameRate: 60,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.world = ecs.NewWorld(ecs.WithLogger(a.log))
	a.bus = events.NewBus(a.log)
	for i := range a.graphs {
		a.graphs[i] = schedule.NewGraph(
			schedule.WithLogger(a.log),
			schedule.WithRegistry(a.world.Registry()),
		)
	}
	return a
}

// World returns the app's world.
func (a *App) World() *ecs.World { return a.world }

// Bus returns the app's event bus.
func (a *App) Bus() *events.Bus { return a.bus }

// AddSystem places sys in the given stage. Adding after Build forces a
// re-resolve on the next Build or Init.
func (a *App) AddSystem(stage Stage, sys schedule.System) error {
	if !stage.valid() {
		return errors.Errorf("engine: invalid stage %d", stage)
	}
	a.built = false
	return a.graphs[stage].Add(sys)
}

// Order declares an execution order between two systems of one stage.
func (a *App) Order(stage Stage, before, after string) error {
	if !stage.valid() {
		return errors.Errorf("engine: invalid stage %d", stage)
	}
	a.built = false
	return a.graphs[stage].Order(before, after)
}

// Build resolves every stage's schedule. A cyclic dependency in any stage
// fails the whole build, before anything runs.
func (a *App) Build() error {
	for stage, g := range a.graphs {
		sched, err := g.Build()
		if err != nil {
			return errors.Wrapf(err, "stage %s", Stage(stage))
		}
		a.schedules[stage] = sched
		if g.Len() > 0 {
			a.log.Debug("stage schedule resolved",
				zap.Stringer("stage", Stage(stage)),
				zap.Int("systems", g.Len()),
			)
		}
	}
	a.built = true
	return nil
}

// Init resolves schedules if needed, installs the Time resource and runs
// the three init stages once.
func (a *App) Init(ctx context.Context) error {
	if !a.built {
		if err := a.Build(); err != nil {
			return err
		}
	}
	a.start = time.Now()
	a.lastFrame = a.start
	if !ecs.HasResource[Time](a.world) {
		if err := a.world.InsertResource(Time{}); err != nil {
			return err
		}
	}
	return a.runStages(ctx, initStages)
}

// Update runs one frame: advance the clock, run the six frame stages in
// order, then deliver the frame's buffered events.
func (a *App) Update(ctx context.Context) error {
	now := time.Now()
	frame := a.frame.Add(1)
	if t, release, ok := ecs.ResourceMut[Time](a.world); ok {
		t.Delta = now.Sub(a.lastFrame)
		t.Elapsed = now.Sub(a.start)
		t.Frame = frame
		release()
	}
	a.lastFrame = now

	if err := a.runStages(ctx, frameStages); err != nil {
		return err
	}
	a.bus.Dispatch()
	return nil
}

// Shutdown runs the three shutdown stages once and reclaims empty
// archetype storage.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.runStages(ctx, shutdownStages); err != nil {
		return err
	}
	a.world.GC()
	return nil
}

// Run drives the full lifecycle: init stages, the frame loop until ctx is
// cancelled, then shutdown stages.
func (a *App) Run(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	a.log.Info("engine started",
		zap.Stringer("world", a.world.ID()),
		zap.Int("frame_rate", a.frameRate),
	)

	var tick <-chan time.Time
	if a.frameRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(a.frameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			a.log.Info("engine stopping", zap.Uint64("frames", a.frame.Load()))
			// Shutdown stages still run after cancellation.
			return a.Shutdown(context.WithoutCancel(ctx))
		default:
		}

		if err := a.Update(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return a.Shutdown(context.WithoutCancel(ctx))
			}
			return err
		}

		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
			}
		}
	}
}

func (a *App) runStages(ctx context.Context, stages []Stage) error {
	for _, stage := range stages {
		sched := a.schedules[stage]
		if sched == nil || sched.Len() == 0 {
			continue
		}
		if err := sched.Run(ctx, a.world); err != nil {
			return errors.Wrapf(err, "stage %s", stage)
		}
	}
	return nil
}

// StageStats describes one resolved stage for diagnostics.
type StageStats struct {
	Stage   string     `json:"stage"`
	Systems int        `json:"systems"`
	Layers  [][]string `json:"layers,omitempty"`
	Skipped int        `json:"skipped_last_pass"`
}

// Stats is a point-in-time snapshot of the app for the inspector.
type Stats struct {
	WorldID    string       `json:"world_id"`
	Frame      uint64       `json:"frame"`
	Entities   int          `json:"entities"`
	Archetypes int          `json:"archetypes"`
	Events     int          `json:"pending_events"`
	Stages     []StageStats `json:"stages"`
}

// Stats snapshots the app state.
func (a *App) Stats() Stats {
	st := Stats{
		WorldID:    a.world.ID().String(),
		Frame:      a.frame.Load(),
		Entities:   a.world.EntityCount(),
		Archetypes: a.world.ArchetypeCount(),
		Events:     a.bus.Pending(),
	}
	for stage, sched := range a.schedules {
		if sched == nil || sched.Len() == 0 {
			continue
		}
		st.Stages = append(st.Stages, StageStats{
			Stage:   Stage(stage).String(),
			Systems: sched.Len(),
			Layers:  sched.Layers(),
			Skipped: sched.SkippedLastPass(),
		})
	}
	return st
}
