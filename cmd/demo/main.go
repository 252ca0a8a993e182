package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/vantus-engine/vantus/internal/config"
	"github.com/vantus-engine/vantus/internal/core/ecs"
	"github.com/vantus-engine/vantus/internal/core/engine"
	"github.com/vantus-engine/vantus/internal/core/inspector"
	"github.com/vantus-engine/vantus/internal/core/observability/log"
	"github.com/vantus-engine/vantus/internal/core/schedule"
	"github.com/vantus-engine/vantus/internal/injector"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Lifetime struct {
	Frames int
}

func main() {
	cfgPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	app := injector.ProvideApp(cfg)
	if err := registerSystems(app); err != nil {
		fmt.Println("Error registering systems:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-stopCh
		cancel()
	}()

	if cfg.Inspector.Enabled {
		insp := inspector.NewServer(app, cfg.Inspector.Addr, log.Provide())
		if err := insp.Start(ctx); err != nil {
			fmt.Println("Error starting inspector:", err)
			os.Exit(1)
		}
		defer func() { _ = insp.Stop(context.Background()) }()
	}

	if err := app.Run(ctx); err != nil {
		fmt.Println("Engine error:", err)
		os.Exit(1)
	}
}

func registerSystems(app *engine.App) error {
	w := app.World()

	posID := ecs.ComponentIDOf[Position](w)
	velID := ecs.ComponentIDOf[Velocity](w)
	lifeID := ecs.ComponentIDOf[Lifetime](w)

	seed := schedule.NewFunc("seed",
		ecs.NewAccess().Exclusive(),
		func(_ context.Context, _ *ecs.World, cmd *ecs.Commands) error {
			for i := 0; i < 64; i++ {
				cmd.Spawn(
					Position{X: rand.Float64() * 100, Y: rand.Float64() * 100},
					Velocity{DX: rand.Float64()*2 - 1, DY: rand.Float64()*2 - 1},
					Lifetime{Frames: 120 + rand.Intn(240)},
				)
			}
			return nil
		},
	)
	if err := app.AddSystem(engine.StageInit, seed); err != nil {
		return err
	}

	moveQuery, err := ecs.NewQuery2[ecs.W[Position], ecs.R[Velocity]](w)
	if err != nil {
		return err
	}
	movement := schedule.NewFunc("movement",
		ecs.NewAccess().WriteComponent(posID).ReadComponent(velID),
		func(_ context.Context, w *ecs.World, _ *ecs.Commands) error {
			dt := 1.0 / 60.0
			if t, release, ok := ecs.Resource[engine.Time](w); ok {
				if s := t.Delta.Seconds(); s > 0 {
					dt = s
				}
				release()
			}
			for item := range moveQuery.Iter().Seq() {
				vel := item.B.Get()
				pos := item.A.Get()
				pos.X += vel.DX * dt
				pos.Y += vel.DY * dt
			}
			return nil
		},
	)
	if err := app.AddSystem(engine.StageUpdate, movement); err != nil {
		return err
	}

	lifeQuery, err := ecs.NewQuery1[ecs.W[Lifetime]](w)
	if err != nil {
		return err
	}
	aging := schedule.NewFunc("aging",
		ecs.NewAccess().WriteComponent(lifeID),
		func(_ context.Context, _ *ecs.World, cmd *ecs.Commands) error {
			for item := range lifeQuery.Iter().Seq() {
				l := item.A.Get()
				l.Frames--
				if l.Frames <= 0 {
					cmd.Destroy(item.Entity)
				}
			}
			return nil
		},
	)
	if err := app.AddSystem(engine.StagePostUpdate, aging); err != nil {
		return err
	}

	respawn := schedule.NewFunc("respawn",
		ecs.NewAccess(),
		func(_ context.Context, w *ecs.World, cmd *ecs.Commands) error {
			for w.EntityCount()+cmd.Len() < 64 {
				cmd.Spawn(
					Position{X: rand.Float64() * 100, Y: rand.Float64() * 100},
					Velocity{DX: rand.Float64()*2 - 1, DY: rand.Float64()*2 - 1},
					Lifetime{Frames: 120 + rand.Intn(240)},
				)
			}
			return nil
		},
	)
	if err := app.AddSystem(engine.StagePostUpdate, respawn); err != nil {
		return err
	}
	return app.Order(engine.StagePostUpdate, "aging", "respawn")
}
