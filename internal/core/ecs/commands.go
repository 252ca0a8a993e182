package ecs

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Commands is a deferred structural-mutation buffer. Systems running
// mid-pass must not reshape the world under each other, so they queue
// spawns, inserts, removals and destroys here; the scheduler applies the
// buffer between execution waves, in the order commands were issued.
//
// A Commands value is handed to exactly one system per pass. Queuing is
// mutex-guarded so a system may fan work out across its own goroutines;
// Apply synchronizes with the world itself.
type Commands struct {
	world *World

	mu    sync.Mutex
	queue []func(*World) error
}

// Commands returns a fresh command buffer bound to w.
func (w *World) Commands() *Commands {
	return &Commands{world: w}
}

func (c *Commands) push(fn func(*World) error) {
	c.mu.Lock()
	c.queue = append(c.queue, fn)
	c.mu.Unlock()
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Spawn reserves an entity identifier immediately and queues its placement
// with the given components. The returned entity is live and may be
// referenced by later commands in the same pass, but carries no components
// until the buffer applies.
func (c *Commands) Spawn(components ...any) Entity {
	e := c.world.allocator.Alloc()
	c.push(func(w *World) error {
		if !w.allocator.Contains(e) {
			// Destroyed by an earlier command in the same buffer.
			return nil
		}
		return w.Insert(e, components...)
	})
	return e
}

// Insert queues attaching components to e.
func (c *Commands) Insert(e Entity, components ...any) {
	c.push(func(w *World) error {
		return w.Insert(e, components...)
	})
}

// Remove queues detaching the component identified by cid from e.
func (c *Commands) Remove(e Entity, cid ComponentID) {
	c.push(func(w *World) error {
		_, _, err := w.RemoveID(e, cid)
		return err
	})
}

// Destroy queues destroying e.
func (c *Commands) Destroy(e Entity) {
	c.push(func(w *World) error {
		return w.Destroy(e)
	})
}

// InsertResource queues storing v as a world singleton.
func (c *Commands) InsertResource(v any) {
	c.push(func(w *World) error {
		return w.InsertResource(v)
	})
}

// Defer queues an arbitrary closure with full world access. The escape
// hatch for mutations the narrower commands do not cover.
func (c *Commands) Defer(fn func(*World) error) {
	c.push(fn)
}

// Apply drains the buffer against the world in issue order. A failing
// command does not stop the rest; all failures are joined into the
// returned error.
func (c *Commands) Apply() error {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.mu.Unlock()

	var errs error
	for _, fn := range queue {
		if err := fn(c.world); err != nil {
			c.world.log.Warn("deferred command failed", zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// RemoveLater queues detaching component T from e.
func RemoveLater[T any](c *Commands, e Entity) {
	c.Remove(e, ComponentIDOf[T](c.world))
}
