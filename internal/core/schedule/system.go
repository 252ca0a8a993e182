package schedule

import (
	"context"

	"github.com/vantus-engine/vantus/internal/core/ecs"
)

// System is one schedulable unit of work. Its Access descriptor is the
// contract the scheduler holds it to: the conflict check assumes a system
// touches nothing outside its declared footprint.
type System interface {
	// Name identifies the system in ordering constraints and diagnostics.
	Name() string

	// Access returns the system's declared data footprint.
	Access() *ecs.Access

	// CanRun reports whether the system can make progress this pass. A
	// false return skips the system silently; it is the normal state
	// before, say, an asset-backed resource exists.
	CanRun(w *ecs.World) bool

	// Run executes one pass. Structural mutation goes through cmd, never
	// directly through w.
	Run(ctx context.Context, w *ecs.World, cmd *ecs.Commands) error
}

// Func adapts a plain function into a System.
type Func struct {
	name   string
	access *ecs.Access
	canRun func(*ecs.World) bool
	run    func(ctx context.Context, w *ecs.World, cmd *ecs.Commands) error
}

var _ System = (*Func)(nil)

// FuncOption configures a Func system.
type FuncOption func(*Func)

// WithCanRun installs a run predicate. Absent one, the system always runs.
func WithCanRun(pred func(*ecs.World) bool) FuncOption {
	return func(f *Func) { f.canRun = pred }
}

func NewFunc(name string, access *ecs.Access, run func(ctx context.Context, w *ecs.World, cmd *ecs.Commands) error, opts ...FuncOption) *Func {
	f := &Func{name: name, access: access, run: run}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Func) Name() string        { return f.name }
func (f *Func) Access() *ecs.Access { return f.access }

func (f *Func) CanRun(w *ecs.World) bool {
	if f.canRun == nil {
		return true
	}
	return f.canRun(w)
}

func (f *Func) Run(ctx context.Context, w *ecs.World, cmd *ecs.Commands) error {
	return f.run(ctx, w, cmd)
}

// ResourcePresent builds a CanRun predicate requiring the T singleton to
// exist.
func ResourcePresent[T any]() func(*ecs.World) bool {
	return func(w *ecs.World) bool {
		return ecs.HasResource[T](w)
	}
}
