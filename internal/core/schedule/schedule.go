package schedule

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vantus-engine/vantus/internal/core/ecs"
	"github.com/vantus-engine/vantus/pkg/concurrent"
	"github.com/vantus-engine/vantus/pkg/sequence"
)

// Schedule is a resolved, conflict-free execution order. Each layer's
// systems are pairwise access-compatible and run concurrently; layers run
// in order with a barrier between them, and each layer's deferred command
// buffers apply before the next layer starts.
type Schedule struct {
	log      *zap.Logger
	nodes    []*node
	children []map[int]struct{}
	layers   [][]int

	mu      sync.Mutex
	skipped int
}

// Len returns the number of systems in the schedule.
func (s *Schedule) Len() int {
	return len(s.nodes)
}

// Layers returns the resolved layer structure as system names, in
// execution order.
func (s *Schedule) Layers() [][]string {
	out := make([][]string, len(s.layers))
	for i, layer := range s.layers {
		names := make([]string, len(layer))
		for j, id := range layer {
			names[j] = s.nodes[id].sys.Name()
		}
		out[i] = names
	}
	return out
}

// OrderedBefore reports whether the schedule guarantees a runs ahead of b,
// directly or transitively.
func (s *Schedule) OrderedBefore(a, b string) bool {
	var aid, bid = -1, -1
	for _, n := range s.nodes {
		switch n.sys.Name() {
		case a:
			aid = n.id
		case b:
			bid = n.id
		}
	}
	if aid < 0 || bid < 0 {
		return false
	}
	seen := make(map[int]bool, len(s.nodes))
	stack := []int{aid}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == bid {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		for c := range s.children[id] {
			stack = append(stack, c)
		}
	}
	return false
}

// SkippedLastPass returns how many systems sat out the previous pass via
// their CanRun predicate.
func (s *Schedule) SkippedLastPass() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

// Run executes one pass. The world tick advances exactly once, up front,
// so every system in the pass shares one change window. A system error
// aborts the pass; remaining layers do not run.
func (s *Schedule) Run(ctx context.Context, w *ecs.World) error {
	w.AdvanceTick()

	var skipped atomic.Int32
	for _, layer := range s.layers {
		buffers := make([]*ecs.Commands, len(layer))

		run := func(slot int) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := s.nodes[layer[slot]]
			if !n.sys.CanRun(w) {
				s.log.Debug("skipping system", zap.String("system", n.sys.Name()))
				skipped.Add(1)
				return nil
			}
			cmd := w.Commands()
			buffers[slot] = cmd
			return n.sys.Run(ctx, w, cmd)
		}

		var err error
		if len(layer) == 1 {
			err = run(0)
		} else {
			slots := make([]int, len(layer))
			for i := range slots {
				slots[i] = i
			}
			err = concurrent.Concurrent(sequence.FromSlice(slots), run)
		}
		if err != nil {
			return err
		}

		// Apply deferred mutations in node order so the outcome does not
		// depend on goroutine interleaving.
		for _, cmd := range buffers {
			if cmd == nil {
				continue
			}
			if err := cmd.Apply(); err != nil {
				return err
			}
		}
	}

	s.mu.Lock()
	s.skipped = int(skipped.Load())
	s.mu.Unlock()
	return nil
}
