package schedule

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vantus-engine/vantus/internal/core/ecs"
	"github.com/vantus-engine/vantus/pkg/sequence"
)

type node struct {
	id  int
	sys System

	// children/parents hold the explicit before/after edges. Discovered
	// conflict edges live in the build-local adjacency so Build stays
	// repeatable.
	children map[int]struct{}
	parents  map[int]struct{}
}

// Graph accumulates systems and explicit ordering constraints, then
// resolves them into a Schedule. Resolution runs at startup and again
// whenever the graph changes, never per frame.
type Graph struct {
	log    *zap.Logger
	reg    *ecs.Registry
	nodes  []*node
	byName map[string]int
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger routes resolution diagnostics through log.
func WithLogger(log *zap.Logger) GraphOption {
	return func(g *Graph) { g.log = log }
}

// WithRegistry lets conflict diagnostics print registered type names
// instead of raw identifiers.
func WithRegistry(reg *ecs.Registry) GraphOption {
	return func(g *Graph) { g.reg = reg }
}

func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		log:    zap.NewNop(),
		byName: make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Len returns the number of systems in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Add registers sys as a graph node. Names must be unique.
func (g *Graph) Add(sys System) error {
	name := sys.Name()
	if _, ok := g.byName[name]; ok {
		return errors.Wrap(ErrDuplicateSystem, name)
	}
	n := &node{
		id:       len(g.nodes),
		sys:      sys,
		children: make(map[int]struct{}),
		parents:  make(map[int]struct{}),
	}
	g.nodes = append(g.nodes, n)
	g.byName[name] = n.id
	return nil
}

// Order declares that the system named before must complete ahead of the
// system named after in every pass.
func (g *Graph) Order(before, after string) error {
	b, ok := g.byName[before]
	if !ok {
		return errors.Wrap(ErrUnknownSystem, before)
	}
	a, ok := g.byName[after]
	if !ok {
		return errors.Wrap(ErrUnknownSystem, after)
	}
	if a == b {
		return errors.Wrapf(ErrCyclicDependency, "%s ordered against itself", before)
	}
	g.nodes[b].children[a] = struct{}{}
	g.nodes[a].parents[b] = struct{}{}
	return nil
}

// Build resolves the graph into an executable schedule: layer the nodes
// topologically, check every same-layer pair for access conflicts, force
// an order onto conflicting pairs, and repeat until a fixed point. The
// retry loop is an explicit bounded iteration; exceeding the bound means
// two systems can never legally coexist in either order, which is fatal
// before anything runs.
func (g *Graph) Build() (*Schedule, error) {
	n := len(g.nodes)

	// Build-local adjacency: explicit edges plus edges discovered below.
	children := make([]map[int]struct{}, n)
	parents := make([]map[int]struct{}, n)
	for i, nd := range g.nodes {
		children[i] = make(map[int]struct{}, len(nd.children))
		for c := range nd.children {
			children[i][c] = struct{}{}
		}
		parents[i] = make(map[int]struct{}, len(nd.parents))
		for p := range nd.parents {
			parents[i][p] = struct{}{}
		}
	}

	maxIterations := n*n + 1
	for iter := 0; iter < maxIterations; iter++ {
		layers, err := g.layer(children, parents)
		if err != nil {
			return nil, err
		}

		retry := false
		for _, layer := range layers {
			for i := 0; i < len(layer); i++ {
				for j := i + 1; j < len(layer); j++ {
					a, b := g.nodes[layer[i]], g.nodes[layer[j]]
					if a.sys.Access().CompatibleWith(b.sys.Access()) {
						continue
					}
					// Force discovery order: the earlier-added system
					// runs first. Deterministic, nothing more.
					children[a.id][b.id] = struct{}{}
					parents[b.id][a.id] = struct{}{}
					retry = true
					g.log.Debug("serializing conflicting systems",
						zap.String("before", a.sys.Name()),
						zap.String("after", b.sys.Name()),
						zap.String("access_before", g.describe(a.sys.Access())),
						zap.String("access_after", g.describe(b.sys.Access())),
					)
				}
			}
		}

		if !retry {
			return &Schedule{
				log:      g.log,
				nodes:    g.nodes,
				children: children,
				layers:   layers,
			}, nil
		}
	}

	return nil, errors.Wrapf(ErrCyclicDependency,
		"conflict resolution did not converge after %d iterations", maxIterations)
}

// layer partitions the nodes into topological waves. All simultaneously
// ready nodes share a layer, except that an exclusive node always closes
// the running layer and occupies one alone. Ready order is ascending node
// id so the result is deterministic.
func (g *Graph) layer(children, parents []map[int]struct{}) ([][]int, error) {
	n := len(g.nodes)
	indegree := make([]int, n)
	for id := range g.nodes {
		indegree[id] = len(parents[id])
	}

	ready := sequence.NewPriorityQueue[int]()
	for id := 0; id < n; id++ {
		if indegree[id] == 0 {
			ready.Enqueue(id, -id)
		}
	}

	layers := make([][]int, 0, n)
	scheduled := 0
	for !ready.IsEmpty() {
		// Drain the current wave before admitting its children.
		wave := make([]int, 0, ready.Len())
		for !ready.IsEmpty() {
			id, _ := ready.Dequeue()
			wave = append(wave, id)
		}

		current := make([]int, 0, len(wave))
		for _, id := range wave {
			if g.nodes[id].sys.Access().IsExclusive() {
				if len(current) > 0 {
					layers = append(layers, current)
					current = make([]int, 0, len(wave))
				}
				layers = append(layers, []int{id})
				continue
			}
			current = append(current, id)
		}
		if len(current) > 0 {
			layers = append(layers, current)
		}

		scheduled += len(wave)
		for _, id := range wave {
			for c := range children[id] {
				indegree[c]--
				if indegree[c] == 0 {
					ready.Enqueue(c, -c)
				}
			}
		}
	}

	if scheduled != n {
		return nil, errors.Wrapf(ErrCyclicDependency, "systems %s form a cycle", g.unscheduledNames(indegree))
	}
	return layers, nil
}

func (g *Graph) unscheduledNames(indegree []int) string {
	var names []string
	for id, deg := range indegree {
		if deg > 0 {
			names = append(names, g.nodes[id].sys.Name())
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (g *Graph) describe(a *ecs.Access) string {
	if g.reg == nil {
		return "unavailable"
	}
	return a.Describe(g.reg)
}
