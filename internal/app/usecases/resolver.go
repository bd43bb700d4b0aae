package usecases

import (
	"context"
	"log/slog"
	"sort"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// Dependency is a derived record, one per edge, indexed both forward
// (source -> outgoing) and reverse (target -> incoming). It is rebuilt
// whenever the resolver is initialized against a graph.
type Dependency struct {
	FromNodeID string         `json:"from_node_id"`
	ToNodeID   string         `json:"to_node_id"`
	EdgeType   graph.EdgeType `json:"edge_type"`
	Condition  string         `json:"condition,omitempty"`
	Weight     float64        `json:"weight,omitempty"`
}

// DFS colors for the cycle queries.
const (
	white = 0
	grey  = 1
	black = 2
)

// DependencyResolver answers direct, transitive and cyclic dependency
// queries over the dependency index of one graph. It must be
// re-initialized after the graph mutates, or patched incrementally via
// AddDependency/RemoveDependency.
type DependencyResolver struct {
	evaluators EdgeEvaluatorFactory
	logger     *slog.Logger

	nodes   map[string]struct{}
	forward map[string][]Dependency // source -> outgoing dependencies
	reverse map[string][]Dependency // target -> incoming dependencies
}

// NewDependencyResolver creates an empty resolver. Initialize must be
// called before queries.
func NewDependencyResolver(evaluators EdgeEvaluatorFactory, logger *slog.Logger) *DependencyResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DependencyResolver{
		evaluators: evaluators,
		logger:     logger,
	}
}

// Initialize rebuilds the forward and reverse indexes in O(N+E).
func (r *DependencyResolver) Initialize(g *graph.Graph) error {
	if g == nil {
		return graph.ErrGraphNotFound
	}
	if err := g.Validate(); err != nil {
		return err
	}

	r.nodes = make(map[string]struct{}, len(g.Nodes))
	r.forward = make(map[string][]Dependency, len(g.Nodes))
	r.reverse = make(map[string][]Dependency, len(g.Nodes))
	for id := range g.Nodes {
		r.nodes[id] = struct{}{}
	}
	for _, e := range g.Edges {
		dep := Dependency{
			FromNodeID: e.Source,
			ToNodeID:   e.Target,
			EdgeType:   e.Type,
			Condition:  e.Condition,
			Weight:     e.Weight,
		}
		r.forward[e.Source] = append(r.forward[e.Source], dep)
		r.reverse[e.Target] = append(r.reverse[e.Target], dep)
	}
	// Deterministic adjacency order for stable query results.
	for id := range r.forward {
		sortDeps(r.forward[id])
	}
	for id := range r.reverse {
		sortDeps(r.reverse[id])
	}
	return nil
}

func sortDeps(deps []Dependency) {
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].FromNodeID != deps[j].FromNodeID {
			return deps[i].FromNodeID < deps[j].FromNodeID
		}
		return deps[i].ToNodeID < deps[j].ToNodeID
	})
}

// DirectDependencies returns the outgoing dependencies of a node.
func (r *DependencyResolver) DirectDependencies(nodeID string) []Dependency {
	return append([]Dependency(nil), r.forward[nodeID]...)
}

// ReverseDependencies returns the dependencies pointing at a node.
func (r *DependencyResolver) ReverseDependencies(nodeID string) []Dependency {
	return append([]Dependency(nil), r.reverse[nodeID]...)
}

// AllDependencies returns the transitive closure of a node's outgoing
// dependencies. A visited set guards against infinite traversal on
// cycles; it does not report the cycle itself (use the cycle queries).
func (r *DependencyResolver) AllDependencies(nodeID string) []Dependency {
	return r.closure(nodeID, r.forward, func(d Dependency) string { return d.ToNodeID })
}

// AllReverseDependencies returns the transitive closure of the
// dependencies that reach a node.
func (r *DependencyResolver) AllReverseDependencies(nodeID string) []Dependency {
	return r.closure(nodeID, r.reverse, func(d Dependency) string { return d.FromNodeID })
}

func (r *DependencyResolver) closure(nodeID string, index map[string][]Dependency, next func(Dependency) string) []Dependency {
	var out []Dependency
	visited := map[string]bool{nodeID: true}
	stack := []string{nodeID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range index[current] {
			out = append(out, dep)
			n := next(dep)
			if !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}
	return out
}

// HasCyclicDependency reports whether any cycle is reachable on the
// dependency paths starting from nodeID.
func (r *DependencyResolver) HasCyclicDependency(nodeID string) bool {
	return len(r.CyclicDependency(nodeID)) > 0
}

// HasAnyCyclicDependency reports whether the whole index contains a cycle.
func (r *DependencyResolver) HasAnyCyclicDependency() bool {
	for id := range r.nodes {
		if r.HasCyclicDependency(id) {
			return true
		}
	}
	return false
}

// CyclicDependency returns the first cycle discovered on dependency
// paths starting from nodeID: the slice of node ids from the first
// repeated node to the edge that closes the loop. The DFS uses an
// explicit stack; recursion depth never depends on graph size.
func (r *DependencyResolver) CyclicDependency(nodeID string) []string {
	if _, ok := r.nodes[nodeID]; !ok {
		return nil
	}

	type frame struct {
		node string
		next int
	}
	color := map[string]int{nodeID: grey}
	stack := []frame{{node: nodeID}}
	path := []string{nodeID}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		deps := r.forward[top.node]
		if top.next < len(deps) {
			target := deps[top.next].ToNodeID
			top.next++
			switch color[target] {
			case grey:
				for i, id := range path {
					if id == target {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						return cycle
					}
				}
			case white:
				color[target] = grey
				stack = append(stack, frame{node: target})
				path = append(path, target)
			}
			continue
		}
		color[top.node] = black
		stack = stack[:len(stack)-1]
		path = path[:len(path)-1]
	}
	return nil
}

// AllCyclicDependencies returns one representative cycle per starting
// node that can reach a cycle, deduplicated by cycle membership.
func (r *DependencyResolver) AllCyclicDependencies() [][]string {
	seen := make(map[string]bool)
	var cycles [][]string
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		cycle := r.CyclicDependency(id)
		if len(cycle) == 0 {
			continue
		}
		key := cycleKey(cycle)
		if seen[key] {
			continue
		}
		seen[key] = true
		cycles = append(cycles, cycle)
	}
	return cycles
}

func cycleKey(cycle []string) string {
	members := append([]string(nil), cycle...)
	sort.Strings(members)
	key := ""
	for _, m := range members {
		key += m + "\x00"
	}
	return key
}

// TopologicalOrder orders all indexed nodes with Kahn's algorithm. It
// fails with graph.ErrCyclicGraph when a cycle makes a total order
// impossible; callers must treat that as a hard planning error.
func (r *DependencyResolver) TopologicalOrder() ([]string, error) {
	if r.nodes == nil {
		return nil, ErrNotInitialized
	}

	inDegree := make(map[string]int, len(r.nodes))
	for id := range r.nodes {
		inDegree[id] = len(r.reverse[id])
	}

	var queue []string
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(r.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		for _, dep := range r.forward[current] {
			inDegree[dep.ToNodeID]--
			if inDegree[dep.ToNodeID] == 0 {
				queue = append(queue, dep.ToNodeID)
			}
		}
	}

	if len(order) != len(r.nodes) {
		return nil, graph.ErrCyclicGraph
	}
	return order, nil
}

// EvaluateEdgeCondition reports whether the dependency between two nodes
// permits traversal given the run-time data. It degrades to false and
// logs when no such dependency exists or evaluation fails; it never
// returns an error to the caller.
func (r *DependencyResolver) EvaluateEdgeCondition(ctx context.Context, fromNodeID, toNodeID string, data map[string]interface{}) bool {
	var dep *Dependency
	for i := range r.forward[fromNodeID] {
		if r.forward[fromNodeID][i].ToNodeID == toNodeID {
			dep = &r.forward[fromNodeID][i]
			break
		}
	}
	if dep == nil {
		r.logger.Warn("edge condition evaluation on unknown dependency",
			"from", fromNodeID, "to", toNodeID)
		return false
	}

	// Non-conditional edge types always traverse once the source completes.
	isConditional := dep.EdgeType == graph.EdgeTypeConditional || dep.EdgeType == graph.EdgeTypeFlexibleConditional
	if !isConditional {
		return true
	}

	evaluator, err := r.evaluators.EvaluatorFor(dep.EdgeType)
	if err != nil {
		r.logger.Warn("no evaluator for conditional edge",
			"from", fromNodeID, "to", toNodeID, "edge_type", dep.EdgeType, "error", err)
		return false
	}
	edge := &graph.Edge{
		Type:      dep.EdgeType,
		Source:    dep.FromNodeID,
		Target:    dep.ToNodeID,
		Condition: dep.Condition,
		Weight:    dep.Weight,
	}
	ok, err := evaluator.Evaluate(ctx, edge, data)
	if err != nil {
		r.logger.Warn("edge condition evaluation failed",
			"from", fromNodeID, "to", toNodeID, "error", err)
		return false
	}
	return ok
}

// AddDependency patches the index without a full rebuild, for graphs
// that changed after Initialize.
func (r *DependencyResolver) AddDependency(dep Dependency) error {
	if r.nodes == nil {
		return ErrNotInitialized
	}
	for _, existing := range r.forward[dep.FromNodeID] {
		if existing.ToNodeID == dep.ToNodeID && existing.EdgeType == dep.EdgeType {
			return ErrDependencyExists
		}
	}
	r.nodes[dep.FromNodeID] = struct{}{}
	r.nodes[dep.ToNodeID] = struct{}{}
	r.forward[dep.FromNodeID] = append(r.forward[dep.FromNodeID], dep)
	r.reverse[dep.ToNodeID] = append(r.reverse[dep.ToNodeID], dep)
	sortDeps(r.forward[dep.FromNodeID])
	sortDeps(r.reverse[dep.ToNodeID])
	return nil
}

// RemoveDependency removes the indexed dependency between two nodes.
func (r *DependencyResolver) RemoveDependency(fromNodeID, toNodeID string) error {
	if r.nodes == nil {
		return ErrNotInitialized
	}
	removed := false
	r.forward[fromNodeID] = filterDeps(r.forward[fromNodeID], fromNodeID, toNodeID, &removed)
	if !removed {
		return ErrNoDependency
	}
	r.reverse[toNodeID] = filterDeps(r.reverse[toNodeID], fromNodeID, toNodeID, new(bool))
	return nil
}

func filterDeps(deps []Dependency, from, to string, removed *bool) []Dependency {
	out := deps[:0]
	for _, d := range deps {
		if d.FromNodeID == from && d.ToNodeID == to {
			*removed = true
			continue
		}
		out = append(out, d)
	}
	return out
}
