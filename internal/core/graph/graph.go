// Package graph provides the core workflow graph entities
// following Clean Architecture principles with zero external dependencies.
package graph

import (
	"time"
)

// Graph represents a directed workflow graph. Nodes and edges are keyed
// by their ids; every edge must reference existing nodes. The struct is
// treated as read-only during execution runs; mutation happens only
// through the Add/Remove methods before a run starts.
type Graph struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Nodes     map[string]*Node       `json:"nodes"`
	Edges     map[string]*Edge       `json:"edges"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// New creates an empty graph with the given identity.
func New(id, name string) *Graph {
	now := time.Now()
	return &Graph{
		ID:        id,
		Name:      name,
		Nodes:     make(map[string]*Node),
		Edges:     make(map[string]*Edge),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate ensures basic graph integrity: identity and edge endpoints.
func (g *Graph) Validate() error {
	if g.ID == "" {
		return ErrInvalidGraphID
	}
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.Source]; !ok {
			return ErrDanglingEdge
		}
		if _, ok := g.Nodes[e.Target]; !ok {
			return ErrDanglingEdge
		}
	}
	return nil
}

// AddNode adds a node to the graph. Duplicate ids are rejected.
func (g *Graph) AddNode(node *Node) error {
	if node == nil {
		return ErrNilNode
	}
	if err := node.Validate(); err != nil {
		return err
	}
	if g.Nodes == nil {
		g.Nodes = make(map[string]*Node)
	}
	if _, exists := g.Nodes[node.ID]; exists {
		return ErrDuplicateNode
	}
	g.Nodes[node.ID] = node
	g.UpdatedAt = time.Now()
	return nil
}

// RemoveNode removes a node. Nodes that still have connected edges
// cannot be removed; remove the edges first.
func (g *Graph) RemoveNode(nodeID string) error {
	if _, exists := g.Nodes[nodeID]; !exists {
		return ErrNodeNotFound
	}
	for _, e := range g.Edges {
		if e.Source == nodeID || e.Target == nodeID {
			return ErrNodeConnected
		}
	}
	delete(g.Nodes, nodeID)
	g.UpdatedAt = time.Now()
	return nil
}

// AddEdge adds an edge to the graph. Both endpoints must exist.
func (g *Graph) AddEdge(edge *Edge) error {
	if edge == nil {
		return ErrNilEdge
	}
	if err := edge.Validate(); err != nil {
		return err
	}
	if _, exists := g.Nodes[edge.Source]; !exists {
		return ErrSourceNodeNotFound
	}
	if _, exists := g.Nodes[edge.Target]; !exists {
		return ErrTargetNodeNotFound
	}
	if g.Edges == nil {
		g.Edges = make(map[string]*Edge)
	}
	if _, exists := g.Edges[edge.ID]; exists {
		return ErrDuplicateEdge
	}
	g.Edges[edge.ID] = edge
	g.UpdatedAt = time.Now()
	return nil
}

// RemoveEdge removes an edge by id.
func (g *Graph) RemoveEdge(edgeID string) error {
	if _, exists := g.Edges[edgeID]; !exists {
		return ErrEdgeNotFound
	}
	delete(g.Edges, edgeID)
	g.UpdatedAt = time.Now()
	return nil
}

// GetNode returns a node by id.
func (g *Graph) GetNode(nodeID string) (*Node, error) {
	node, exists := g.Nodes[nodeID]
	if !exists {
		return nil, ErrNodeNotFound
	}
	return node, nil
}

// EdgesFrom returns all edges whose source is the given node.
func (g *Graph) EdgesFrom(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTo returns all edges whose target is the given node.
func (g *Graph) EdgesTo(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// InDegree returns the number of incoming edges for a node.
func (g *Graph) InDegree(nodeID string) int {
	count := 0
	for _, e := range g.Edges {
		if e.Target == nodeID {
			count++
		}
	}
	return count
}

// OutDegree returns the number of outgoing edges for a node.
func (g *Graph) OutDegree(nodeID string) int {
	count := 0
	for _, e := range g.Edges {
		if e.Source == nodeID {
			count++
		}
	}
	return count
}

// StartNode returns the unique node with zero incoming edges. An
// executable workflow has exactly one; graphs that violate this remain
// analyzable but cannot resolve an implicit start node.
func (g *Graph) StartNode() (*Node, error) {
	var start *Node
	for id, n := range g.Nodes {
		if g.InDegree(id) == 0 {
			if start != nil {
				return nil, ErrAmbiguousStart
			}
			start = n
		}
	}
	if start == nil {
		return nil, ErrNoStartNode
	}
	return start, nil
}
