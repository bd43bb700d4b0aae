package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/graphrun/graphrun/internal/core/graph"
	"github.com/graphrun/graphrun/pkg/validation"
)

// CreateGraphRequest describes a graph to assemble and persist.
type CreateGraphRequest struct {
	Name  string         `json:"name" validate:"required"`
	Nodes []NodeRequest  `json:"nodes" validate:"dive"`
	Edges []EdgeRequest  `json:"edges" validate:"dive"`
}

// NodeRequest describes one node of a CreateGraphRequest.
type NodeRequest struct {
	ID         string                 `json:"id" validate:"required"`
	Type       graph.NodeType         `json:"type" validate:"required"`
	Name       string                 `json:"name" validate:"required"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// EdgeRequest describes one edge of a CreateGraphRequest.
type EdgeRequest struct {
	ID        string         `json:"id" validate:"required"`
	Type      graph.EdgeType `json:"type"`
	Source    string         `json:"source" validate:"required"`
	Target    string         `json:"target" validate:"required"`
	Condition string         `json:"condition,omitempty"`
	Weight    float64        `json:"weight,omitempty"`
}

// GraphService assembles, validates, persists and mutates graphs,
// emitting domain events on every mutation. Events are fire-and-forget
// notifications for history/audit subscribers.
type GraphService struct {
	graphs    GraphRepository
	validator GraphValidator
	events    graph.EventPublisher
	logger    *slog.Logger
}

// NewGraphService wires the graph service. events may be nil.
func NewGraphService(graphs GraphRepository, validator GraphValidator, events graph.EventPublisher, logger *slog.Logger) *GraphService {
	if events == nil {
		events = graph.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphService{
		graphs:    graphs,
		validator: validator,
		events:    events,
		logger:    logger,
	}
}

// CreateGraph assembles a graph from the request, validates its
// structure and persists it.
func (s *GraphService) CreateGraph(ctx context.Context, req CreateGraphRequest) (*graph.Graph, error) {
	if err := validation.ValidateRequest(req); err != nil {
		return nil, err
	}
	g := graph.New(uuid.New().String(), req.Name)
	for _, nr := range req.Nodes {
		node := &graph.Node{
			ID:         nr.ID,
			Type:       nr.Type,
			Name:       nr.Name,
			Properties: nr.Properties,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nr.ID, err)
		}
	}
	for _, er := range req.Edges {
		edge := &graph.Edge{
			ID:        er.ID,
			Type:      er.Type,
			Source:    er.Source,
			Target:    er.Target,
			Condition: er.Condition,
			Weight:    er.Weight,
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, fmt.Errorf("add edge %s: %w", er.ID, err)
		}
	}

	report, err := s.validator.ValidateStructure(ctx, g)
	if err != nil {
		return nil, err
	}
	if !report.IsValid {
		return nil, fmt.Errorf("graph validation failed: %v", report.Errors)
	}

	if err := s.graphs.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save graph: %w", err)
	}
	s.events.Publish(graph.Event{Type: graph.EventGraphCreated, GraphID: g.ID, OccurredAt: time.Now()})
	s.logger.Info("graph created", "graph_id", g.ID, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

// AddNode adds a node to an existing graph and persists the change.
func (s *GraphService) AddNode(ctx context.Context, graphID string, req NodeRequest) (*graph.Node, error) {
	if err := validation.ValidateRequest(req); err != nil {
		return nil, err
	}
	g, err := s.graphs.Get(ctx, graphID)
	if err != nil {
		return nil, err
	}
	node := &graph.Node{
		ID:         req.ID,
		Type:       req.Type,
		Name:       req.Name,
		Properties: req.Properties,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	if err := s.graphs.Save(ctx, g); err != nil {
		return nil, err
	}
	s.events.Publish(graph.Event{Type: graph.EventNodeAdded, GraphID: graphID, NodeID: node.ID, OccurredAt: time.Now()})
	return node, nil
}

// RemoveNode removes a node along with nothing else: nodes that still
// have connected edges are rejected by the domain entity.
func (s *GraphService) RemoveNode(ctx context.Context, graphID, nodeID string) error {
	g, err := s.graphs.Get(ctx, graphID)
	if err != nil {
		return err
	}
	if err := g.RemoveNode(nodeID); err != nil {
		return err
	}
	if err := s.graphs.Save(ctx, g); err != nil {
		return err
	}
	s.events.Publish(graph.Event{Type: graph.EventNodeRemoved, GraphID: graphID, NodeID: nodeID, OccurredAt: time.Now()})
	return nil
}

// AddEdge adds an edge to an existing graph and persists the change.
func (s *GraphService) AddEdge(ctx context.Context, graphID string, req EdgeRequest) (*graph.Edge, error) {
	if err := validation.ValidateRequest(req); err != nil {
		return nil, err
	}
	g, err := s.graphs.Get(ctx, graphID)
	if err != nil {
		return nil, err
	}
	edge := &graph.Edge{
		ID:        req.ID,
		Type:      req.Type,
		Source:    req.Source,
		Target:    req.Target,
		Condition: req.Condition,
		Weight:    req.Weight,
	}
	if err := g.AddEdge(edge); err != nil {
		return nil, err
	}
	if err := s.graphs.Save(ctx, g); err != nil {
		return nil, err
	}
	s.events.Publish(graph.Event{Type: graph.EventEdgeAdded, GraphID: graphID, EdgeID: edge.ID, OccurredAt: time.Now()})
	return edge, nil
}

// RemoveEdge removes an edge from an existing graph.
func (s *GraphService) RemoveEdge(ctx context.Context, graphID, edgeID string) error {
	g, err := s.graphs.Get(ctx, graphID)
	if err != nil {
		return err
	}
	if err := g.RemoveEdge(edgeID); err != nil {
		return err
	}
	if err := s.graphs.Save(ctx, g); err != nil {
		return err
	}
	s.events.Publish(graph.Event{Type: graph.EventEdgeRemoved, GraphID: graphID, EdgeID: edgeID, OccurredAt: time.Now()})
	return nil
}
