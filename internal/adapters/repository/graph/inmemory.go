// Package graphrepo provides an in-memory graph repository.
package graphrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// InMemoryGraphRepository is a thread-safe map-backed graph store,
// suitable for tests and single-process deployments.
type InMemoryGraphRepository struct {
	mu     sync.RWMutex
	graphs map[string]*graph.Graph
}

// NewInMemoryGraphRepository creates an empty repository.
func NewInMemoryGraphRepository() *InMemoryGraphRepository {
	return &InMemoryGraphRepository{
		graphs: make(map[string]*graph.Graph),
	}
}

// Save stores or replaces a graph.
func (r *InMemoryGraphRepository) Save(ctx context.Context, g *graph.Graph) error {
	if g == nil {
		return fmt.Errorf("graph is nil")
	}
	if err := g.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graphs[g.ID] = g
	return nil
}

// Get retrieves a graph by id, failing when absent.
func (r *InMemoryGraphRepository) Get(ctx context.Context, id string) (*graph.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrGraphNotFound, id)
	}
	return g, nil
}

// List returns all stored graphs.
func (r *InMemoryGraphRepository) List(ctx context.Context) ([]*graph.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*graph.Graph, 0, len(r.graphs))
	for _, g := range r.graphs {
		out = append(out, g)
	}
	return out, nil
}

// Delete removes a graph by id.
func (r *InMemoryGraphRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.graphs[id]; !ok {
		return fmt.Errorf("%w: %s", graph.ErrGraphNotFound, id)
	}
	delete(r.graphs, id)
	return nil
}
