package services

import (
	"sync"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/graph"
)

// TypeStats accumulates terminal outcomes for one node type.
type TypeStats struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// StatsService aggregates per-node-type completion and failure counts
// from status updates, and exposes observed failure rates to the
// planner's reliability strategy. It implements both
// usecases.StatusSink and usecases.FailureRateProvider.
type StatsService struct {
	mu      sync.RWMutex
	byType  map[graph.NodeType]*TypeStats
	retries int
}

// NewStatsService creates an empty statistics service.
func NewStatsService() *StatsService {
	return &StatsService{
		byType: make(map[graph.NodeType]*TypeStats),
	}
}

// OnStatusUpdate counts terminal node outcomes. Intermediate statuses
// are ignored except for pending-after-running, which the coordinator
// emits when a node is requeued for retry.
func (s *StatsService) OnStatusUpdate(update dto.StatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch update.Status {
	case dto.NodeStatusCompleted:
		s.statsFor(update.NodeType).Completed++
	case dto.NodeStatusFailed:
		s.statsFor(update.NodeType).Failed++
	case dto.NodeStatusPending:
		s.retries++
	}
}

// FailureRate returns the observed failure ratio for a node type, or 0
// when no terminal outcomes have been recorded yet.
func (s *StatsService) FailureRate(nodeType graph.NodeType) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.byType[nodeType]
	if !ok {
		return 0
	}
	total := stats.Completed + stats.Failed
	if total == 0 {
		return 0
	}
	return float64(stats.Failed) / float64(total)
}

// Stats returns a copy of the accumulated per-type counters.
func (s *StatsService) Stats() map[graph.NodeType]TypeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[graph.NodeType]TypeStats, len(s.byType))
	for t, stats := range s.byType {
		out[t] = *stats
	}
	return out
}

// Retries returns the number of retry requeues observed.
func (s *StatsService) Retries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retries
}

func (s *StatsService) statsFor(t graph.NodeType) *TypeStats {
	stats, ok := s.byType[t]
	if !ok {
		stats = &TypeStats{}
		s.byType[t] = stats
	}
	return stats
}
