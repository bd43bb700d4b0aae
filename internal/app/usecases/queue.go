package usecases

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/graph"
)

// Scheduling priority per node type; a node's effective priority is
// typePriority + its custom priority property, higher executes first.
var typePriorityByType = map[graph.NodeType]int{
	graph.NodeTypeStart:     100,
	graph.NodeTypeCondition: 50,
	graph.NodeTypeData:      40,
	graph.NodeTypeTool:      30,
	graph.NodeTypeLLM:       20,
	graph.NodeTypeWait:      10,
	graph.NodeTypeEnd:       0,
}

// QueueItem is the live per-node record of one execution run. It is
// created when the run initializes, mutated only by the queue manager,
// and discarded with the whole queue when the run ends.
type QueueItem struct {
	Node         *graph.Node            `json:"node"`
	InputData    map[string]interface{} `json:"input_data,omitempty"`
	Predecessors []string               `json:"predecessors"`
	Priority     int                    `json:"priority"`
	Status       dto.NodeStatus         `json:"status"`
	EnqueuedAt   time.Time              `json:"enqueued_at"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	RetryCount   int                    `json:"retry_count"`
	MaxRetries   int                    `json:"max_retries"`
	LastError    string                 `json:"last_error,omitempty"`
}

// ExecutionQueueManager owns the per-node state machine of a single run:
//
//	pending -> ready -> running -> completed
//	running -> pending (failure with retries left)
//	running -> failed  (retries exhausted)
//	running <-> paused, paused -> ready (resume)
//	running | paused -> cancelled
//
// One instance per executionID; instances share nothing, so concurrent
// runs are isolated by construction.
type ExecutionQueueManager struct {
	mu sync.RWMutex

	executionID string
	graphID     string
	startNodeID string

	items     map[string]*QueueItem
	completed map[string]bool
	failed    map[string]bool

	// lastScanEmpty records whether the most recent executable-node scan
	// promoted nothing, which feeds deadlock detection.
	lastScanEmpty bool
}

// NewExecutionQueueManager initializes the queue for a run: one item per
// graph node, predecessors derived from incoming edges.
func NewExecutionQueueManager(executionID string, g *graph.Graph, startNodeID string, input map[string]interface{}, defaultMaxRetries int) *ExecutionQueueManager {
	m := &ExecutionQueueManager{
		executionID: executionID,
		graphID:     g.ID,
		startNodeID: startNodeID,
		items:       make(map[string]*QueueItem, len(g.Nodes)),
		completed:   make(map[string]bool),
		failed:      make(map[string]bool),
	}
	now := time.Now()
	for id, node := range g.Nodes {
		var preds []string
		for _, e := range g.EdgesTo(id) {
			preds = append(preds, e.Source)
		}
		sort.Strings(preds)
		m.items[id] = &QueueItem{
			Node:         node,
			InputData:    input,
			Predecessors: preds,
			Priority:     typePriorityByType[node.Type] + node.Priority(),
			Status:       dto.NodeStatusPending,
			EnqueuedAt:   now,
			MaxRetries:   node.MaxRetries(defaultMaxRetries),
		}
	}
	return m
}

// ExecutionID returns the run this queue belongs to.
func (m *ExecutionQueueManager) ExecutionID() string { return m.executionID }

// ExecutableNodes promotes every pending item whose predecessors have
// all completed to ready, and returns the ready set sorted by descending
// priority.
func (m *ExecutionQueueManager) ExecutableNodes() []*QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ready []*QueueItem
	for _, item := range m.items {
		switch item.Status {
		case dto.NodeStatusPending:
			if m.predecessorsCompleted(item) {
				item.Status = dto.NodeStatusReady
				ready = append(ready, item)
			}
		case dto.NodeStatusReady:
			ready = append(ready, item)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority > ready[j].Priority
		}
		return ready[i].Node.ID < ready[j].Node.ID
	})

	m.lastScanEmpty = len(ready) == 0
	return ready
}

func (m *ExecutionQueueManager) predecessorsCompleted(item *QueueItem) bool {
	for _, pred := range item.Predecessors {
		if !m.completed[pred] {
			return false
		}
	}
	return true
}

// MarkNodeRunning transitions a ready item to running.
func (m *ExecutionQueueManager) MarkNodeRunning(nodeID string) error {
	return m.transition(nodeID, func(item *QueueItem) error {
		if item.Status != dto.NodeStatusReady {
			return fmt.Errorf("node %s is %s, not ready", nodeID, item.Status)
		}
		now := time.Now()
		item.Status = dto.NodeStatusRunning
		item.StartedAt = &now
		return nil
	})
}

// MarkNodeCompleted finalizes a node successfully, unblocking dependents.
func (m *ExecutionQueueManager) MarkNodeCompleted(nodeID string) error {
	return m.transition(nodeID, func(item *QueueItem) error {
		now := time.Now()
		item.Status = dto.NodeStatusCompleted
		item.CompletedAt = &now
		m.completed[nodeID] = true
		return nil
	})
}

// MarkNodeFailed applies the retry loop: back to pending while retries
// remain and allowRetry holds, terminal failed otherwise. It reports
// whether the node will be retried.
func (m *ExecutionQueueManager) MarkNodeFailed(nodeID string, cause string, allowRetry bool) (retrying bool, err error) {
	err = m.transition(nodeID, func(item *QueueItem) error {
		item.LastError = cause
		if allowRetry && item.RetryCount < item.MaxRetries {
			item.RetryCount++
			item.Status = dto.NodeStatusPending
			item.StartedAt = nil
			retrying = true
			return nil
		}
		now := time.Now()
		item.Status = dto.NodeStatusFailed
		item.CompletedAt = &now
		m.failed[nodeID] = true
		return nil
	})
	return retrying, err
}

// MarkNodePaused transitions a running item to paused.
func (m *ExecutionQueueManager) MarkNodePaused(nodeID string) error {
	return m.transition(nodeID, func(item *QueueItem) error {
		if item.Status != dto.NodeStatusRunning {
			return fmt.Errorf("node %s is %s, not running", nodeID, item.Status)
		}
		item.Status = dto.NodeStatusPaused
		return nil
	})
}

// MarkNodeResumed transitions a paused item back to ready.
func (m *ExecutionQueueManager) MarkNodeResumed(nodeID string) error {
	return m.transition(nodeID, func(item *QueueItem) error {
		if item.Status != dto.NodeStatusPaused {
			return fmt.Errorf("node %s is %s, not paused", nodeID, item.Status)
		}
		item.Status = dto.NodeStatusReady
		return nil
	})
}

// MarkNodeCancelled cancels a running or paused item.
func (m *ExecutionQueueManager) MarkNodeCancelled(nodeID string) error {
	return m.transition(nodeID, func(item *QueueItem) error {
		if item.Status != dto.NodeStatusRunning && item.Status != dto.NodeStatusPaused {
			return fmt.Errorf("node %s is %s, not running or paused", nodeID, item.Status)
		}
		now := time.Now()
		item.Status = dto.NodeStatusCancelled
		item.CompletedAt = &now
		return nil
	})
}

func (m *ExecutionQueueManager) transition(nodeID string, apply func(*QueueItem) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", dto.ErrNodeNotQueued, nodeID)
	}
	return apply(item)
}

// Item returns the queue item for a node id.
func (m *ExecutionQueueManager) Item(nodeID string) (*QueueItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dto.ErrNodeNotQueued, nodeID)
	}
	return item, nil
}

// HasPendingNodes reports whether any item is still pending or ready.
func (m *ExecutionQueueManager) HasPendingNodes() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if item.Status == dto.NodeStatusPending || item.Status == dto.NodeStatusReady {
			return true
		}
	}
	return false
}

// HasDeadlock reports a stuck run: items remain pending, the last scan
// produced no ready nodes, and nothing is running or paused that could
// still unblock them.
func (m *ExecutionQueueManager) HasDeadlock() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.lastScanEmpty {
		return false
	}
	pending := false
	for _, item := range m.items {
		switch item.Status {
		case dto.NodeStatusPending:
			pending = true
		case dto.NodeStatusReady, dto.NodeStatusRunning, dto.NodeStatusPaused:
			return false
		}
	}
	return pending
}

// RunningNodes returns the ids of items currently running.
func (m *ExecutionQueueManager) RunningNodes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var running []string
	for id, item := range m.items {
		if item.Status == dto.NodeStatusRunning {
			running = append(running, id)
		}
	}
	sort.Strings(running)
	return running
}

// FailedNodes returns the ids of items that exhausted their retries.
func (m *ExecutionQueueManager) FailedNodes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var failed []string
	for id := range m.failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	return failed
}

// QueueStatus returns per-status counts for observability.
func (m *ExecutionQueueManager) QueueStatus() dto.QueueStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s dto.QueueStatus
	for _, item := range m.items {
		switch item.Status {
		case dto.NodeStatusPending:
			s.Pending++
		case dto.NodeStatusReady:
			s.Ready++
		case dto.NodeStatusRunning:
			s.Running++
		case dto.NodeStatusCompleted:
			s.Completed++
		case dto.NodeStatusFailed:
			s.Failed++
		case dto.NodeStatusPaused:
			s.Paused++
		case dto.NodeStatusCancelled:
			s.Cancelled++
		}
	}
	return s
}
