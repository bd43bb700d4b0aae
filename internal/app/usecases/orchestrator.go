package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/graph"
)

// NodeExecutionOrchestrator executes batches of ready nodes concurrently
// and aggregates their results. One instance per executionID; per-run
// state maps are never shared between runs.
type NodeExecutionOrchestrator struct {
	executionID string
	graphID     string
	executors   NodeExecutorFactory
	sharedCtx   map[string]interface{}
	nodeTimeout time.Duration
	maxParallel int64
	logger      *slog.Logger

	mu      sync.Mutex
	states  map[string]dto.NodeStatus
	cancels map[string]context.CancelFunc // in-flight node cancellations
}

// NewNodeExecutionOrchestrator creates an orchestrator for one run.
// nodeTimeout bounds each executor call when positive; maxParallel caps
// in-flight executions within a batch.
func NewNodeExecutionOrchestrator(executionID, graphID string, executors NodeExecutorFactory, sharedCtx map[string]interface{}, maxParallel int, nodeTimeout time.Duration, logger *slog.Logger) *NodeExecutionOrchestrator {
	if maxParallel <= 0 {
		maxParallel = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeExecutionOrchestrator{
		executionID: executionID,
		graphID:     graphID,
		executors:   executors,
		sharedCtx:   sharedCtx,
		nodeTimeout: nodeTimeout,
		maxParallel: int64(maxParallel),
		logger:      logger,
		states:      make(map[string]dto.NodeStatus),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// ExecuteBatch runs every item concurrently (fan-out) and returns a map
// of node id to result only after all have settled (fan-in). A single
// node's failure does not cancel its siblings.
func (o *NodeExecutionOrchestrator) ExecuteBatch(ctx context.Context, batch []*QueueItem) map[string]*dto.NodeExecutionResult {
	results := make(map[string]*dto.NodeExecutionResult, len(batch))
	resultCh := make(chan *dto.NodeExecutionResult, len(batch))
	sem := semaphore.NewWeighted(o.maxParallel)

	var wg sync.WaitGroup
	for _, item := range batch {
		wg.Add(1)
		go func(item *QueueItem) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				resultCh <- o.failedResult(item.Node, time.Now(), err)
				return
			}
			defer sem.Release(1)
			resultCh <- o.executeNode(ctx, item)
		}(item)
	}
	wg.Wait()
	close(resultCh)

	for res := range resultCh {
		results[res.NodeID] = res
	}
	return results
}

// executeNode runs a single node via its type's executor, recording
// timing and per-node state along the way.
func (o *NodeExecutionOrchestrator) executeNode(ctx context.Context, item *QueueItem) *dto.NodeExecutionResult {
	node := item.Node
	start := time.Now()

	nodeCtx, cancel := o.nodeContext(ctx)
	o.mu.Lock()
	o.states[node.ID] = dto.NodeStatusRunning
	o.cancels[node.ID] = cancel
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		delete(o.cancels, node.ID)
		o.mu.Unlock()
	}()

	execCtx := o.buildExecutionContext(node)

	executor, err := o.executors.ExecutorFor(node.Type)
	if err != nil {
		o.setState(node.ID, dto.NodeStatusFailed)
		return o.failedResult(node, start, fmt.Errorf("%w: %s", ErrNoExecutor, node.Type))
	}

	output, err := executor.Execute(nodeCtx, node, item.InputData, execCtx)
	end := time.Now()
	if err != nil {
		status := dto.NodeStatusFailed
		if nodeCtx.Err() != nil && o.stateOf(node.ID) == dto.NodeStatusCancelled {
			status = dto.NodeStatusCancelled
		}
		o.setState(node.ID, status)
		return &dto.NodeExecutionResult{
			NodeID:    node.ID,
			NodeType:  node.Type,
			Success:   false,
			Error:     err.Error(),
			Critical:  IsCritical(err),
			StartTime: start,
			EndTime:   end,
			Duration:  end.Sub(start),
			Context:   execCtx,
		}
	}

	o.setState(node.ID, dto.NodeStatusCompleted)
	return &dto.NodeExecutionResult{
		NodeID:    node.ID,
		NodeType:  node.Type,
		Success:   true,
		Output:    output,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Context:   execCtx,
	}
}

func (o *NodeExecutionOrchestrator) nodeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.nodeTimeout > 0 {
		return context.WithTimeout(ctx, o.nodeTimeout)
	}
	return context.WithCancel(ctx)
}

// buildExecutionContext merges the run's shared context with
// node-specific fields.
func (o *NodeExecutionOrchestrator) buildExecutionContext(node *graph.Node) map[string]interface{} {
	execCtx := make(map[string]interface{}, len(o.sharedCtx)+4)
	for k, v := range o.sharedCtx {
		execCtx[k] = v
	}
	execCtx["execution_id"] = o.executionID
	execCtx["graph_id"] = o.graphID
	execCtx["node_id"] = node.ID
	execCtx["node_type"] = string(node.Type)
	return execCtx
}

func (o *NodeExecutionOrchestrator) failedResult(node *graph.Node, start time.Time, err error) *dto.NodeExecutionResult {
	end := time.Now()
	return &dto.NodeExecutionResult{
		NodeID:    node.ID,
		NodeType:  node.Type,
		Success:   false,
		Error:     err.Error(),
		Critical:  IsCritical(err),
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
}

// PauseNodeExecution marks a node paused. Requests for a different run
// id are rejected. Pausing is cooperative: an in-flight executor call is
// not interrupted.
func (o *NodeExecutionOrchestrator) PauseNodeExecution(executionID, nodeID string) error {
	if executionID != o.executionID {
		return fmt.Errorf("%w: got %s, want %s", ErrWrongExecution, executionID, o.executionID)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.states[nodeID] != dto.NodeStatusRunning {
		return fmt.Errorf("node %s is not running", nodeID)
	}
	o.states[nodeID] = dto.NodeStatusPaused
	return nil
}

// ResumeNodeExecution marks a paused node runnable again.
func (o *NodeExecutionOrchestrator) ResumeNodeExecution(executionID, nodeID string) error {
	if executionID != o.executionID {
		return fmt.Errorf("%w: got %s, want %s", ErrWrongExecution, executionID, o.executionID)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.states[nodeID] != dto.NodeStatusPaused {
		return fmt.Errorf("node %s is not paused", nodeID)
	}
	o.states[nodeID] = dto.NodeStatusReady
	return nil
}

// CancelNodeExecution cancels one node's in-flight execution.
func (o *NodeExecutionOrchestrator) CancelNodeExecution(executionID, nodeID string) error {
	if executionID != o.executionID {
		return fmt.Errorf("%w: got %s, want %s", ErrWrongExecution, executionID, o.executionID)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	state := o.states[nodeID]
	if state != dto.NodeStatusRunning && state != dto.NodeStatusPaused {
		return fmt.Errorf("node %s is not running or paused", nodeID)
	}
	o.states[nodeID] = dto.NodeStatusCancelled
	if cancel, ok := o.cancels[nodeID]; ok {
		cancel()
		delete(o.cancels, nodeID)
	}
	return nil
}

// CancelAll marks every running node cancelled and drops in-flight
// bookkeeping.
func (o *NodeExecutionOrchestrator) CancelAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, state := range o.states {
		if state == dto.NodeStatusRunning || state == dto.NodeStatusPaused {
			o.states[id] = dto.NodeStatusCancelled
		}
	}
	for id, cancel := range o.cancels {
		cancel()
		delete(o.cancels, id)
	}
}

func (o *NodeExecutionOrchestrator) setState(nodeID string, s dto.NodeStatus) {
	o.mu.Lock()
	// A cancellation recorded while the executor was in flight wins over
	// the settling goroutine's verdict.
	if o.states[nodeID] != dto.NodeStatusCancelled || s == dto.NodeStatusCancelled {
		o.states[nodeID] = s
	}
	o.mu.Unlock()
}

func (o *NodeExecutionOrchestrator) stateOf(nodeID string) dto.NodeStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[nodeID]
}

// GraphExecutionStatus folds per-node states into a point-in-time
// aggregate, with precedence cancelled > paused > failed > running >
// completed > pending.
func (o *NodeExecutionOrchestrator) GraphExecutionStatus() dto.RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	var hasPaused, hasFailed, hasRunning, hasCompleted bool
	for _, state := range o.states {
		switch state {
		case dto.NodeStatusCancelled:
			return dto.RunStatusCancelled
		case dto.NodeStatusPaused:
			hasPaused = true
		case dto.NodeStatusFailed:
			hasFailed = true
		case dto.NodeStatusRunning:
			hasRunning = true
		case dto.NodeStatusCompleted:
			hasCompleted = true
		}
	}
	switch {
	case hasPaused:
		return dto.RunStatusPaused
	case hasFailed:
		return dto.RunStatusFailed
	case hasRunning:
		return dto.RunStatusRunning
	case hasCompleted:
		return dto.RunStatusCompleted
	default:
		return dto.RunStatusPending
	}
}
