package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/graph"
	imetrics "github.com/graphrun/graphrun/internal/infrastructure/metrics"
)

// activeRun bundles the per-execution state owned by one coordinated run.
type activeRun struct {
	queue        *ExecutionQueueManager
	orchestrator *NodeExecutionOrchestrator
}

// NodeCoordinator is the top-level driver: it pulls ready nodes from the
// queue manager, dispatches batches to the orchestrator, applies per-node
// failure policies, detects deadlock and finalizes the run status.
//
// The driver loop itself is sequential; only node bodies run
// concurrently. All queue mutation happens back on the loop after a
// batch settles, so run state is single-writer by construction.
type NodeCoordinator struct {
	graphs    GraphRepository
	executors NodeExecutorFactory
	validator GraphValidator
	sinks     []StatusSink
	logger    *slog.Logger

	mu   sync.RWMutex
	runs map[string]*activeRun
}

// NewNodeCoordinator wires the coordinator's collaborators. validator
// may be nil when requests never ask for pre-run validation; sinks are
// optional observability consumers.
func NewNodeCoordinator(graphs GraphRepository, executors NodeExecutorFactory, validator GraphValidator, logger *slog.Logger, sinks ...StatusSink) *NodeCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeCoordinator{
		graphs:    graphs,
		executors: executors,
		validator: validator,
		sinks:     sinks,
		logger:    logger,
		runs:      make(map[string]*activeRun),
	}
}

// CoordinateNodeExecution executes the graph named by req from its start
// node until completion, failure, cancellation or deadlock.
func (c *NodeCoordinator) CoordinateNodeExecution(ctx context.Context, req *dto.RunRequest) (*dto.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	g, err := c.graphs.Get(ctx, req.GraphID)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", req.GraphID, err)
	}

	if req.Config.ValidateGraph && c.validator != nil {
		report, verr := c.validator.ValidateStructure(ctx, g)
		if verr != nil {
			return nil, fmt.Errorf("validate graph %s: %w", req.GraphID, verr)
		}
		if !report.IsValid {
			return nil, fmt.Errorf("%w: %v", dto.ErrInvalidGraphStructure, report.Errors)
		}
	}

	startID := req.StartNodeID
	if startID == "" {
		start, serr := g.StartNode()
		if serr != nil {
			return nil, fmt.Errorf("%w: %v", dto.ErrMissingStartNode, serr)
		}
		startID = start.ID
	} else if _, ok := g.Nodes[startID]; !ok {
		return nil, fmt.Errorf("%w: start node %s", graph.ErrNodeNotFound, startID)
	}

	executionID := uuid.New().String()
	queue := NewExecutionQueueManager(executionID, g, startID, req.Input, req.Config.DefaultMaxRetries)
	orchestrator := NewNodeExecutionOrchestrator(executionID, g.ID, c.executors, req.Input, req.Config.MaxParallelNodes, req.Config.Timeout, c.logger)

	c.mu.Lock()
	c.runs[executionID] = &activeRun{queue: queue, orchestrator: orchestrator}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.runs, executionID)
		c.mu.Unlock()
	}()

	imetrics.IncRuns()
	result := &dto.RunResult{
		ExecutionID: executionID,
		GraphID:     g.ID,
		Status:      dto.RunStatusRunning,
		Results:     make(map[string]*dto.NodeExecutionResult),
		StartTime:   time.Now(),
	}
	c.logger.Info("run started", "execution_id", executionID, "graph_id", g.ID, "start_node", startID)

	runErr := c.driveLoop(ctx, g, queue, orchestrator, result)

	// Anything still marked running at loop exit is abandoned work.
	if running := queue.RunningNodes(); len(running) > 0 {
		orchestrator.CancelAll()
		for _, id := range running {
			if cerr := queue.MarkNodeCancelled(id); cerr == nil {
				c.notify(executionID, g.ID, id, g.Nodes[id].Type, dto.NodeStatusCancelled, nil, "")
			}
		}
		if runErr == nil {
			runErr = dto.ErrExecutionCancelled
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Status = c.finalStatus(queue, runErr)
	if runErr != nil {
		result.Error = runErr.Error()
	}

	c.logger.Info("run finished",
		"execution_id", executionID, "status", result.Status,
		"duration", result.Duration, "path_len", len(result.ExecutionPath))
	return result, runErr
}

// driveLoop is the coordinator's sequential dispatch loop.
func (c *NodeCoordinator) driveLoop(ctx context.Context, g *graph.Graph, queue *ExecutionQueueManager, orchestrator *NodeExecutionOrchestrator, result *dto.RunResult) error {
	executionID := queue.ExecutionID()

	for queue.HasPendingNodes() {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", dto.ErrExecutionCancelled, ctx.Err())
		}

		executable := queue.ExecutableNodes()
		if len(executable) == 0 {
			if queue.HasDeadlock() {
				imetrics.IncDeadlocks()
				return dto.ErrExecutionDeadlock
			}
			if len(queue.RunningNodes()) > 0 {
				// Batches settle synchronously, so this only happens when an
				// external pause/cancel raced the scan. Re-poll shortly.
				time.Sleep(10 * time.Millisecond)
				continue
			}
			// Only paused items can block here; the run ends paused.
			return nil
		}

		for _, item := range executable {
			if err := queue.MarkNodeRunning(item.Node.ID); err != nil {
				return err
			}
			c.notify(executionID, g.ID, item.Node.ID, item.Node.Type, dto.NodeStatusRunning, nil, "")
		}

		imetrics.IncBatches()
		results := orchestrator.ExecuteBatch(ctx, executable)

		if stop, err := c.applyBatchResults(g, queue, results, result); stop {
			return err
		}
	}
	return nil
}

// applyBatchResults records settled results and applies each failed
// node's failure policy. It returns stop=true when the run must abort.
func (c *NodeCoordinator) applyBatchResults(g *graph.Graph, queue *ExecutionQueueManager, results map[string]*dto.NodeExecutionResult, result *dto.RunResult) (bool, error) {
	executionID := queue.ExecutionID()

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var stopErr error
	for _, nodeID := range ids {
		res := results[nodeID]
		result.Results[nodeID] = res
		result.ExecutionPath = append(result.ExecutionPath, nodeID)
		imetrics.IncNodeExecs(1)

		if res.Success {
			if err := queue.MarkNodeCompleted(nodeID); err != nil {
				return true, err
			}
			c.notify(executionID, g.ID, nodeID, res.NodeType, dto.NodeStatusCompleted, res.Output, "")
			continue
		}

		policy := dto.FailurePolicy(g.Nodes[nodeID].ErrorHandlingStrategy(string(dto.FailurePolicyStop)))
		allowRetry := policy == dto.FailurePolicyRetry && !res.Critical
		retrying, err := queue.MarkNodeFailed(nodeID, res.Error, allowRetry)
		if err != nil {
			return true, err
		}
		if retrying {
			imetrics.IncRetries()
			c.notify(executionID, g.ID, nodeID, res.NodeType, dto.NodeStatusPending, nil, res.Error)
			c.logger.Warn("node failed, retrying",
				"execution_id", executionID, "node_id", nodeID, "error", res.Error)
			continue
		}

		c.notify(executionID, g.ID, nodeID, res.NodeType, dto.NodeStatusFailed, nil, res.Error)
		c.logger.Error("node failed",
			"execution_id", executionID, "node_id", nodeID,
			"policy", policy, "error", res.Error)

		if policy == dto.FailurePolicyStop {
			stopErr = fmt.Errorf("%w: node %s: %s", dto.ErrExecutionFailed, nodeID, res.Error)
		}
		// continue and exhausted-retry policies let remaining independent
		// work proceed; dependents of the failed node stay pending and
		// surface as a deadlock or unfinished pending set.
	}
	if stopErr != nil {
		return true, stopErr
	}
	return false, nil
}

// finalStatus folds the run's terminal condition.
func (c *NodeCoordinator) finalStatus(queue *ExecutionQueueManager, runErr error) dto.RunStatus {
	status := queue.QueueStatus()
	switch {
	case runErr != nil && status.Cancelled > 0:
		return dto.RunStatusCancelled
	case runErr != nil:
		return dto.RunStatusFailed
	case status.Failed > 0:
		return dto.RunStatusFailed
	case status.Cancelled > 0:
		return dto.RunStatusCancelled
	case status.Paused > 0:
		return dto.RunStatusPaused
	default:
		return dto.RunStatusCompleted
	}
}

// PauseNode pauses a node of an active run.
func (c *NodeCoordinator) PauseNode(executionID, nodeID string) error {
	run, err := c.run(executionID)
	if err != nil {
		return err
	}
	if err := run.orchestrator.PauseNodeExecution(executionID, nodeID); err != nil {
		return err
	}
	return run.queue.MarkNodePaused(nodeID)
}

// ResumeNode resumes a paused node of an active run.
func (c *NodeCoordinator) ResumeNode(executionID, nodeID string) error {
	run, err := c.run(executionID)
	if err != nil {
		return err
	}
	if err := run.orchestrator.ResumeNodeExecution(executionID, nodeID); err != nil {
		return err
	}
	return run.queue.MarkNodeResumed(nodeID)
}

// CancelNode cancels a node of an active run. Cancellation is
// cooperative: the executor's context is cancelled but the call is not
// forcibly interrupted.
func (c *NodeCoordinator) CancelNode(executionID, nodeID string) error {
	run, err := c.run(executionID)
	if err != nil {
		return err
	}
	if err := run.orchestrator.CancelNodeExecution(executionID, nodeID); err != nil {
		return err
	}
	return run.queue.MarkNodeCancelled(nodeID)
}

// RunQueueStatus reports per-status counts for an active run.
func (c *NodeCoordinator) RunQueueStatus(executionID string) (dto.QueueStatus, error) {
	run, err := c.run(executionID)
	if err != nil {
		return dto.QueueStatus{}, err
	}
	return run.queue.QueueStatus(), nil
}

func (c *NodeCoordinator) run(executionID string) (*activeRun, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	run, ok := c.runs[executionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dto.ErrRunNotFound, executionID)
	}
	return run, nil
}

func (c *NodeCoordinator) notify(executionID, graphID, nodeID string, nodeType graph.NodeType, status dto.NodeStatus, output map[string]interface{}, errMsg string) {
	if len(c.sinks) == 0 {
		return
	}
	update := dto.StatusUpdate{
		ExecutionID: executionID,
		GraphID:     graphID,
		NodeID:      nodeID,
		NodeType:    nodeType,
		Status:      status,
		Output:      output,
		Error:       errMsg,
		Timestamp:   time.Now(),
	}
	for _, sink := range c.sinks {
		sink.OnStatusUpdate(update)
	}
}
