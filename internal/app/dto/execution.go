package dto

import (
	"time"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// RunRequest asks the coordinator to execute a graph.
type RunRequest struct {
	GraphID     string                 `json:"graph_id" validate:"required"`
	StartNodeID string                 `json:"start_node_id,omitempty"`
	Input       map[string]interface{} `json:"input"`
	Config      RunConfig              `json:"config"`
}

// RunConfig contains per-run scheduling configuration.
type RunConfig struct {
	MaxParallelNodes  int           `json:"max_parallel_nodes" validate:"gte=0"`
	Timeout           time.Duration `json:"timeout"`
	DefaultMaxRetries int           `json:"default_max_retries" validate:"gte=0"`
	ValidateGraph     bool          `json:"validate_graph"`
}

// Validate applies defaults and checks the request.
func (req *RunRequest) Validate() error {
	if req.GraphID == "" {
		return ErrMissingGraphID
	}
	if req.Config.MaxParallelNodes <= 0 {
		req.Config.MaxParallelNodes = 10
	}
	if req.Config.Timeout <= 0 {
		req.Config.Timeout = 5 * time.Minute
	}
	if req.Config.DefaultMaxRetries < 0 {
		req.Config.DefaultMaxRetries = 0
	}
	return nil
}

// RunStatus represents the status of a whole execution run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusPaused    RunStatus = "paused"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// NodeStatus represents the live status of one node within a run.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusReady     NodeStatus = "ready"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusPaused    NodeStatus = "paused"
	NodeStatusCancelled NodeStatus = "cancelled"
)

// FailurePolicy governs how the coordinator reacts to a node failure.
type FailurePolicy string

const (
	FailurePolicyStop     FailurePolicy = "stop"
	FailurePolicyContinue FailurePolicy = "continue"
	FailurePolicyRetry    FailurePolicy = "retry"
)

// NodeExecutionResult is the settled outcome of one node execution.
type NodeExecutionResult struct {
	NodeID    string                 `json:"node_id"`
	NodeType  graph.NodeType         `json:"node_type"`
	Success   bool                   `json:"success"`
	Output    map[string]interface{} `json:"output,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Critical  bool                   `json:"critical,omitempty"` // critical errors are never retried
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Duration  time.Duration          `json:"duration"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// RunResult is the top-level outcome of a coordinated run. Callers are
// expected to inspect ExecutionPath and per-node results for diagnosis,
// not just Status.
type RunResult struct {
	ExecutionID   string                          `json:"execution_id"`
	GraphID       string                          `json:"graph_id"`
	Status        RunStatus                       `json:"status"`
	Results       map[string]*NodeExecutionResult `json:"results"`
	ExecutionPath []string                        `json:"execution_path"` // settlement order, not graph order
	Error         string                          `json:"error,omitempty"`
	StartTime     time.Time                       `json:"start_time"`
	EndTime       time.Time                       `json:"end_time"`
	Duration      time.Duration                   `json:"duration"`
}

// QueueStatus reports per-status counts for one run's queue.
type QueueStatus struct {
	Pending   int `json:"pending"`
	Ready     int `json:"ready"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Paused    int `json:"paused"`
	Cancelled int `json:"cancelled"`
}

// Total returns the number of queue items across all statuses.
func (s QueueStatus) Total() int {
	return s.Pending + s.Ready + s.Running + s.Completed + s.Failed + s.Paused + s.Cancelled
}

// StatusUpdate is the observability payload pushed to state trackers and
// statistics sinks. Sinks never influence scheduling decisions.
type StatusUpdate struct {
	ExecutionID string                 `json:"execution_id"`
	GraphID     string                 `json:"graph_id"`
	NodeID      string                 `json:"node_id"`
	NodeType    graph.NodeType         `json:"node_type"`
	Status      NodeStatus             `json:"status"`
	Output      map[string]interface{} `json:"output,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}
