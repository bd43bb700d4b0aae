package usecases

import (
	"context"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/graph"
)

// GraphRepository defines the interface for graph storage and retrieval.
type GraphRepository interface {
	Save(ctx context.Context, g *graph.Graph) error
	Get(ctx context.Context, id string) (*graph.Graph, error)
	List(ctx context.Context) ([]*graph.Graph, error)
	Delete(ctx context.Context, id string) error
}

// NodeExecutor performs the business logic of a single node. The
// scheduler treats it as an opaque operation with one result; executors
// that support cancellation are expected to observe ctx themselves.
type NodeExecutor interface {
	Execute(ctx context.Context, node *graph.Node, input map[string]interface{}, execCtx map[string]interface{}) (map[string]interface{}, error)
}

// NodeExecutorFactory resolves the executor for a node type.
type NodeExecutorFactory interface {
	ExecutorFor(nodeType graph.NodeType) (NodeExecutor, error)
}

// EdgeEvaluator decides whether a conditional edge permits traversal.
type EdgeEvaluator interface {
	Evaluate(ctx context.Context, edge *graph.Edge, data map[string]interface{}) (bool, error)
}

// EdgeEvaluatorFactory resolves the evaluator for an edge type.
type EdgeEvaluatorFactory interface {
	EvaluatorFor(edgeType graph.EdgeType) (EdgeEvaluator, error)
}

// GraphValidator checks graph structure before planning. A plan is never
// built over a graph the validator rejects.
type GraphValidator interface {
	ValidateStructure(ctx context.Context, g *graph.Graph) (*dto.ValidationReport, error)
}

// StatusSink receives per-node status updates. Sinks are purely
// downstream of the coordinator and orchestrator; they never influence
// scheduling decisions.
type StatusSink interface {
	OnStatusUpdate(update dto.StatusUpdate)
}

// FailureRateProvider supplies historical failure rates by node type,
// consumed by the planner's reliability optimization strategy.
type FailureRateProvider interface {
	FailureRate(nodeType graph.NodeType) float64
}
