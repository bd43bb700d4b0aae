package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// DefaultEdgeEvaluatorFactory maps edge types to their evaluators.
// Non-conditional edge types resolve to an always-true evaluator, since
// they traverse unconditionally once their source completes.
type DefaultEdgeEvaluatorFactory struct {
	evaluators map[graph.EdgeType]EdgeEvaluator
}

// NewDefaultEdgeEvaluatorFactory creates a factory with the built-in
// evaluators registered.
func NewDefaultEdgeEvaluatorFactory() *DefaultEdgeEvaluatorFactory {
	f := &DefaultEdgeEvaluatorFactory{
		evaluators: make(map[graph.EdgeType]EdgeEvaluator),
	}
	f.Register(graph.EdgeTypeConditional, &ConditionEdgeEvaluator{strict: true})
	f.Register(graph.EdgeTypeFlexibleConditional, &ConditionEdgeEvaluator{strict: false})
	return f
}

// Register installs an evaluator for an edge type.
func (f *DefaultEdgeEvaluatorFactory) Register(edgeType graph.EdgeType, evaluator EdgeEvaluator) {
	f.evaluators[edgeType] = evaluator
}

// EvaluatorFor resolves the evaluator for an edge type.
func (f *DefaultEdgeEvaluatorFactory) EvaluatorFor(edgeType graph.EdgeType) (EdgeEvaluator, error) {
	if evaluator, ok := f.evaluators[edgeType]; ok {
		return evaluator, nil
	}
	if edgeType == graph.EdgeTypeConditional || edgeType == graph.EdgeTypeFlexibleConditional {
		return nil, fmt.Errorf("%w: %s", ErrNoEvaluator, edgeType)
	}
	return alwaysTrueEvaluator{}, nil
}

type alwaysTrueEvaluator struct{}

func (alwaysTrueEvaluator) Evaluate(context.Context, *graph.Edge, map[string]interface{}) (bool, error) {
	return true, nil
}

// ConditionEdgeEvaluator evaluates the simple key-based condition
// grammar: "always", "never", "result.<key>" (boolean output field) or
// a bare key looked up in the data for truthiness. Strict evaluators
// refuse edges without a condition; flexible ones traverse them.
type ConditionEdgeEvaluator struct {
	strict bool
}

func (e *ConditionEdgeEvaluator) Evaluate(ctx context.Context, edge *graph.Edge, data map[string]interface{}) (bool, error) {
	if edge.Condition == "" {
		if e.strict {
			return false, fmt.Errorf("conditional edge %s has no condition", edge.ID)
		}
		return true, nil
	}
	return truthyCondition(edge.Condition, data), nil
}

// truthyCondition resolves the shared condition grammar against data.
func truthyCondition(condition string, data map[string]interface{}) bool {
	switch condition {
	case "always":
		return true
	case "never":
		return false
	}

	key := condition
	if strings.HasPrefix(condition, "result.") {
		key = strings.TrimPrefix(condition, "result.")
	}
	value, ok := data[key]
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != "" && v != "false"
	case int:
		return v != 0
	case float64:
		return v != 0
	case nil:
		return false
	default:
		return true
	}
}
