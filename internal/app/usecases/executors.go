package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// DefaultNodeExecutorFactory maps node types to their executors. Callers
// register custom executors; unregistered types fail at dispatch.
type DefaultNodeExecutorFactory struct {
	executors map[graph.NodeType]NodeExecutor
}

// NewDefaultNodeExecutorFactory creates a factory with the built-in
// executors registered for every known node type.
func NewDefaultNodeExecutorFactory() *DefaultNodeExecutorFactory {
	f := &DefaultNodeExecutorFactory{
		executors: make(map[graph.NodeType]NodeExecutor),
	}
	f.Register(graph.NodeTypeStart, &PassthroughExecutor{})
	f.Register(graph.NodeTypeEnd, &PassthroughExecutor{})
	f.Register(graph.NodeTypeData, &DataExecutor{})
	f.Register(graph.NodeTypeCondition, &ConditionExecutor{})
	f.Register(graph.NodeTypeWait, &WaitExecutor{})
	f.Register(graph.NodeTypeTool, &ToolExecutor{})
	f.Register(graph.NodeTypeLLM, &LLMExecutor{})
	return f
}

// Register installs an executor for a node type, replacing any default.
func (f *DefaultNodeExecutorFactory) Register(nodeType graph.NodeType, executor NodeExecutor) {
	f.executors[nodeType] = executor
}

// ExecutorFor resolves the executor for a node type.
func (f *DefaultNodeExecutorFactory) ExecutorFor(nodeType graph.NodeType) (NodeExecutor, error) {
	executor, ok := f.executors[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoExecutor, nodeType)
	}
	return executor, nil
}

// CanExecute reports whether an executor is registered for the type.
func (f *DefaultNodeExecutorFactory) CanExecute(nodeType graph.NodeType) bool {
	_, ok := f.executors[nodeType]
	return ok
}

// PassthroughExecutor forwards its input unchanged; used for start and
// end nodes.
type PassthroughExecutor struct{}

func (e *PassthroughExecutor) Execute(ctx context.Context, node *graph.Node, input map[string]interface{}, execCtx map[string]interface{}) (map[string]interface{}, error) {
	output := copyData(input)
	output["processed_by"] = node.ID
	return output, nil
}

// DataExecutor applies the node's property mappings to its input.
type DataExecutor struct{}

func (e *DataExecutor) Execute(ctx context.Context, node *graph.Node, input map[string]interface{}, execCtx map[string]interface{}) (map[string]interface{}, error) {
	output := copyData(input)
	if mappings, ok := node.Properties["mappings"].(map[string]interface{}); ok {
		for key, value := range mappings {
			output[key] = value
		}
	}
	output["processed_by"] = node.ID
	return output, nil
}

// ConditionExecutor evaluates the node's condition property against its
// input and records the verdict for downstream conditional edges.
type ConditionExecutor struct{}

func (e *ConditionExecutor) Execute(ctx context.Context, node *graph.Node, input map[string]interface{}, execCtx map[string]interface{}) (map[string]interface{}, error) {
	output := copyData(input)
	verdict := true
	if cond, ok := node.Properties["condition"].(string); ok && cond != "" {
		verdict = truthyCondition(cond, input)
	}
	output["condition_result"] = verdict
	output["evaluated_by"] = node.ID
	return output, nil
}

// WaitExecutor sleeps for the node's configured delay, observing ctx.
type WaitExecutor struct{}

func (e *WaitExecutor) Execute(ctx context.Context, node *graph.Node, input map[string]interface{}, execCtx map[string]interface{}) (map[string]interface{}, error) {
	delay := 100 * time.Millisecond
	if ms, ok := node.Properties["delay_ms"].(float64); ok && ms > 0 {
		delay = time.Duration(ms) * time.Millisecond
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	output := copyData(input)
	output["waited_ms"] = delay.Milliseconds()
	return output, nil
}

// ToolExecutor is a placeholder for external tool invocation; real
// deployments register their own implementation.
type ToolExecutor struct{}

func (e *ToolExecutor) Execute(ctx context.Context, node *graph.Node, input map[string]interface{}, execCtx map[string]interface{}) (map[string]interface{}, error) {
	output := copyData(input)
	output["tool_executed"] = node.ID
	return output, nil
}

// LLMExecutor is a placeholder for model calls; real deployments
// register their own implementation.
type LLMExecutor struct{}

func (e *LLMExecutor) Execute(ctx context.Context, node *graph.Node, input map[string]interface{}, execCtx map[string]interface{}) (map[string]interface{}, error) {
	output := copyData(input)
	output["llm_processed"] = node.ID
	return output, nil
}

func copyData(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}
