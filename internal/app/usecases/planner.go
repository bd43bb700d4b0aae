package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/analysis"
	"github.com/graphrun/graphrun/internal/core/graph"
	imetrics "github.com/graphrun/graphrun/internal/infrastructure/metrics"
)

// Base duration estimate per node type, scaled by the node's complexity
// factor. The total plan estimate is the additive sum of step estimates,
// not a critical-path-aware schedule length.
var baseDurationByType = map[graph.NodeType]time.Duration{
	graph.NodeTypeLLM:       5 * time.Second,
	graph.NodeTypeTool:      2 * time.Second,
	graph.NodeTypeData:      time.Second,
	graph.NodeTypeCondition: 100 * time.Millisecond,
	graph.NodeTypeWait:      100 * time.Millisecond,
	graph.NodeTypeStart:     10 * time.Millisecond,
	graph.NodeTypeEnd:       10 * time.Millisecond,
}

// Relative resource cost per node type, used by the resource strategy.
var resourceCostByType = map[graph.NodeType]float64{
	graph.NodeTypeLLM:       10,
	graph.NodeTypeTool:      5,
	graph.NodeTypeData:      2,
	graph.NodeTypeCondition: 1,
	graph.NodeTypeWait:      1,
	graph.NodeTypeStart:     0,
	graph.NodeTypeEnd:       0,
}

// Fallback failure rates when no statistics provider is wired.
var defaultFailureRateByType = map[graph.NodeType]float64{
	graph.NodeTypeLLM:       0.15,
	graph.NodeTypeTool:      0.10,
	graph.NodeTypeData:      0.05,
	graph.NodeTypeCondition: 0.01,
	graph.NodeTypeWait:      0.01,
	graph.NodeTypeStart:     0,
	graph.NodeTypeEnd:       0,
}

const defaultStepRetries = 3

// ExecutionPlanner turns graph analysis into an immutable ExecutionPlan.
type ExecutionPlanner struct {
	graphs    GraphRepository
	validator GraphValidator
	stats     FailureRateProvider // optional
	logger    *slog.Logger
}

// NewExecutionPlanner creates a planner. stats may be nil, in which case
// per-type default failure rates drive the reliability strategy.
func NewExecutionPlanner(graphs GraphRepository, validator GraphValidator, stats FailureRateProvider, logger *slog.Logger) *ExecutionPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecutionPlanner{
		graphs:    graphs,
		validator: validator,
		stats:     stats,
		logger:    logger,
	}
}

// CreateExecutionPlan loads and validates the graph, analyzes it from
// the chosen start node and produces an ordered plan. No partial plan is
// ever returned: structural problems abort planning entirely.
func (p *ExecutionPlanner) CreateExecutionPlan(ctx context.Context, graphID string, options dto.PlanOptions) (*dto.ExecutionPlan, error) {
	g, err := p.graphs.Get(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", graphID, err)
	}

	report, err := p.validator.ValidateStructure(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("validate graph %s: %w", graphID, err)
	}
	if !report.IsValid {
		return nil, fmt.Errorf("%w: %s", dto.ErrInvalidGraphStructure, strings.Join(report.Errors, "; "))
	}

	startID := options.StartNodeID
	if startID == "" {
		start, serr := g.StartNode()
		if serr != nil {
			return nil, fmt.Errorf("%w: %v", dto.ErrMissingStartNode, serr)
		}
		startID = start.ID
	} else if _, ok := g.Nodes[startID]; !ok {
		return nil, fmt.Errorf("%w: start node %s", graph.ErrNodeNotFound, startID)
	}

	result := analysis.Analyze(g, startID, options.Constraints.MaxParallelNodes)

	steps, err := p.generateSteps(g, startID, options.ExecutionMode, result)
	if err != nil {
		return nil, err
	}

	p.optimizeSteps(steps, options.OptimizationStrategy, result.CriticalPath)

	plan := &dto.ExecutionPlan{
		ID:            uuid.New().String(),
		GraphID:       graphID,
		ExecutionMode: options.ExecutionMode,
		Steps:         steps,
		Dependencies:  deriveDependencies(steps),
		Metadata: map[string]interface{}{
			"analysis":              result,
			"optimization_strategy": options.OptimizationStrategy,
			"constraints":           options.Constraints,
		},
		CreatedAt: time.Now(),
	}
	for i := range plan.Steps {
		plan.EstimatedDuration += plan.Steps[i].EstimatedDuration
	}

	imetrics.IncPlans()
	p.logger.Info("execution plan created",
		"plan_id", plan.ID, "graph_id", graphID,
		"mode", options.ExecutionMode, "steps", len(plan.Steps),
		"estimated_duration", plan.EstimatedDuration)
	return plan, nil
}

// generateSteps builds the unordered step list for the requested mode.
func (p *ExecutionPlanner) generateSteps(g *graph.Graph, startID string, mode dto.ExecutionMode, result analysis.Result) ([]dto.ExecutionStep, error) {
	var nodeOrder []string
	switch mode {
	case dto.ExecutionModeSequential:
		nodeOrder = bfsOrder(g, startID)
	case dto.ExecutionModeParallel:
		nodeOrder = levelOrder(result.Levels)
	case dto.ExecutionModeConditional:
		nodeOrder = append([]string(nil), result.CriticalPath...)
	default:
		return nil, fmt.Errorf("%w: %q", dto.ErrInvalidExecutionMode, mode)
	}

	steps := make([]dto.ExecutionStep, 0, len(nodeOrder))
	stepIDByNode := make(map[string]string, len(nodeOrder))
	for i, nodeID := range nodeOrder {
		node := g.Nodes[nodeID]
		step := dto.ExecutionStep{
			ID:                uuid.New().String(),
			NodeID:            nodeID,
			Name:              node.Name,
			Type:              node.Type,
			Order:             i,
			EstimatedDuration: estimateStepDuration(node),
			RetryConfig: dto.RetryConfig{
				MaxRetries: node.MaxRetries(defaultStepRetries),
				RetryDelay: time.Second,
			},
		}
		// Prerequisites are the steps of predecessor nodes already
		// placed in the plan.
		for _, e := range g.EdgesTo(nodeID) {
			if prereqID, ok := stepIDByNode[e.Source]; ok {
				step.Prerequisites = append(step.Prerequisites, prereqID)
			}
		}
		sort.Strings(step.Prerequisites)
		stepIDByNode[nodeID] = step.ID
		steps = append(steps, step)
	}
	return steps, nil
}

// optimizeSteps reorders steps in place per strategy and re-numbers them.
func (p *ExecutionPlanner) optimizeSteps(steps []dto.ExecutionStep, strategy dto.OptimizationStrategy, criticalPath []string) {
	onCritical := make(map[string]bool, len(criticalPath))
	for _, id := range criticalPath {
		onCritical[id] = true
	}

	switch strategy {
	case dto.OptimizeSpeed:
		sort.SliceStable(steps, func(i, j int) bool {
			ci, cj := onCritical[steps[i].NodeID], onCritical[steps[j].NodeID]
			if ci != cj {
				return ci
			}
			return steps[i].EstimatedDuration < steps[j].EstimatedDuration
		})
	case dto.OptimizeResource:
		sort.SliceStable(steps, func(i, j int) bool {
			return resourceCostByType[steps[i].Type] < resourceCostByType[steps[j].Type]
		})
	case dto.OptimizeReliability:
		sort.SliceStable(steps, func(i, j int) bool {
			return p.failureRate(steps[i].Type) < p.failureRate(steps[j].Type)
		})
	}

	for i := range steps {
		steps[i].Order = i
	}
}

func (p *ExecutionPlanner) failureRate(t graph.NodeType) float64 {
	if p.stats != nil {
		return p.stats.FailureRate(t)
	}
	return defaultFailureRateByType[t]
}

func estimateStepDuration(node *graph.Node) time.Duration {
	base, ok := baseDurationByType[node.Type]
	if !ok {
		base = time.Second
	}
	return time.Duration(float64(base) * node.Complexity())
}

// deriveDependencies produces one success-typed dependency per
// prerequisite of every step.
func deriveDependencies(steps []dto.ExecutionStep) []dto.ExecutionDependency {
	var deps []dto.ExecutionDependency
	for i := range steps {
		for _, prereq := range steps[i].Prerequisites {
			deps = append(deps, dto.ExecutionDependency{
				FromStepID: prereq,
				ToStepID:   steps[i].ID,
				Type:       dto.DependencySuccess,
			})
		}
	}
	return deps
}

// bfsOrder returns nodes in BFS first-visit order from startID, with
// deterministic sibling order.
func bfsOrder(g *graph.Graph, startID string) []string {
	var order []string
	visited := map[string]bool{startID: true}
	queue := []string{startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		var targets []string
		for _, e := range g.EdgesFrom(current) {
			targets = append(targets, e.Target)
		}
		sort.Strings(targets)
		for _, t := range targets {
			if !visited[t] {
				visited[t] = true
				queue = append(queue, t)
			}
		}
	}
	return order
}

// levelOrder flattens the level map, ordered by level then node id.
func levelOrder(levels map[string]int) []string {
	ids := make([]string, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if levels[ids[i]] != levels[ids[j]] {
			return levels[ids[i]] < levels[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
