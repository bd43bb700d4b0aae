package dto

import (
	"time"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// ExecutionMode selects how the planner orders steps.
type ExecutionMode string

const (
	// ExecutionModeSequential orders steps in BFS visitation order.
	ExecutionModeSequential ExecutionMode = "sequential"
	// ExecutionModeParallel groups and orders steps by BFS level.
	ExecutionModeParallel ExecutionMode = "parallel"
	// ExecutionModeConditional limits steps to the critical path.
	ExecutionModeConditional ExecutionMode = "conditional"
)

// OptimizationStrategy selects how the planner reorders steps.
type OptimizationStrategy string

const (
	// OptimizeSpeed prioritizes critical-path nodes, then shorter steps.
	OptimizeSpeed OptimizationStrategy = "speed"
	// OptimizeResource prioritizes lower per-type resource cost.
	OptimizeResource OptimizationStrategy = "resource"
	// OptimizeReliability prioritizes lower historical failure rate.
	OptimizeReliability OptimizationStrategy = "reliability"
)

// PlanConstraints bounds the plan the optimizer may produce.
type PlanConstraints struct {
	MaxParallelNodes int                `json:"max_parallel_nodes" validate:"gte=0"`
	Timeout          time.Duration      `json:"timeout"`
	ResourceLimits   map[string]float64 `json:"resource_limits,omitempty"`
}

// PlanOptions carries everything CreateExecutionPlan needs beyond the
// graph id. StartNodeID defaults to the graph's unique zero in-degree
// node; planning fails when neither exists.
type PlanOptions struct {
	ExecutionMode        ExecutionMode        `json:"execution_mode" validate:"required,oneof=sequential parallel conditional"`
	StartNodeID          string               `json:"start_node_id,omitempty"`
	OptimizationStrategy OptimizationStrategy `json:"optimization_strategy" validate:"omitempty,oneof=speed resource reliability"`
	Constraints          PlanConstraints      `json:"constraints"`
}

// RetryConfig is the per-step retry budget carried in the plan.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
}

// ExecutionStep is one planned unit of work. Order is assigned by the
// optimizer; Prerequisites lists ids of steps that must complete first.
type ExecutionStep struct {
	ID                string         `json:"id"`
	NodeID            string         `json:"node_id"`
	Name              string         `json:"name"`
	Type              graph.NodeType `json:"type"`
	Order             int            `json:"order"`
	Prerequisites     []string       `json:"prerequisites"`
	EstimatedDuration time.Duration  `json:"estimated_duration"`
	RetryConfig       RetryConfig    `json:"retry_config"`
}

// DependencyType classifies an execution dependency.
type DependencyType string

// DependencySuccess requires the prerequisite step to have completed
// successfully. Conditions are not attached at this layer.
const DependencySuccess DependencyType = "success"

// ExecutionDependency links two steps of a plan, derived one-to-one
// from each step's prerequisites.
type ExecutionDependency struct {
	FromStepID string         `json:"from_step_id"`
	ToStepID   string         `json:"to_step_id"`
	Type       DependencyType `json:"type"`
}

// ExecutionPlan is the immutable result of offline planning. The live
// scheduler does not require a plan; it can run directly from a graph
// plus a start node.
type ExecutionPlan struct {
	ID                string                 `json:"id"`
	GraphID           string                 `json:"graph_id"`
	ExecutionMode     ExecutionMode          `json:"execution_mode"`
	Steps             []ExecutionStep        `json:"steps"`
	Dependencies      []ExecutionDependency  `json:"dependencies"`
	EstimatedDuration time.Duration          `json:"estimated_duration"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// StepByNode returns the plan step for a node id, if present.
func (p *ExecutionPlan) StepByNode(nodeID string) (*ExecutionStep, bool) {
	for i := range p.Steps {
		if p.Steps[i].NodeID == nodeID {
			return &p.Steps[i], true
		}
	}
	return nil, false
}
