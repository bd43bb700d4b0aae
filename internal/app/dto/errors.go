package dto

import "errors"

// Execution errors
var (
	ErrMissingGraphID     = errors.New("graph ID is required")
	ErrMissingStartNode   = errors.New("start node could not be resolved")
	ErrInvalidConfig      = errors.New("invalid execution configuration")
	ErrExecutionFailed    = errors.New("graph execution failed")
	ErrExecutionDeadlock  = errors.New("execution deadlocked: pending nodes can never become ready")
	ErrExecutionCancelled = errors.New("execution cancelled")
	ErrRunNotFound        = errors.New("execution run not found")
	ErrNodeNotQueued      = errors.New("node not present in execution queue")
	ErrRetriesExhausted   = errors.New("node retries exhausted")
)

// Planning errors
var (
	ErrInvalidGraphStructure = errors.New("invalid graph structure")
	ErrInvalidExecutionMode  = errors.New("invalid execution mode")
	ErrPlanningFailed        = errors.New("execution plan creation failed")
)
