// Package graph provides edge definitions
package graph

// EdgeType represents the type of edge
type EdgeType string

const (
	// EdgeTypeSequence represents a plain sequential edge
	EdgeTypeSequence EdgeType = "sequence"
	// EdgeTypeConditional represents an edge gated by a condition
	EdgeTypeConditional EdgeType = "conditional"
	// EdgeTypeFlexibleConditional represents a conditional edge that
	// traverses when no condition is attached
	EdgeTypeFlexibleConditional EdgeType = "flexible_conditional"
	// EdgeTypeDefault represents a default edge
	EdgeTypeDefault EdgeType = "default"
	// EdgeTypeError represents an error handling edge
	EdgeTypeError EdgeType = "error"
	// EdgeTypeTimeout represents a timeout escalation edge
	EdgeTypeTimeout EdgeType = "timeout"
	// EdgeTypeAsync represents an asynchronous hand-off edge
	EdgeTypeAsync EdgeType = "async"
	// EdgeTypeSync represents a synchronous hand-off edge
	EdgeTypeSync EdgeType = "sync"
	// EdgeTypeEventDriven represents an event-triggered edge
	EdgeTypeEventDriven EdgeType = "event_driven"
	// EdgeTypeCustom represents a user-defined edge
	EdgeTypeCustom EdgeType = "custom"
)

// Edge represents a directed connection between two nodes
type Edge struct {
	ID        string                 `json:"id"`
	Type      EdgeType               `json:"type"`
	Source    string                 `json:"source"` // Source node ID
	Target    string                 `json:"target"` // Target node ID
	Condition string                 `json:"condition,omitempty"` // Opaque expression for conditional edges
	Weight    float64                `json:"weight,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Validate ensures edge integrity
func (e *Edge) Validate() error {
	if e.ID == "" {
		return ErrInvalidEdgeID
	}
	if e.Source == "" {
		return ErrInvalidSource
	}
	if e.Target == "" {
		return ErrInvalidTarget
	}
	if e.Type == "" {
		e.Type = EdgeTypeDefault
	}
	return nil
}

// IsConditional reports whether traversal of this edge requires an
// evaluator to approve its condition.
func (e *Edge) IsConditional() bool {
	return e.Type == EdgeTypeConditional || e.Type == EdgeTypeFlexibleConditional
}
