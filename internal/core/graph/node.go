// Package graph provides node definitions
package graph

import "time"

// NodeType represents the type of node
type NodeType string

const (
	// NodeTypeLLM represents a large-language-model call node
	NodeTypeLLM NodeType = "llm"
	// NodeTypeTool represents an external tool invocation node
	NodeTypeTool NodeType = "tool"
	// NodeTypeCondition represents a condition evaluation node
	NodeTypeCondition NodeType = "condition"
	// NodeTypeWait represents a wait/delay node
	NodeTypeWait NodeType = "wait"
	// NodeTypeData represents a data transformation node
	NodeTypeData NodeType = "data"
	// NodeTypeStart represents the entry node of a workflow
	NodeTypeStart NodeType = "start"
	// NodeTypeEnd represents a terminal node of a workflow
	NodeTypeEnd NodeType = "end"
)

// Well-known property keys read by the scheduler. Everything else in
// Properties is opaque and passed through to executors untouched.
const (
	PropMaxRetries            = "maxRetries"
	PropPriority              = "priority"
	PropErrorHandlingStrategy = "errorHandlingStrategy"
	PropComplexity            = "complexity"
)

// Node represents a vertex in the graph. Nodes are immutable once added
// to a graph; structural changes go through the graph mutation methods.
type Node struct {
	ID         string                 `json:"id"`
	Type       NodeType               `json:"type"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Validate ensures node integrity
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if n.Name == "" {
		return ErrInvalidNodeName
	}
	if n.Type == "" {
		return ErrInvalidNodeType
	}
	return nil
}

// MaxRetries reads the retry budget from node properties, returning def
// when absent or malformed.
func (n *Node) MaxRetries(def int) int {
	return n.intProperty(PropMaxRetries, def)
}

// Priority reads the custom scheduling priority from node properties.
func (n *Node) Priority() int {
	return n.intProperty(PropPriority, 0)
}

// Complexity reads the duration complexity factor from node properties,
// defaulting to 1.0.
func (n *Node) Complexity() float64 {
	if n.Properties == nil {
		return 1.0
	}
	switch v := n.Properties[PropComplexity].(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	return 1.0
}

// ErrorHandlingStrategy reads the failure policy from node properties.
// Unknown or missing values fall back to def.
func (n *Node) ErrorHandlingStrategy(def string) string {
	if n.Properties == nil {
		return def
	}
	if s, ok := n.Properties[PropErrorHandlingStrategy].(string); ok && s != "" {
		return s
	}
	return def
}

func (n *Node) intProperty(key string, def int) int {
	if n.Properties == nil {
		return def
	}
	switch v := n.Properties[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
