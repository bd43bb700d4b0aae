// Package graph defines domain-specific errors
package graph

import "errors"

// Domain errors - defined once, used everywhere
var (
	// Graph errors
	ErrInvalidGraphID   = errors.New("invalid graph ID")
	ErrGraphNotFound    = errors.New("graph not found")
	ErrCyclicGraph      = errors.New("cyclic dependency detected")
	ErrNoStartNode      = errors.New("no start node found")
	ErrAmbiguousStart   = errors.New("multiple candidate start nodes")
	ErrDanglingEdge     = errors.New("edge references a missing node")

	// Node errors
	ErrNilNode         = errors.New("node cannot be nil")
	ErrInvalidNodeID   = errors.New("invalid node ID")
	ErrInvalidNodeName = errors.New("invalid node name")
	ErrInvalidNodeType = errors.New("invalid node type")
	ErrNodeNotFound    = errors.New("node not found")
	ErrDuplicateNode   = errors.New("duplicate node ID")
	ErrNodeConnected   = errors.New("node still has connected edges")

	// Edge errors
	ErrNilEdge            = errors.New("edge cannot be nil")
	ErrInvalidEdgeID      = errors.New("invalid edge ID")
	ErrInvalidSource      = errors.New("invalid source node")
	ErrInvalidTarget      = errors.New("invalid target node")
	ErrSourceNodeNotFound = errors.New("source node not found")
	ErrTargetNodeNotFound = errors.New("target node not found")
	ErrEdgeNotFound       = errors.New("edge not found")
	ErrDuplicateEdge      = errors.New("duplicate edge ID")
)
