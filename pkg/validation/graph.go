// Package validation provides structural validation for workflow graphs
// and request-level validation for scheduler DTOs.
package validation

import (
	"context"
	"fmt"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/analysis"
	coregraph "github.com/graphrun/graphrun/internal/core/graph"
)

// Options controls optional structural checks.
type Options struct {
	// CheckCycles makes a directed cycle a hard error instead of a warning.
	CheckCycles bool
}

// StructureValidator checks that a graph is well-formed enough to plan
// and execute. Errors make the report invalid; warnings do not.
type StructureValidator struct {
	opts Options
}

// NewStructureValidator creates a validator with the given options.
func NewStructureValidator(opts Options) *StructureValidator {
	return &StructureValidator{opts: opts}
}

// ValidateStructure produces the validator's verdict. It never returns a
// Go error for graph problems, only for nil input; problems land in the
// report.
func (v *StructureValidator) ValidateStructure(ctx context.Context, g *coregraph.Graph) (*dto.ValidationReport, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}

	report := &dto.ValidationReport{IsValid: true}
	addError := func(format string, args ...interface{}) {
		report.IsValid = false
		report.Errors = append(report.Errors, fmt.Sprintf(format, args...))
	}
	addWarning := func(format string, args ...interface{}) {
		report.Warnings = append(report.Warnings, fmt.Sprintf(format, args...))
	}

	if g.ID == "" {
		addError("graph has no id")
	}
	if len(g.Nodes) == 0 {
		addWarning("graph has no nodes")
	}
	if len(g.Edges) == 0 && len(g.Nodes) > 1 {
		addWarning("graph has no edges")
	}

	for id, n := range g.Nodes {
		if n == nil {
			addError("node %s is nil", id)
			continue
		}
		if err := n.Validate(); err != nil {
			addError("node %s: %v", id, err)
		}
	}

	connected := make(map[string]bool)
	for id, e := range g.Edges {
		if e == nil {
			addError("edge %s is nil", id)
			continue
		}
		if err := e.Validate(); err != nil {
			addError("edge %s: %v", id, err)
			continue
		}
		if _, ok := g.Nodes[e.Source]; !ok {
			addError("edge %s: source node %s does not exist", id, e.Source)
		}
		if _, ok := g.Nodes[e.Target]; !ok {
			addError("edge %s: target node %s does not exist", id, e.Target)
		}
		connected[e.Source] = true
		connected[e.Target] = true
	}

	// An executable workflow has exactly one entry point.
	start, err := g.StartNode()
	switch err {
	case nil:
		for id := range g.Nodes {
			if id != start.ID && !analysis.Reachable(g, start.ID, id) {
				addWarning("node %s is unreachable from start node %s", id, start.ID)
			}
		}
	case coregraph.ErrNoStartNode:
		if len(g.Nodes) > 0 {
			addError("no start node: every node has incoming edges")
		}
	case coregraph.ErrAmbiguousStart:
		addError("multiple candidate start nodes: zero in-degree node is not unique")
	}

	for id := range g.Nodes {
		if len(g.Nodes) > 1 && !connected[id] {
			addWarning("node %s is isolated", id)
		}
	}

	if analysis.HasCycle(g) {
		if v.opts.CheckCycles {
			addError("graph contains a directed cycle: %v", analysis.FindCycle(g))
		} else {
			addWarning("graph contains a directed cycle")
		}
	}

	return report, nil
}
