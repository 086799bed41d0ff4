package graph

// Category is the structural role a pass requires of its targets. It is a
// closed set: every pass declares exactly one.
type Category string

const (
	// CategoryWholeGraph targets the single root node.
	CategoryWholeGraph Category = "whole-graph"
	// CategoryComponent targets component nodes (libraries, applications).
	CategoryComponent Category = "component"
	// CategoryUnit targets translation units (files).
	CategoryUnit Category = "unit"
	// CategoryEntryPoint targets nodes that can start a control-flow walk,
	// i.e. function declarations.
	CategoryEntryPoint Category = "entry-point"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWholeGraph, CategoryComponent, CategoryUnit, CategoryEntryPoint:
		return true
	}
	return false
}

// Satisfies reports whether the node can serve as a target for the given
// category.
func (n *Node) Satisfies(c Category) bool {
	switch c {
	case CategoryWholeGraph:
		return n.Kind == KindGraph
	case CategoryComponent:
		return n.Kind == KindComponent
	case CategoryUnit:
		return n.Kind == KindUnit
	case CategoryEntryPoint:
		return n.Kind == KindFunction
	}
	return false
}

// IsUnprocessedStarter reports whether the node is an entry point whose
// control-flow ordering has not been computed yet (no evaluation-order
// predecessor). Ancestor target searches for the entry-point category
// require this stronger condition.
func (n *Node) IsUnprocessedStarter() bool {
	return n.Kind == KindFunction && len(n.eogPrev) == 0
}
