package graph

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrNodeNotFound is returned when a node ID does not exist in the graph.
var ErrNodeNotFound = errors.New("node not found")

// Kind identifies the concrete role of a node in the program graph.
type Kind string

// Node kinds follow the usual code-property-graph vocabulary. The root is
// always KindGraph; components group translation units; everything below a
// unit is syntax.
const (
	KindGraph      Kind = "graph"
	KindComponent  Kind = "component"
	KindUnit       Kind = "unit"
	KindFunction   Kind = "function"
	KindBlock      Kind = "block"
	KindCall       Kind = "call"
	KindAssignment Kind = "assignment"
	KindReference  Kind = "reference"
	KindVariable   Kind = "variable"
	KindLiteral    Kind = "literal"
)

// Node is a single element of the program graph. The tree structure (parent,
// children) is owned by the front-end that built the graph; overlay edges
// (evaluation order, data flow) are written by passes.
type Node struct {
	ID       string
	Kind     Kind
	Language string
	Name     string

	parent   *Node
	children []*Node

	// Overlay attachments are non-tree children (e.g. inferred nodes hung
	// off a declaration). Descendant searches traverse them like children.
	overlays []*Node

	eogNext []*Node
	eogPrev []*Node
	dfgTo   []*Node

	refersTo *Node
}

// Parent returns the tree parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the tree children in declaration order.
func (n *Node) Children() []*Node { return n.children }

// Overlays returns the non-tree attachments of this node.
func (n *Node) Overlays() []*Node { return n.overlays }

// EOGSuccessors returns the evaluation-order successors of this node.
func (n *Node) EOGSuccessors() []*Node { return n.eogNext }

// EOGPredecessors returns the evaluation-order predecessors of this node.
func (n *Node) EOGPredecessors() []*Node { return n.eogPrev }

// DFGTargets returns the nodes this node flows data to.
func (n *Node) DFGTargets() []*Node { return n.dfgTo }

// RefersTo returns the declaration this node was resolved to, if any.
func (n *Node) RefersTo() *Node { return n.refersTo }

// SetRefersTo links a reference to its declaration.
func (n *Node) SetRefersTo(decl *Node) { n.refersTo = decl }

// AddEOGEdge appends an evaluation-order edge from n to succ.
func (n *Node) AddEOGEdge(succ *Node) {
	for _, s := range n.eogNext {
		if s == succ {
			return
		}
	}
	n.eogNext = append(n.eogNext, succ)
	succ.eogPrev = append(succ.eogPrev, n)
}

// AddDFGEdge appends a data-flow edge from n to target.
func (n *Node) AddDFGEdge(target *Node) {
	for _, t := range n.dfgTo {
		if t == target {
			return
		}
	}
	n.dfgTo = append(n.dfgTo, target)
}

// Walk visits n and all its descendants in stable pre-order, following tree
// children first and overlay attachments after them. Visiting stops when fn
// returns false.
func (n *Node) Walk(fn func(*Node) bool) {
	seen := make(map[*Node]struct{})
	n.walk(seen, fn)
}

func (n *Node) walk(seen map[*Node]struct{}, fn func(*Node) bool) bool {
	if _, ok := seen[n]; ok {
		return true
	}
	seen[n] = struct{}{}
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(seen, fn) {
			return false
		}
	}
	for _, o := range n.overlays {
		if !o.walk(seen, fn) {
			return false
		}
	}
	return true
}

// Graph is a fully built program graph. The orchestrator only reads it and
// lets passes annotate overlay edges; it never adds or removes nodes.
type Graph struct {
	mu      sync.Mutex
	root    *Node
	index   map[string]*Node
	closers []io.Closer
}

// New creates an empty graph with a synthetic root node.
func New(rootID string) *Graph {
	root := &Node{ID: rootID, Kind: KindGraph}
	return &Graph{
		root:  root,
		index: map[string]*Node{rootID: root},
	}
}

// Root returns the whole-graph node.
func (g *Graph) Root() *Node { return g.root }

// Node looks a node up by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.index) }

// Add attaches node as a tree child of parent. Node IDs must be unique
// within the graph.
func (g *Graph) Add(parent, node *Node) error {
	if parent == nil {
		parent = g.root
	}
	if node.ID == "" {
		return fmt.Errorf("node of kind %s has no ID", node.Kind)
	}
	if _, exists := g.index[node.ID]; exists {
		return fmt.Errorf("duplicate node ID %q", node.ID)
	}
	node.parent = parent
	parent.children = append(parent.children, node)
	g.index[node.ID] = node
	return nil
}

// Attach hangs node off owner as an overlay (non-tree) child.
func (g *Graph) Attach(owner, node *Node) error {
	if owner == nil {
		return fmt.Errorf("overlay node %q has no owner", node.ID)
	}
	if _, exists := g.index[node.ID]; exists {
		return fmt.Errorf("duplicate node ID %q", node.ID)
	}
	owner.overlays = append(owner.overlays, node)
	g.index[node.ID] = node
	return nil
}

// RegisterCloser records an external resource (e.g. a front-end handle) that
// must be released when the graph is discarded.
func (g *Graph) RegisterCloser(c io.Closer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closers = append(g.closers, c)
}

// Close releases all registered external resources. The first error wins,
// but every closer runs.
func (g *Graph) Close() error {
	g.mu.Lock()
	closers := g.closers
	g.closers = nil
	g.mu.Unlock()

	var firstErr error
	for _, c := range closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
