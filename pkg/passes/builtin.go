package passes

import (
	"context"
	"fmt"

	"github.com/paulsava/cpg/pkg/graph"
)

// Well-known pass IDs registered by RegisterBuiltins.
const (
	PassSymbols = "symbols"
	PassImports = "imports"
	PassEOG     = "eog"
	PassDFG     = "dfg"
	PassCalls   = "calls"
)

// RegisterBuiltins installs the language-independent analysis passes into
// the catalog.
func RegisterBuiltins(c *Catalog) error {
	builtins := []struct {
		desc Descriptor
		run  WorkUnit
	}{
		{
			desc: Descriptor{ID: PassSymbols, Category: graph.CategoryUnit},
			run:  resolveSymbols,
		},
		{
			desc: Descriptor{
				ID:       PassImports,
				Category: graph.CategoryComponent,
				SoftDeps: []string{PassSymbols},
			},
			run: resolveImports,
		},
		{
			desc: Descriptor{ID: PassEOG, Category: graph.CategoryEntryPoint},
			run:  buildEvaluationOrder,
		},
		{
			desc: Descriptor{
				ID:       PassDFG,
				Category: graph.CategoryEntryPoint,
				HardDeps: []string{PassEOG},
				SoftDeps: []string{PassSymbols},
			},
			run: buildDataFlow,
		},
		{
			desc: Descriptor{
				ID:       PassCalls,
				Category: graph.CategoryWholeGraph,
				HardDeps: []string{PassSymbols},
			},
			run: resolveCalls,
		},
	}

	for _, b := range builtins {
		if err := c.Register(b.desc, b.run); err != nil {
			return err
		}
	}
	return nil
}

// resolveSymbols links reference nodes to the nearest declaration with the
// same name inside each unit.
func resolveSymbols(_ context.Context, _ *graph.Graph, targets []*graph.Node) (string, error) {
	resolved := 0
	for _, unit := range targets {
		decls := make(map[string]*graph.Node)
		unit.Walk(func(n *graph.Node) bool {
			if n.Kind == graph.KindVariable || n.Kind == graph.KindFunction {
				if _, taken := decls[n.Name]; !taken && n.Name != "" {
					decls[n.Name] = n
				}
			}
			return true
		})
		unit.Walk(func(n *graph.Node) bool {
			if n.Kind == graph.KindReference && n.RefersTo() == nil {
				if decl, ok := decls[n.Name]; ok {
					n.SetRefersTo(decl)
					resolved++
				}
			}
			return true
		})
	}
	return fmt.Sprintf("resolved %d references in %d units", resolved, len(targets)), nil
}

// resolveImports resolves references that stayed unresolved after the
// unit-local symbol pass by searching all units of the component.
func resolveImports(_ context.Context, _ *graph.Graph, targets []*graph.Node) (string, error) {
	resolved := 0
	for _, component := range targets {
		decls := make(map[string]*graph.Node)
		component.Walk(func(n *graph.Node) bool {
			if n.Kind == graph.KindVariable || n.Kind == graph.KindFunction {
				if _, taken := decls[n.Name]; !taken && n.Name != "" {
					decls[n.Name] = n
				}
			}
			return true
		})
		component.Walk(func(n *graph.Node) bool {
			if n.Kind == graph.KindReference && n.RefersTo() == nil {
				if decl, ok := decls[n.Name]; ok {
					n.SetRefersTo(decl)
					resolved++
				}
			}
			return true
		})
	}
	return fmt.Sprintf("resolved %d cross-unit references in %d components", resolved, len(targets)), nil
}

// buildEvaluationOrder chains each function's statements with EOG edges in
// pre-order. The function node itself starts the chain.
func buildEvaluationOrder(_ context.Context, _ *graph.Graph, targets []*graph.Node) (string, error) {
	edges := 0
	for _, fn := range targets {
		prev := fn
		fn.Walk(func(n *graph.Node) bool {
			if n == fn || n.Kind == graph.KindBlock {
				return true
			}
			prev.AddEOGEdge(n)
			edges++
			prev = n
			return true
		})
	}
	return fmt.Sprintf("added %d evaluation-order edges for %d entry points", edges, len(targets)), nil
}

// buildDataFlow seeds DFG edges: assignment values flow into their targets,
// and declarations flow into the references resolved to them.
func buildDataFlow(_ context.Context, _ *graph.Graph, targets []*graph.Node) (string, error) {
	edges := 0
	for _, fn := range targets {
		fn.Walk(func(n *graph.Node) bool {
			switch n.Kind {
			case graph.KindAssignment:
				// Convention: first child is the target, the rest are values.
				kids := n.Children()
				if len(kids) >= 2 {
					for _, value := range kids[1:] {
						value.AddDFGEdge(kids[0])
						edges++
					}
				}
			case graph.KindReference:
				if decl := n.RefersTo(); decl != nil {
					decl.AddDFGEdge(n)
					edges++
				}
			}
			return true
		})
	}
	return fmt.Sprintf("added %d data-flow edges for %d entry points", edges, len(targets)), nil
}

// resolveCalls links call nodes to function declarations anywhere in the
// graph, preferring targets already resolved by the symbol pass.
func resolveCalls(_ context.Context, g *graph.Graph, targets []*graph.Node) (string, error) {
	functions := make(map[string]*graph.Node)
	g.Root().Walk(func(n *graph.Node) bool {
		if n.Kind == graph.KindFunction && n.Name != "" {
			if _, taken := functions[n.Name]; !taken {
				functions[n.Name] = n
			}
		}
		return true
	})

	resolved := 0
	for _, root := range targets {
		root.Walk(func(n *graph.Node) bool {
			if n.Kind != graph.KindCall || n.RefersTo() != nil {
				return true
			}
			if callee, ok := functions[n.Name]; ok {
				n.SetRefersTo(callee)
				n.AddDFGEdge(callee)
				resolved++
			}
			return true
		})
	}
	return fmt.Sprintf("resolved %d calls", resolved), nil
}
