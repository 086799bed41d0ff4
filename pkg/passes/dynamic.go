package passes

import (
	"context"
	"fmt"

	"github.com/paulsava/cpg/pkg/graph"
)

// PassDFGDynamic is the data-flow variant for dynamic languages.
const PassDFGDynamic = "dfg-dynamic"

// RegisterDynamicLanguages installs the dynamic-language support module: a
// data-flow pass that also tracks unresolved accesses, substituted for the
// base data-flow pass on python targets.
func RegisterDynamicLanguages(c *Catalog) error {
	desc := Descriptor{
		ID:       PassDFGDynamic,
		Category: graph.CategoryEntryPoint,
		HardDeps: []string{PassEOG},
		SoftDeps: []string{PassSymbols},
	}
	if err := c.Register(desc, buildDynamicDataFlow); err != nil {
		return err
	}
	return c.RegisterOverride(PassDFG, "python", PassDFGDynamic)
}

// buildDynamicDataFlow behaves like the base data-flow pass but additionally
// connects unresolved references along the evaluation order, since dynamic
// member accesses cannot be bound to a declaration statically.
func buildDynamicDataFlow(ctx context.Context, g *graph.Graph, targets []*graph.Node) (string, error) {
	summary, err := buildDataFlow(ctx, g, targets)
	if err != nil {
		return "", err
	}

	dynamic := 0
	for _, fn := range targets {
		fn.Walk(func(n *graph.Node) bool {
			if n.Kind == graph.KindReference && n.RefersTo() == nil {
				for _, succ := range n.EOGSuccessors() {
					n.AddDFGEdge(succ)
					dynamic++
				}
			}
			return true
		})
	}
	return fmt.Sprintf("%s, %d dynamic-access edges", summary, dynamic), nil
}
