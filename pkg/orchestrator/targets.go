package orchestrator

import (
	"fmt"

	"github.com/paulsava/cpg/pkg/graph"
)

// ResolveTargets finds the nodes a pass must run against, starting from an
// anchor. The search prefers the narrowest scope and widens only when
// nothing local matches:
//
//  1. the anchor itself, if it satisfies the category;
//  2. the nearest strict ancestor satisfying the category (entry-point
//     ancestors must additionally have no evaluation-order predecessor,
//     i.e. still be unprocessed starters);
//  3. every descendant satisfying the category, in stable pre-order,
//     traversing overlay attachments as well as tree children.
//
// Returns ErrNoMatchingTarget when all three tiers come up empty; a
// successful result is never empty.
func ResolveTargets(anchor *graph.Node, category graph.Category) ([]*graph.Node, error) {
	if anchor.Satisfies(category) {
		return []*graph.Node{anchor}, nil
	}

	for p := anchor.Parent(); p != nil; p = p.Parent() {
		if !p.Satisfies(category) {
			continue
		}
		if category == graph.CategoryEntryPoint && !p.IsUnprocessedStarter() {
			continue
		}
		return []*graph.Node{p}, nil
	}

	var out []*graph.Node
	anchor.Walk(func(n *graph.Node) bool {
		if n != anchor && n.Satisfies(category) {
			out = append(out, n)
		}
		return true
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: category %s, anchor %s", ErrNoMatchingTarget, category, anchor.ID)
	}
	return out, nil
}
