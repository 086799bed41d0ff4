package orchestrator

import (
	"fmt"
	"sort"

	"github.com/paulsava/cpg/pkg/passes"
)

// Resolver orders a requested pass and its transitive hard dependencies
// into execution waves.
type Resolver struct {
	catalog *passes.Catalog
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(catalog *passes.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Waves returns the ordered wave sequence for the requested pass. Each wave
// is a set of passes with no mutual ordering constraint; every pass in a
// wave must run before any pass in the next wave. Wave contents are sorted
// lexicographically so repeated calls produce identical sequences.
//
// Hard dependencies always join the closure; soft dependencies only shape
// the ordering when some hard path pulled them in anyway. A cycle among
// hard dependencies yields ErrCyclicDependency. A cycle introduced only by
// soft edges is resolved by dropping the soft edges, since they are hints.
func (r *Resolver) Waves(passID string) ([][]string, error) {
	closure, err := r.closure(passID)
	if err != nil {
		return nil, err
	}

	waves, ok := layer(closure, true)
	if !ok {
		// Soft hints made the graph cyclic; retry on hard edges alone.
		waves, ok = layer(closure, false)
		if !ok {
			return nil, fmt.Errorf("%w: involving pass %s", ErrCyclicDependency, passID)
		}
	}
	return waves, nil
}

// closure collects the requested pass plus every transitively required hard
// dependency. Unknown hard deps fail lookup just like an unknown request.
func (r *Resolver) closure(passID string) (map[string]passes.Descriptor, error) {
	out := make(map[string]passes.Descriptor)
	stack := []string{passID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := out[id]; done {
			continue
		}
		desc, err := r.catalog.Describe(id)
		if err != nil {
			return nil, err
		}
		out[id] = desc
		stack = append(stack, desc.HardDeps...)
	}
	return out, nil
}

// layer performs topological layering over the closure. Edges run from a
// dependency to its dependent. Returns ok=false if the edge set is cyclic.
func layer(closure map[string]passes.Descriptor, includeSoft bool) ([][]string, bool) {
	indegree := make(map[string]int, len(closure))
	dependents := make(map[string][]string, len(closure))
	for id := range closure {
		indegree[id] = 0
	}

	addEdge := func(dep, dependent string) {
		if _, ok := closure[dep]; !ok {
			return
		}
		dependents[dep] = append(dependents[dep], dependent)
		indegree[dependent]++
	}

	for id, desc := range closure {
		for _, dep := range desc.HardDeps {
			addEdge(dep, id)
		}
		if includeSoft {
			for _, dep := range desc.SoftDeps {
				addEdge(dep, id)
			}
		}
	}

	var waves [][]string
	remaining := len(closure)
	ready := make([]string, 0, len(closure))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	for len(ready) > 0 {
		sort.Strings(ready)
		wave := ready
		ready = nil
		waves = append(waves, wave)
		remaining -= len(wave)

		for _, id := range wave {
			for _, dependent := range dependents[id] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					ready = append(ready, dependent)
				}
			}
		}
	}

	if remaining > 0 {
		return nil, false
	}
	return waves, true
}
