package orchestrator

import (
	"context"
	"testing"

	"github.com/paulsava/cpg/pkg/graph"
	"github.com/paulsava/cpg/pkg/passes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *graph.Graph, []*graph.Node) (string, error) {
	return "ok", nil
}

func catalogWith(t *testing.T, descs ...passes.Descriptor) *passes.Catalog {
	t.Helper()
	c := passes.NewCatalog()
	for _, d := range descs {
		if d.Category == "" {
			d.Category = graph.CategoryUnit
		}
		require.NoError(t, c.Register(d, noop))
	}
	return c
}

func TestResolver_SinglePass(t *testing.T) {
	r := NewResolver(catalogWith(t, passes.Descriptor{ID: "p"}))

	waves, err := r.Waves("p")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p"}}, waves)
}

func TestResolver_HardChain(t *testing.T) {
	r := NewResolver(catalogWith(t,
		passes.Descriptor{ID: "a"},
		passes.Descriptor{ID: "b", HardDeps: []string{"a"}},
		passes.Descriptor{ID: "c", HardDeps: []string{"b"}},
	))

	waves, err := r.Waves("c")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, waves)
}

func TestResolver_DiamondIsDeterministic(t *testing.T) {
	r := NewResolver(catalogWith(t,
		passes.Descriptor{ID: "a"},
		passes.Descriptor{ID: "left", HardDeps: []string{"a"}},
		passes.Descriptor{ID: "right", HardDeps: []string{"a"}},
		passes.Descriptor{ID: "top", HardDeps: []string{"left", "right"}},
	))

	want := [][]string{{"a"}, {"left", "right"}, {"top"}}
	for i := 0; i < 5; i++ {
		waves, err := r.Waves("top")
		require.NoError(t, err)
		assert.Equal(t, want, waves, "wave flattening must be stable across calls")
	}
}

func TestResolver_SoftDepShapesOrderWhenInClosure(t *testing.T) {
	r := NewResolver(catalogWith(t,
		passes.Descriptor{ID: "a"},
		passes.Descriptor{ID: "b", SoftDeps: []string{"a"}},
		passes.Descriptor{ID: "p", HardDeps: []string{"a", "b"}},
	))

	waves, err := r.Waves("p")
	require.NoError(t, err)
	// Without the soft hint a and b would share a wave.
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"p"}}, waves)
}

func TestResolver_SoftDepOutsideClosureIsDropped(t *testing.T) {
	r := NewResolver(catalogWith(t,
		passes.Descriptor{ID: "hint"},
		passes.Descriptor{ID: "p", SoftDeps: []string{"hint", "not-even-registered"}},
	))

	waves, err := r.Waves("p")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p"}}, waves, "soft deps never join the closure")
}

func TestResolver_HardCycle(t *testing.T) {
	r := NewResolver(catalogWith(t,
		passes.Descriptor{ID: "a", HardDeps: []string{"b"}},
		passes.Descriptor{ID: "b", HardDeps: []string{"a"}},
	))

	_, err := r.Waves("a")
	assert.ErrorIs(t, err, ErrCyclicDependency)
}

func TestResolver_SoftCycleFallsBackToHardEdges(t *testing.T) {
	r := NewResolver(catalogWith(t,
		passes.Descriptor{ID: "a", SoftDeps: []string{"b"}},
		passes.Descriptor{ID: "b", SoftDeps: []string{"a"}},
		passes.Descriptor{ID: "p", HardDeps: []string{"a", "b"}},
	))

	waves, err := r.Waves("p")
	require.NoError(t, err, "a cycle made of hints only must not fail the request")
	assert.Equal(t, [][]string{{"a", "b"}, {"p"}}, waves)
}

func TestResolver_UnknownPass(t *testing.T) {
	r := NewResolver(catalogWith(t, passes.Descriptor{ID: "p", HardDeps: []string{"ghost"}}))

	_, err := r.Waves("missing")
	assert.ErrorIs(t, err, passes.ErrUnknownPass)

	_, err = r.Waves("p")
	assert.ErrorIs(t, err, passes.ErrUnknownPass, "unknown hard deps fail resolution")
}
