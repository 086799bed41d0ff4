package passes

import (
	"context"
	"testing"

	"github.com/paulsava/cpg/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopUnit(context.Context, *graph.Graph, []*graph.Node) (string, error) {
	return "", nil
}

func TestCatalog_DescribeUnknown(t *testing.T) {
	c := NewCatalog()
	_, err := c.Describe("nope")
	assert.ErrorIs(t, err, ErrUnknownPass)
	assert.ErrorContains(t, err, "nope")
}

func TestCatalog_RegisterValidation(t *testing.T) {
	c := NewCatalog()

	err := c.Register(Descriptor{Category: graph.CategoryUnit}, noopUnit)
	assert.ErrorContains(t, err, "no ID")

	err = c.Register(Descriptor{ID: "x", Category: "bogus"}, noopUnit)
	assert.ErrorContains(t, err, "invalid category")

	err = c.Register(Descriptor{ID: "x", Category: graph.CategoryUnit}, nil)
	assert.ErrorContains(t, err, "no work unit")
}

func TestCatalog_RegisterOverride(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(Descriptor{ID: "base", Category: graph.CategoryUnit}, noopUnit))
	require.NoError(t, c.Register(Descriptor{ID: "sub", Category: graph.CategoryUnit}, noopUnit))

	require.NoError(t, c.RegisterOverride("base", "python", "sub"))

	desc, err := c.Describe("base")
	require.NoError(t, err)
	id, ok := desc.OverrideFor("python")
	assert.True(t, ok)
	assert.Equal(t, "sub", id)

	_, ok = desc.OverrideFor("go")
	assert.False(t, ok)

	assert.ErrorIs(t, c.RegisterOverride("missing", "python", "sub"), ErrUnknownPass)
	assert.ErrorIs(t, c.RegisterOverride("base", "python", "missing"), ErrUnknownPass)
}

func TestCatalog_ListSorted(t *testing.T) {
	c := NewCatalog()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, c.Register(Descriptor{ID: id, Category: graph.CategoryUnit}, noopUnit))
	}

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "zeta", list[2].ID)
}

func TestRegisterBuiltins(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, RegisterBuiltins(c))
	require.NoError(t, RegisterDynamicLanguages(c))

	dfg, err := c.Describe(PassDFG)
	require.NoError(t, err)
	assert.Equal(t, graph.CategoryEntryPoint, dfg.Category)
	assert.Equal(t, []string{PassEOG}, dfg.HardDeps)

	id, ok := dfg.OverrideFor("python")
	require.True(t, ok)
	assert.Equal(t, PassDFGDynamic, id)

	calls, err := c.Describe(PassCalls)
	require.NoError(t, err)
	assert.Equal(t, graph.CategoryWholeGraph, calls.Category)
}
