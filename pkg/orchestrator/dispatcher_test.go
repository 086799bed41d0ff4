package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/paulsava/cpg/pkg/graph"
	"github.com/paulsava/cpg/pkg/passes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitNodes(t *testing.T, langs ...string) (*graph.Graph, []*graph.Node) {
	t.Helper()
	g := graph.New("root")
	var nodes []*graph.Node
	for i, lang := range langs {
		n := &graph.Node{ID: string(rune('a' + i)), Kind: graph.KindUnit, Language: lang}
		require.NoError(t, g.Add(nil, n))
		nodes = append(nodes, n)
	}
	return g, nodes
}

func TestDispatcher_SingleBatchPerLanguage(t *testing.T) {
	var batches [][]string
	c := passes.NewCatalog()
	require.NoError(t, c.Register(passes.Descriptor{ID: "p", Category: graph.CategoryUnit},
		func(ctx context.Context, g *graph.Graph, targets []*graph.Node) (string, error) {
			ids := make([]string, len(targets))
			for i, n := range targets {
				ids[i] = n.ID
			}
			batches = append(batches, ids)
			return "ran", nil
		}))

	g, nodes := unitNodes(t, "go", "go", "python", "go")
	d := NewDispatcher(c, nil, nil)
	desc, err := c.Describe("p")
	require.NoError(t, err)

	out, err := d.Dispatch(context.Background(), g, desc, nodes)
	require.NoError(t, err)

	// One batch call per language group, in first-seen order.
	require.Equal(t, [][]string{{"a", "b", "d"}, {"c"}}, batches)
	require.Len(t, out, 2)
	assert.Equal(t, "p", out[0].ExecutedID)
	assert.Equal(t, "p", out[0].RequestedID)
	assert.Equal(t, "ran", out[0].Message)
}

func TestDispatcher_OverrideSubstitution(t *testing.T) {
	executed := map[string]int{}
	record := func(id string) passes.WorkUnit {
		return func(context.Context, *graph.Graph, []*graph.Node) (string, error) {
			executed[id]++
			return id, nil
		}
	}

	c := passes.NewCatalog()
	require.NoError(t, c.Register(passes.Descriptor{ID: "base", Category: graph.CategoryUnit}, record("base")))
	require.NoError(t, c.Register(passes.Descriptor{ID: "sub", Category: graph.CategoryUnit}, record("sub")))
	require.NoError(t, c.RegisterOverride("base", "python", "sub"))

	g, nodes := unitNodes(t, "go", "python")
	d := NewDispatcher(c, nil, nil)
	desc, err := c.Describe("base")
	require.NoError(t, err)

	out, err := d.Dispatch(context.Background(), g, desc, nodes)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "base", out[0].ExecutedID)
	assert.Equal(t, "sub", out[1].ExecutedID)
	assert.Equal(t, "base", out[1].RequestedID, "callers must see which pass was requested")
	assert.Equal(t, 1, executed["base"])
	assert.Equal(t, 1, executed["sub"])
}

func TestDispatcher_OverrideCategoryReverified(t *testing.T) {
	c := passes.NewCatalog()
	require.NoError(t, c.Register(passes.Descriptor{ID: "base", Category: graph.CategoryUnit}, noop))
	// The override demands a category the resolved targets cannot satisfy.
	require.NoError(t, c.Register(passes.Descriptor{ID: "strict", Category: graph.CategoryEntryPoint}, noop))
	require.NoError(t, c.RegisterOverride("base", "python", "strict"))

	g, nodes := unitNodes(t, "python")
	d := NewDispatcher(c, nil, nil)
	desc, err := c.Describe("base")
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), g, desc, nodes)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "strict", execErr.PassID)
	assert.ErrorContains(t, err, "category")
}

func TestDispatcher_FailureIsWrappedWithContext(t *testing.T) {
	cause := errors.New("resolution blew up")
	c := passes.NewCatalog()
	require.NoError(t, c.Register(passes.Descriptor{ID: "p", Category: graph.CategoryUnit},
		func(context.Context, *graph.Graph, []*graph.Node) (string, error) {
			return "", cause
		}))

	g, nodes := unitNodes(t, "go")
	d := NewDispatcher(c, nil, nil)
	desc, err := c.Describe("p")
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), g, desc, nodes)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "p", execErr.PassID)
	assert.Equal(t, []string{"a"}, execErr.NodeIDs)
	assert.ErrorIs(t, err, cause)
}

func TestDispatcher_PanicIsConverted(t *testing.T) {
	c := passes.NewCatalog()
	require.NoError(t, c.Register(passes.Descriptor{ID: "p", Category: graph.CategoryUnit},
		func(context.Context, *graph.Graph, []*graph.Node) (string, error) {
			panic("index out of range")
		}))

	g, nodes := unitNodes(t, "go")
	d := NewDispatcher(c, nil, nil)
	desc, err := c.Describe("p")
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), g, desc, nodes)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorContains(t, err, "panicked")
}

func TestDispatcher_PartialProgressOnLaterGroupFailure(t *testing.T) {
	c := passes.NewCatalog()
	require.NoError(t, c.Register(passes.Descriptor{ID: "p", Category: graph.CategoryUnit},
		func(ctx context.Context, g *graph.Graph, targets []*graph.Node) (string, error) {
			if targets[0].Language == "python" {
				return "", errors.New("no python support")
			}
			return "ok", nil
		}))

	g, nodes := unitNodes(t, "go", "python")
	d := NewDispatcher(c, nil, nil)
	desc, err := c.Describe("p")
	require.NoError(t, err)

	done, err := d.Dispatch(context.Background(), g, desc, nodes)
	require.Error(t, err)
	require.Len(t, done, 1, "completed groups accompany the error")
	assert.Equal(t, []string{"a"}, done[0].NodeIDs)
}
