package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paulsava/cpg/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_WithExclusiveRequiresSession(t *testing.T) {
	m := NewManager()
	err := m.WithExclusive(context.Background(), func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_ReplaceStartsFreshLedger(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	first, err := m.Replace(ctx, graph.New("g1"))
	require.NoError(t, err)
	first.Ledger.Record("n1", "eog")
	require.True(t, first.Ledger.HasRun("n1", "eog"))

	second, err := m.Replace(ctx, graph.New("g2"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, second.Ledger.HasRun("n1", "eog"), "new session must not see old ledger entries")
	assert.False(t, first.Ledger.HasRun("n1", "eog"), "superseded ledger is cleared")
}

type trackingCloser struct {
	mu     sync.Mutex
	closed bool
}

func (c *trackingCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestManager_ReplaceReleasesOldResources(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	g := graph.New("g1")
	closer := &trackingCloser{}
	g.RegisterCloser(closer)
	_, err := m.Replace(ctx, g)
	require.NoError(t, err)

	_, err = m.Replace(ctx, graph.New("g2"))
	require.NoError(t, err)
	assert.True(t, closer.closed, "superseded graph resources must be released")
}

func TestManager_ReplaceNilEndsSession(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	_, err := m.Replace(ctx, graph.New("g1"))
	require.NoError(t, err)
	require.NotNil(t, m.Current())

	sess, err := m.Replace(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Nil(t, m.Current())
}

func TestManager_ReplaceWaitsForInFlightRequest(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	_, err := m.Replace(ctx, graph.New("g1"))
	require.NoError(t, err)

	inRequest := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithExclusive(ctx, func(*Session) error {
			close(inRequest)
			<-release
			return nil
		})
	}()

	<-inRequest
	swapped := make(chan struct{})
	go func() {
		_, _ = m.Replace(ctx, graph.New("g2"))
		close(swapped)
	}()

	select {
	case <-swapped:
		t.Fatal("Replace must wait for the in-flight request")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-swapped:
	case <-time.After(time.Second):
		t.Fatal("Replace should proceed once the request finishes")
	}
}

func TestManager_WithExclusivePropagatesError(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	_, err := m.Replace(ctx, graph.New("g1"))
	require.NoError(t, err)

	want := errors.New("boom")
	got := m.WithExclusive(ctx, func(*Session) error { return want })
	assert.ErrorIs(t, got, want)
}
