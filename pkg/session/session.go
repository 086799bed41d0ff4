package session

import (
	"errors"

	"github.com/google/uuid"
	"github.com/paulsava/cpg/pkg/graph"
)

// ErrNoSession is returned when an operation requires a live session and
// none is active.
var ErrNoSession = errors.New("no active session")

// Session binds a program graph to its execution ledger. Ledger entries are
// only meaningful against this session's graph.
type Session struct {
	ID     string
	Graph  *graph.Graph
	Ledger *Ledger
}

// New creates a session around a fully built graph with a fresh ledger.
func New(g *graph.Graph) *Session {
	return &Session{
		ID:     uuid.NewString(),
		Graph:  g,
		Ledger: NewLedger(),
	}
}

// Close releases external resources held by the session's graph.
func (s *Session) Close() error {
	if s.Graph == nil {
		return nil
	}
	return s.Graph.Close()
}
