package session

import (
	"sort"
	"sync"
)

// Ledger records which (node, pass) pairs have executed in the current
// session. It is identity-keyed: entries are meaningless for any other
// session's nodes and are discarded wholesale on session replacement.
type Ledger struct {
	mu   sync.Mutex
	runs map[string]map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		runs: make(map[string]map[string]struct{}),
	}
}

// HasRun reports whether the pass already executed against the node.
func (l *Ledger) HasRun(nodeID, passID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.runs[nodeID]
	if !ok {
		return false
	}
	_, ok = set[passID]
	return ok
}

// Record marks the pass as executed against the node. Recording the same
// pair twice is a no-op.
func (l *Ledger) Record(nodeID, passID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.runs[nodeID]
	if !ok {
		set = make(map[string]struct{})
		l.runs[nodeID] = set
	}
	set[passID] = struct{}{}
}

// Reset drops every entry. Called when a new session replaces the graph.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = make(map[string]map[string]struct{})
}

// PassIDs returns the distinct pass IDs recorded against any node, sorted.
func (l *Ledger) PassIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]struct{})
	for _, set := range l.runs {
		for passID := range set {
			seen[passID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for passID := range seen {
		out = append(out, passID)
	}
	sort.Strings(out)
	return out
}

// Runs returns the pass IDs recorded against the node, sorted.
func (l *Ledger) Runs(nodeID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.runs[nodeID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for passID := range set {
		out = append(out, passID)
	}
	sort.Strings(out)
	return out
}
