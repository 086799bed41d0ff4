package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCyclicDependency signals a cycle in the hard-dependency graph of
	// the requested pass. The orchestrator degrades to running the
	// requested pass alone and surfaces a warning.
	ErrCyclicDependency = errors.New("cyclic hard dependency")

	// ErrNoMatchingTarget signals that no node in any search tier
	// satisfies the pass's required category.
	ErrNoMatchingTarget = errors.New("no matching target")
)

// ExecutionError wraps a failure raised by a pass's work unit, carrying
// enough context to resume: the pass that actually ran, the nodes it ran
// against, and the underlying cause.
type ExecutionError struct {
	PassID  string
	NodeIDs []string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("pass %s failed on [%s]: %v", e.PassID, strings.Join(e.NodeIDs, ", "), e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
