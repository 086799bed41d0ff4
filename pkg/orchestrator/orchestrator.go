package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulsava/cpg/internal/logging"
	"github.com/paulsava/cpg/pkg/graph"
	"github.com/paulsava/cpg/pkg/observability"
	"github.com/paulsava/cpg/pkg/passes"
	"github.com/paulsava/cpg/pkg/session"
)

// Status is the terminal state of an orchestration request.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Execution is one completed (pass, target batch) entry of the run log.
type Execution struct {
	// PassID is the pass that actually executed (post-override).
	PassID string `json:"pass_id"`
	// RequestedID is the pass the wave asked for; differs from PassID when
	// a language override substituted it.
	RequestedID string `json:"requested_id,omitempty"`
	// NodeIDs are the targets of the batch call.
	NodeIDs []string `json:"node_ids"`
	// Message is the work unit's human-readable summary.
	Message string `json:"message,omitempty"`
}

// Result aggregates an orchestration request: the ordered log of executed
// passes, warnings (e.g. the cycle fallback), and the first failure if any.
// Completed entries stay recorded in the ledger even when Status is Failed.
type Result struct {
	Status   Status      `json:"status"`
	Executed []Execution `json:"executed"`
	Warnings []string    `json:"warnings,omitempty"`
	Err      error       `json:"-"`
	Error    string      `json:"error,omitempty"`
}

// Orchestrator composes the catalog, dependency resolver, target resolver,
// ledger and dispatcher into the runPass entry point. It processes one
// request at a time per session; the session manager enforces exclusion.
type Orchestrator struct {
	catalog    *passes.Catalog
	manager    *session.Manager
	resolver   *Resolver
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics instruments pass execution.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) {
		o.dispatcher.metrics = m
	}
}

// New creates an orchestrator over a catalog and a session manager.
func New(catalog *passes.Catalog, manager *session.Manager, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:    catalog,
		manager:    manager,
		resolver:   NewResolver(catalog),
		dispatcher: NewDispatcher(catalog, nil, nil),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.dispatcher.logger = o.logger
	return o
}

// RunPass executes the named pass against the anchor node, running
// not-yet-satisfied hard dependencies first. A non-nil Result is always
// returned; on failure the returned error equals Result.Err and the result
// still carries the partial execution log.
func (o *Orchestrator) RunPass(ctx context.Context, passID, nodeID string) (*Result, error) {
	res := &Result{Status: StatusFailed}
	err := o.manager.WithExclusive(ctx, func(sess *session.Session) error {
		return o.run(ctx, sess, passID, nodeID, res)
	})
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Error = err.Error()
		return res, err
	}
	res.Status = StatusDone
	return res, nil
}

// run drives the request state machine: Resolving, then one Dispatching
// step per wave, ending in Done or Failed. It mutates res as it goes so the
// partial log survives a failure.
func (o *Orchestrator) run(ctx context.Context, sess *session.Session, passID, nodeID string, res *Result) error {
	desc, err := o.catalog.Describe(passID)
	if err != nil {
		return err
	}

	anchor, ok := sess.Graph.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, nodeID)
	}

	waves, err := o.resolver.Waves(passID)
	if err != nil {
		if !errors.Is(err, ErrCyclicDependency) {
			return err
		}
		// Degrade to the originally requested pass. This is deliberate
		// best-effort behavior, surfaced rather than silent.
		warning := fmt.Sprintf("hard dependencies of %s form a cycle; running only the requested pass", passID)
		res.Warnings = append(res.Warnings, warning)
		o.logger.Warn("dependency cycle detected, degrading to requested pass",
			"pass", passID,
			"err", err,
		)
		waves = [][]string{{passID}}
	}

	o.logger.Debug("request resolved",
		"pass", desc.ID,
		"anchor", anchor.ID,
		"waves", len(waves),
	)

	for _, wave := range waves {
		for _, id := range wave {
			if err := o.runOne(ctx, sess, id, anchor, res); err != nil {
				return err
			}
		}
	}
	return nil
}

// runOne resolves targets for a single pass, filters already-done work, and
// dispatches the rest, recording each completed batch in the ledger.
func (o *Orchestrator) runOne(ctx context.Context, sess *session.Session, passID string, anchor *graph.Node, res *Result) error {
	desc, err := o.catalog.Describe(passID)
	if err != nil {
		return err
	}

	targets, err := ResolveTargets(anchor, desc.Category)
	if err != nil {
		return err
	}

	pending := targets[:0:0]
	for _, t := range targets {
		if sess.Ledger.HasRun(t.ID, desc.ID) {
			continue
		}
		pending = append(pending, t)
	}
	o.dispatcher.metrics.ObserveSkipped(len(targets) - len(pending))
	if len(pending) == 0 {
		o.logger.Debug("pass already satisfied for all targets", "pass", desc.ID)
		return nil
	}

	dispatches, err := o.dispatcher.Dispatch(ctx, sess.Graph, desc, pending)
	// Completed groups count even when a later group failed: forward
	// progress is kept, not rolled back.
	for _, d := range dispatches {
		for _, id := range d.NodeIDs {
			sess.Ledger.Record(id, d.ExecutedID)
			if d.ExecutedID != d.RequestedID {
				// The base pass is satisfied for this node too; a repeat
				// request must not dispatch the override again.
				sess.Ledger.Record(id, d.RequestedID)
			}
		}
		res.Executed = append(res.Executed, Execution{
			PassID:      d.ExecutedID,
			RequestedID: d.RequestedID,
			NodeIDs:     d.NodeIDs,
			Message:     d.Message,
		})
		o.logger.Info("pass executed",
			"pass", d.ExecutedID,
			"targets", len(d.NodeIDs),
		)
	}
	return err
}
