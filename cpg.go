package cpg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paulsava/cpg/internal/logging"
	"github.com/paulsava/cpg/pkg/graph"
	"github.com/paulsava/cpg/pkg/observability"
	"github.com/paulsava/cpg/pkg/orchestrator"
	"github.com/paulsava/cpg/pkg/passes"
	"github.com/paulsava/cpg/pkg/ports"
	"github.com/paulsava/cpg/pkg/session"
)

// Engine is the high-level entry point for the library. It wires the pass
// catalog, the session manager and the orchestrator behind a simplified API
// for consumers (CLI, MCP, HTTP adapters).
type Engine struct {
	catalog *passes.Catalog
	manager *session.Manager
	orch    *orchestrator.Orchestrator

	locker  ports.Locker
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Status reports the engine's session state to callers.
type Status struct {
	SessionActive   bool     `json:"session_active"`
	SessionID       string   `json:"session_id,omitempty"`
	Nodes           int      `json:"nodes,omitempty"`
	ExecutedPassIDs []string `json:"executed_pass_ids,omitempty"`
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCatalog injects a pre-populated catalog, bypassing the built-in pass
// registration.
func WithCatalog(c *passes.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithLocker enables distributed request serialization (e.g. redis) for
// deployments running more than one replica against shared state.
func WithLocker(l ports.Locker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithMetrics instruments pass execution with prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New initializes an Engine. Without options it carries the built-in passes
// plus the dynamic-language support module and starts with no live session.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.catalog == nil {
		eng.catalog = passes.NewCatalog()
		if err := passes.RegisterBuiltins(eng.catalog); err != nil {
			return nil, fmt.Errorf("failed to register built-in passes: %w", err)
		}
		if err := passes.RegisterDynamicLanguages(eng.catalog); err != nil {
			return nil, fmt.Errorf("failed to register dynamic-language passes: %w", err)
		}
	}

	managerOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	eng.manager = session.NewManager(managerOpts...)

	orchOpts := []orchestrator.Option{orchestrator.WithLogger(eng.logger)}
	if eng.metrics != nil {
		orchOpts = append(orchOpts, orchestrator.WithMetrics(eng.metrics))
	}
	eng.orch = orchestrator.New(eng.catalog, eng.manager, orchOpts...)

	return eng, nil
}

// LoadGraph reads a graph document from disk and starts a new session
// around it, discarding the previous one.
func (e *Engine) LoadGraph(ctx context.Context, path string) error {
	g, err := graph.LoadFile(path)
	if err != nil {
		return err
	}
	_, err = e.manager.Replace(ctx, g)
	return err
}

// UseGraph starts a new session around an in-memory graph, discarding the
// previous one. The prior session's ledger is reset and its graph's
// external resources are released.
func (e *Engine) UseGraph(ctx context.Context, g *graph.Graph) error {
	_, err := e.manager.Replace(ctx, g)
	return err
}

// EndSession discards the live session, if any.
func (e *Engine) EndSession(ctx context.Context) error {
	_, err := e.manager.Replace(ctx, nil)
	return err
}

// RunPass executes the named pass against the anchor node, resolving and
// running unsatisfied hard dependencies first. See orchestrator.RunPass.
func (e *Engine) RunPass(ctx context.Context, passID, nodeID string) (*orchestrator.Result, error) {
	return e.orch.RunPass(ctx, passID, nodeID)
}

// Status reports whether a session is active and which passes have run.
func (e *Engine) Status() Status {
	sess := e.manager.Current()
	if sess == nil {
		return Status{}
	}
	return Status{
		SessionActive:   true,
		SessionID:       sess.ID,
		Nodes:           sess.Graph.Len(),
		ExecutedPassIDs: sess.Ledger.PassIDs(),
	}
}

// Catalog returns the pass catalog, e.g. for additional language modules to
// register into.
func (e *Engine) Catalog() *passes.Catalog {
	return e.catalog
}
