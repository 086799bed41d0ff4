package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulsava/cpg/internal/logging"
	"github.com/paulsava/cpg/pkg/graph"
	"github.com/paulsava/cpg/pkg/observability"
	"github.com/paulsava/cpg/pkg/passes"
)

// Dispatch is the outcome of one work-unit invocation. RequestedID and
// ExecutedID differ when a language override substituted the pass.
type Dispatch struct {
	RequestedID string
	ExecutedID  string
	NodeIDs     []string
	Message     string
}

// Dispatcher invokes work units against resolved target batches, applying
// language overrides per target group.
type Dispatcher struct {
	catalog *passes.Catalog
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a dispatcher over the given catalog.
func NewDispatcher(catalog *passes.Catalog, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{catalog: catalog, logger: logger, metrics: metrics}
}

// Dispatch groups targets by language tag, substitutes language overrides,
// and executes each group as a single batch call. It returns the dispatches
// that completed; on failure, completed dispatches accompany the error so
// the caller can record the partial progress.
func (d *Dispatcher) Dispatch(ctx context.Context, g *graph.Graph, desc passes.Descriptor, targets []*graph.Node) ([]Dispatch, error) {
	var done []Dispatch
	for _, group := range groupByLanguage(targets) {
		out, err := d.dispatchGroup(ctx, g, desc, group)
		if err != nil {
			return done, err
		}
		done = append(done, out)
	}
	return done, nil
}

type languageGroup struct {
	language string
	nodes    []*graph.Node
}

// groupByLanguage splits targets by language tag, preserving first-seen
// order so repeated requests dispatch identically.
func groupByLanguage(targets []*graph.Node) []languageGroup {
	var groups []languageGroup
	index := make(map[string]int)
	for _, n := range targets {
		i, ok := index[n.Language]
		if !ok {
			i = len(groups)
			index[n.Language] = i
			groups = append(groups, languageGroup{language: n.Language})
		}
		groups[i].nodes = append(groups[i].nodes, n)
	}
	return groups
}

func (d *Dispatcher) dispatchGroup(ctx context.Context, g *graph.Graph, desc passes.Descriptor, group languageGroup) (Dispatch, error) {
	nodeIDs := make([]string, len(group.nodes))
	for i, n := range group.nodes {
		nodeIDs[i] = n.ID
	}

	executed := desc
	if overrideID, ok := desc.OverrideFor(group.language); ok {
		override, err := d.catalog.Describe(overrideID)
		if err != nil {
			return Dispatch{}, &ExecutionError{PassID: overrideID, NodeIDs: nodeIDs, Err: err}
		}
		// The override may legitimately require the same category, but it
		// must be re-verified against the already-resolved targets.
		for _, n := range group.nodes {
			if !n.Satisfies(override.Category) {
				return Dispatch{}, &ExecutionError{
					PassID:  override.ID,
					NodeIDs: nodeIDs,
					Err:     fmt.Errorf("override requires category %s, node %s does not satisfy it", override.Category, n.ID),
				}
			}
		}
		d.logger.Debug("language override substituted",
			"base", desc.ID,
			"override", override.ID,
			"language", group.language,
		)
		executed = override
	}

	run, err := d.catalog.WorkUnit(executed.ID)
	if err != nil {
		return Dispatch{}, &ExecutionError{PassID: executed.ID, NodeIDs: nodeIDs, Err: err}
	}

	start := time.Now()
	message, err := func() (msg string, werr error) {
		defer func() {
			if r := recover(); r != nil {
				werr = fmt.Errorf("work unit panicked: %v", r)
			}
		}()
		return run(ctx, g, group.nodes)
	}()
	if err != nil {
		d.metrics.ObserveFailure(executed.ID)
		return Dispatch{}, &ExecutionError{PassID: executed.ID, NodeIDs: nodeIDs, Err: err}
	}
	d.metrics.ObserveExecution(executed.ID, time.Since(start))

	return Dispatch{
		RequestedID: desc.ID,
		ExecutedID:  executed.ID,
		NodeIDs:     nodeIDs,
		Message:     message,
	}, nil
}
