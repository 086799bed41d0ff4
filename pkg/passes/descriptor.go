package passes

import (
	"context"

	"github.com/paulsava/cpg/pkg/graph"
)

// WorkUnit is the callable body of a pass. It receives the whole graph plus
// the batch of target nodes it must operate on, and returns a human-readable
// summary of what it did. Work units are synchronous and may be CPU-bound.
type WorkUnit func(ctx context.Context, g *graph.Graph, targets []*graph.Node) (string, error)

// Descriptor describes a registered pass.
type Descriptor struct {
	// ID is the stable pass identity used in requests and the ledger.
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Category is the node category the pass must run against.
	Category graph.Category `json:"category" yaml:"category" mapstructure:"category"`

	// HardDeps lists passes that must have run on the relevant node set
	// before this one. A cycle among hard deps is an error.
	HardDeps []string `json:"hard_deps,omitempty" yaml:"hard_deps,omitempty" mapstructure:"hard_deps"`

	// SoftDeps lists passes that should run first when they are requested
	// anyway. They are ordering hints only; an absent soft dep is ignored.
	SoftDeps []string `json:"soft_deps,omitempty" yaml:"soft_deps,omitempty" mapstructure:"soft_deps"`

	// Overrides maps a language tag to the pass that substitutes this one
	// for targets in that language.
	Overrides map[string]string `json:"overrides,omitempty" yaml:"overrides,omitempty" mapstructure:"overrides"`
}

// OverrideFor returns the substitute pass ID for the given language, if one
// is registered.
func (d Descriptor) OverrideFor(language string) (string, bool) {
	id, ok := d.Overrides[language]
	return id, ok
}
