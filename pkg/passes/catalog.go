package passes

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownPass is returned when a pass ID does not resolve to a catalog
// entry.
var ErrUnknownPass = errors.New("unknown pass")

type entry struct {
	desc Descriptor
	run  WorkUnit
}

// Catalog manages the registered passes. It is safe for concurrent reads;
// registration happens at startup.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[string]*entry),
	}
}

// Register adds a pass to the catalog. If a pass with the same ID exists,
// it is overwritten.
func (c *Catalog) Register(desc Descriptor, run WorkUnit) error {
	if desc.ID == "" {
		return fmt.Errorf("pass descriptor has no ID")
	}
	if !desc.Category.Valid() {
		return fmt.Errorf("pass %q has invalid category %q", desc.ID, desc.Category)
	}
	if run == nil {
		return fmt.Errorf("pass %q has no work unit", desc.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[desc.ID] = &entry{desc: desc, run: run}
	return nil
}

// RegisterOverride adds a language-specific substitute for a base pass. Both
// passes must already be registered.
func (c *Catalog) RegisterOverride(baseID, language, overrideID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	base, ok := c.entries[baseID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPass, baseID)
	}
	if _, ok := c.entries[overrideID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPass, overrideID)
	}
	if base.desc.Overrides == nil {
		base.desc.Overrides = make(map[string]string)
	}
	base.desc.Overrides[language] = overrideID
	return nil
}

// Describe looks up a pass descriptor. Returns ErrUnknownPass if the ID is
// not registered.
func (c *Catalog) Describe(passID string) (Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[passID]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownPass, passID)
	}
	return e.desc, nil
}

// WorkUnit looks up the callable body of a pass.
func (c *Catalog) WorkUnit(passID string) (WorkUnit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[passID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPass, passID)
	}
	return e.run, nil
}

// List returns all descriptors sorted by ID.
func (c *Catalog) List() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Descriptor, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
