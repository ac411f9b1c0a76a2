package ai

import (
	"fmt"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// Registry indexes Strategies by combatant ID so each enemy keeps its own
// variety memory for the whole encounter.
//
// Invariant: each combatant ID maps to at most one Strategy.
type Registry struct {
	factory    *Factory
	strategies map[string]Strategy
}

// NewRegistry returns an empty Registry building strategies with f.
//
// Precondition: f must not be nil.
func NewRegistry(f *Factory) *Registry {
	return &Registry{factory: f, strategies: make(map[string]Strategy)}
}

// For returns c's strategy, creating it on first use from c.Behavior. An
// empty behavior means boss for boss combatants and aggressive otherwise.
//
// Postcondition: repeated calls for the same ID return the same Strategy.
func (r *Registry) For(c *combat.Combatant) (Strategy, error) {
	if s, ok := r.strategies[c.ID]; ok {
		return s, nil
	}
	name := c.Behavior
	if name == "" {
		name = KindAggressive.String()
		if c.Boss {
			name = KindBoss.String()
		}
	}
	s, err := r.factory.CreateByName(name)
	if err != nil {
		return nil, fmt.Errorf("ai.Registry: combatant %q: %w", c.ID, err)
	}
	r.strategies[c.ID] = s
	return s, nil
}

// Len returns the number of strategies created so far.
func (r *Registry) Len() int {
	return len(r.strategies)
}
