package ai

import (
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// CombatantState captures a combatant's decision-relevant state.
type CombatantState struct {
	ID      string
	Name    string
	Side    combat.Side
	Level   int
	HP      int
	MaxHP   int
	AP      int
	Element ability.Element
	// Index is the combatant's position in its side's roster.
	Index    int
	Statuses []string
}

// HPPercent returns current HP as a percentage of MaxHP; 0 if MaxHP == 0.
func (c *CombatantState) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP) * 100
}

// Has reports whether status id is active on the combatant.
func (c *CombatantState) Has(id string) bool {
	for _, s := range c.Statuses {
		if s == id {
			return true
		}
	}
	return false
}

// WorldState is the snapshot a strategy decides from.
//
// Invariant: Self must not be nil. Allies and Foes hold living combatants in roster order.
type WorldState struct {
	Self   *CombatantState
	Round  int
	Allies []*CombatantState
	Foes   []*CombatantState
}

// WeakestFoe returns the living foe with the least HP, ties going to the
// lowest roster index, or nil if none remain.
func (ws *WorldState) WeakestFoe() *CombatantState {
	var weakest *CombatantState
	for _, f := range ws.Foes {
		if weakest == nil || f.HP < weakest.HP {
			weakest = f
		}
	}
	return weakest
}

// MostWounded returns the living ally (including self) with the lowest HP
// percentage, ties going to self and then roster order.
func (ws *WorldState) MostWounded() *CombatantState {
	wounded := ws.Self
	for _, a := range ws.Allies {
		if a.HPPercent() < wounded.HPPercent() {
			wounded = a
		}
	}
	return wounded
}

// Find returns the state for id among self, allies and foes.
func (ws *WorldState) Find(id string) *CombatantState {
	if ws.Self.ID == id {
		return ws.Self
	}
	for _, c := range ws.Allies {
		if c.ID == id {
			return c
		}
	}
	for _, c := range ws.Foes {
		if c.ID == id {
			return c
		}
	}
	return nil
}
