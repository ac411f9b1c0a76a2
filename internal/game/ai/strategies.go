package ai

import (
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

const (
	// defensiveRetreatPercent is the own-HP level under which a defensive
	// enemy heals itself or defends.
	defensiveRetreatPercent = 35.0
	// defensiveSupportPercent is the ally-HP level under which a defensive
	// enemy spends its turn healing.
	defensiveSupportPercent = 50.0
	// varietyWindow is how many consecutive uses of one ability are allowed.
	varietyWindow = 2
)

// memory records recent ability use per combatant for the variety rule.
type memory struct {
	recent map[string][]string
}

func newMemory() *memory {
	return &memory{recent: make(map[string][]string)}
}

// record notes a as the latest action of its actor.
func (m *memory) record(a combat.Action) {
	id := ""
	if a.Kind == combat.ActionAbility {
		id = a.AbilityID
	}
	h := append(m.recent[a.Actor.ID], id)
	if len(h) > varietyWindow {
		h = h[len(h)-varietyWindow:]
	}
	m.recent[a.Actor.ID] = h
}

// stale reports whether a would be the third consecutive use of one ability.
func (m *memory) stale(a combat.Action) bool {
	if a.Kind != combat.ActionAbility {
		return false
	}
	h := m.recent[a.Actor.ID]
	if len(h) < varietyWindow {
		return false
	}
	for _, id := range h {
		if id != a.AbilityID {
			return false
		}
	}
	return true
}

// fresh drops stale actions unless that would leave nothing.
func (m *memory) fresh(actions []combat.Action) []combat.Action {
	out := make([]combat.Action, 0, len(actions))
	for _, a := range actions {
		if !m.stale(a) {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return actions
	}
	return out
}

// aggressive focuses the weakest foe with the hardest-hitting action.
type aggressive struct {
	tuning combat.Tuning
}

func (s *aggressive) ChooseAction(self *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error) {
	if err := checkState(self, actions); err != nil {
		return combat.Action{}, err
	}
	return s.pick(self, BuildState(self, enc), actions), nil
}

func (s *aggressive) pick(self *combat.Combatant, ws *WorldState, actions []combat.Action) combat.Action {
	if focus := ws.WeakestFoe(); focus != nil {
		a, ok := bestBy(actions, func(a combat.Action) float64 {
			if !targets(a, focus.ID) {
				return 0
			}
			return expectedDamage(self, a, s.tuning)
		})
		if ok {
			return a
		}
	}
	if a, ok := bestBy(actions, func(a combat.Action) float64 { return expectedDamage(self, a, s.tuning) }); ok {
		return a
	}
	return fallback(self, actions)
}

// defensive keeps itself and its allies alive before attacking.
type defensive struct {
	tuning combat.Tuning
}

func (s *defensive) ChooseAction(self *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error) {
	if err := checkState(self, actions); err != nil {
		return combat.Action{}, err
	}
	return s.pick(self, enc, BuildState(self, enc), actions), nil
}

func (s *defensive) pick(self *combat.Combatant, enc *combat.Encounter, ws *WorldState, actions []combat.Action) combat.Action {
	if ws.Self.HPPercent() < defensiveRetreatPercent {
		if a, ok := bestBy(actions, func(a combat.Action) float64 { return healAmount(self, enc, a, self.ID) }); ok {
			return a
		}
		return fallback(self, actions)
	}
	if w := ws.MostWounded(); w.HPPercent() < defensiveSupportPercent {
		if a, ok := bestBy(actions, func(a combat.Action) float64 { return healAmount(self, enc, a, w.ID) }); ok {
			return a
		}
	}
	if a, ok := bestBy(actions, func(a combat.Action) float64 {
		if id, ok := buffStatus(self, a); ok && !self.HasStatus(id) {
			return 1
		}
		return 0
	}); ok {
		return a
	}
	return (&aggressive{tuning: s.tuning}).pick(self, ws, actions)
}

// tactical sets up buffs and debuffs, exploits elemental weaknesses and
// avoids spamming one ability.
type tactical struct {
	tuning combat.Tuning
	memory *memory
}

func (s *tactical) ChooseAction(self *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error) {
	if err := checkState(self, actions); err != nil {
		return combat.Action{}, err
	}
	a := s.pick(self, BuildState(self, enc), s.memory.fresh(actions))
	s.memory.record(a)
	return a, nil
}

func (s *tactical) pick(self *combat.Combatant, ws *WorldState, actions []combat.Action) combat.Action {
	// Stances and buffs first.
	if a, ok := bestBy(actions, func(a combat.Action) float64 {
		if id, ok := buffStatus(self, a); ok && !self.HasStatus(id) {
			return 1
		}
		return 0
	}); ok {
		return a
	}
	// Elemental advantage.
	if a, ok := bestBy(actions, func(a combat.Action) float64 {
		if advantage(self, a) <= 1 {
			return 0
		}
		return expectedDamage(self, a, s.tuning)
	}); ok {
		return a
	}
	// Debuffs on foes that lack them, strongest foe first.
	if a, ok := bestBy(actions, func(a combat.Action) float64 {
		id, ok := debuffStatus(self, a)
		if !ok {
			return 0
		}
		score := 0.0
		for _, t := range a.Targets {
			if st := ws.Find(t.ID); st != nil && !st.Has(id) {
				score += float64(st.HP)
			}
		}
		return score
	}); ok {
		return a
	}
	return (&aggressive{tuning: s.tuning}).pick(self, ws, actions)
}
