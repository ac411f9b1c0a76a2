package status

import "fmt"

// Effect is one status applied to a combatant.
type Effect struct {
	Def       *Definition
	Magnitude int
	Remaining int
	// Source is the ID of the combatant (or item) that applied the effect.
	Source string
}

// Tick describes what one effect did during a turn tick.
type Tick struct {
	ID        string
	Periodic  Periodic
	Magnitude int
	Remaining int
	Expired   bool
}

// Set tracks the active effects on one combatant in application order.
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	effects []*Effect
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Apply adds def or merges it into the existing effect using def's stacking policy.
//
// Precondition: def must not be nil; duration >= 1; magnitude >= 0.
// Postcondition: Has(def.ID) is true and the effect's Remaining >= 1.
func (s *Set) Apply(def *Definition, magnitude, duration int, source string) (*Effect, error) {
	if def == nil {
		return nil, fmt.Errorf("Apply: def must not be nil")
	}
	if duration < 1 {
		return nil, fmt.Errorf("Apply %q: duration must be >= 1, got %d", def.ID, duration)
	}
	if magnitude < 0 {
		return nil, fmt.Errorf("Apply %q: magnitude must be >= 0, got %d", def.ID, magnitude)
	}

	existing := s.find(def.ID)
	if existing == nil {
		e := &Effect{Def: def, Magnitude: capMagnitude(def, magnitude), Remaining: duration, Source: source}
		s.effects = append(s.effects, e)
		return e, nil
	}

	switch def.Stacking {
	case StackSum:
		existing.Magnitude = capMagnitude(def, existing.Magnitude+magnitude)
		existing.Remaining = max(existing.Remaining, duration)
	case StackRefresh:
		existing.Magnitude = max(existing.Magnitude, capMagnitude(def, magnitude))
		existing.Remaining = duration
	default:
		existing.Magnitude = capMagnitude(def, magnitude)
		existing.Remaining = duration
	}
	existing.Source = source
	return existing, nil
}

func capMagnitude(def *Definition, m int) int {
	if def.MaxMagnitude > 0 && m > def.MaxMagnitude {
		return def.MaxMagnitude
	}
	return m
}

// Tick advances every effect with the given timing by one turn.
// Each ticking effect is reported (with its magnitude before decrement) and is
// removed when its remaining duration reaches zero.
//
// Postcondition: every reported effect had Remaining decremented by exactly one;
// Expired entries are no longer in the set.
func (s *Set) Tick(timing Timing) []Tick {
	var ticks []Tick
	kept := s.effects[:0]
	for _, e := range s.effects {
		if e.Def.Timing != timing {
			kept = append(kept, e)
			continue
		}
		e.Remaining--
		t := Tick{
			ID:        e.Def.ID,
			Periodic:  e.Def.Periodic,
			Magnitude: e.Magnitude,
			Remaining: e.Remaining,
			Expired:   e.Remaining <= 0,
		}
		ticks = append(ticks, t)
		if !t.Expired {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(s.effects); i++ {
		s.effects[i] = nil
	}
	s.effects = kept
	return ticks
}

// Remove deletes the effect with id. It reports whether anything was removed.
func (s *Set) Remove(id string) bool {
	for i, e := range s.effects {
		if e.Def.ID == id {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every effect.
func (s *Set) Clear() {
	s.effects = nil
}

// Has reports whether the effect with id is active.
func (s *Set) Has(id string) bool {
	return s.find(id) != nil
}

// Get returns a copy of the active effect with id.
func (s *Set) Get(id string) (Effect, bool) {
	if e := s.find(id); e != nil {
		return *e, true
	}
	return Effect{}, false
}

// All returns copies of the active effects in application order.
func (s *Set) All() []Effect {
	out := make([]Effect, len(s.effects))
	for i, e := range s.effects {
		out[i] = *e
	}
	return out
}

// Len returns the number of active effects.
func (s *Set) Len() int {
	return len(s.effects)
}

// Modifier returns the net adjustment to stat from all active effects.
func (s *Set) Modifier(stat string) int {
	total := 0
	for _, e := range s.effects {
		if e.Def.Stat != stat {
			continue
		}
		if e.Def.Debuff {
			total -= e.Magnitude
		} else {
			total += e.Magnitude
		}
	}
	return total
}

// TurnBlocker returns the ID of the first active effect that skips its owner's turn.
func (s *Set) TurnBlocker() (string, bool) {
	for _, e := range s.effects {
		if e.Def.SkipsTurn {
			return e.Def.ID, true
		}
	}
	return "", false
}

func (s *Set) find(id string) *Effect {
	for _, e := range s.effects {
		if e.Def.ID == id {
			return e
		}
	}
	return nil
}
