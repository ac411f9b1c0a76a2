package combat

import (
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/status"
)

// Phase is the lifecycle state of an encounter.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseVictory
	PhaseDefeat
	PhaseFled
)

// String returns the snake_case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInProgress:
		return "in_progress"
	case PhaseVictory:
		return "victory"
	case PhaseDefeat:
		return "defeat"
	case PhaseFled:
		return "fled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the encounter.
func (p Phase) Terminal() bool {
	return p == PhaseVictory || p == PhaseDefeat || p == PhaseFled
}

// Encounter is the live state of one battle. It is owned by a single battle
// manager and is not safe for concurrent use.
type Encounter struct {
	Players []*Combatant
	Enemies []*Combatant
	// Boss encounters forbid fleeing.
	Boss  bool
	Round int
	// Turn is the index of the current actor within the round's order.
	Turn     int
	Phase    Phase
	Statuses *status.Registry
	Log      *EventLog

	bags map[Side]*inventory.Bag
}

// NewEncounter creates an encounter over the given rosters.
//
// Precondition: statuses must be non-nil.
// Postcondition: Phase is PhaseNotStarted; Round is 0; the event log is empty.
func NewEncounter(players, enemies []*Combatant, boss bool, statuses *status.Registry) *Encounter {
	return &Encounter{
		Players:  players,
		Enemies:  enemies,
		Boss:     boss,
		Statuses: statuses,
		Log:      NewEventLog(),
		bags:     make(map[Side]*inventory.Bag),
	}
}

// SetBag assigns the item bag for side. A nil bag leaves the side without items.
func (e *Encounter) SetBag(side Side, bag *inventory.Bag) {
	if bag == nil {
		delete(e.bags, side)
		return
	}
	e.bags[side] = bag
}

// Bag returns the item bag for side, or nil.
func (e *Encounter) Bag(side Side) *inventory.Bag {
	return e.bags[side]
}

// Roster returns the combatants on side in roster order.
func (e *Encounter) Roster(side Side) []*Combatant {
	if side == SidePlayer {
		return e.Players
	}
	return e.Enemies
}

// Living returns the living combatants on side in roster order.
func (e *Encounter) Living(side Side) []*Combatant {
	var out []*Combatant
	for _, c := range e.Roster(side) {
		if c.IsAlive() {
			out = append(out, c)
		}
	}
	return out
}

// AllFallen reports whether every combatant on side has fallen.
func (e *Encounter) AllFallen(side Side) bool {
	for _, c := range e.Roster(side) {
		if c.IsAlive() {
			return false
		}
	}
	return true
}

// Contains reports whether c is on either roster.
func (e *Encounter) Contains(c *Combatant) bool {
	return e.RosterIndex(c) >= 0
}

// RosterIndex returns c's position within its own side's roster, or -1.
func (e *Encounter) RosterIndex(c *Combatant) int {
	if c == nil {
		return -1
	}
	for i, x := range e.Roster(c.Side) {
		if x == c {
			return i
		}
	}
	return -1
}

// Find returns the combatant with id on either roster.
func (e *Encounter) Find(id string) (*Combatant, bool) {
	for _, c := range e.Players {
		if c.ID == id {
			return c, true
		}
	}
	for _, c := range e.Enemies {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// All returns players followed by enemies.
func (e *Encounter) All() []*Combatant {
	out := make([]*Combatant, 0, len(e.Players)+len(e.Enemies))
	out = append(out, e.Players...)
	return append(out, e.Enemies...)
}
