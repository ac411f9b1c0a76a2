package ai

import "github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"

// BuildState constructs a WorldState snapshot of enc from self's point of view.
//
// Precondition: self and enc must not be nil.
// Postcondition: ws.Self.ID == self.ID; fallen combatants are omitted from Allies and Foes.
func BuildState(self *combat.Combatant, enc *combat.Encounter) *WorldState {
	ws := &WorldState{Self: stateOf(enc, self), Round: enc.Round}
	for _, c := range enc.Living(self.Side) {
		if c != self {
			ws.Allies = append(ws.Allies, stateOf(enc, c))
		}
	}
	for _, c := range enc.Living(self.Side.Opposite()) {
		ws.Foes = append(ws.Foes, stateOf(enc, c))
	}
	return ws
}

func stateOf(enc *combat.Encounter, c *combat.Combatant) *CombatantState {
	snap := c.Snapshot()
	return &CombatantState{
		ID:       c.ID,
		Name:     c.Name,
		Side:     c.Side,
		Level:    c.Level,
		HP:       snap.HP,
		MaxHP:    snap.MaxHP,
		AP:       snap.AP,
		Element:  c.Affinity.Element(),
		Index:    enc.RosterIndex(c),
		Statuses: snap.Statuses,
	}
}
