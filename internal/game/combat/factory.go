package combat

import "github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"

// ActionFactory enumerates the actions a combatant may legally take.
type ActionFactory struct{}

// NewActionFactory returns an ActionFactory.
func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

// Available returns every legal action for actor in enc, in a stable order:
// one attack per living opponent, then abilities in equipped order, then
// items in bag order, then defend, then flee.
//
// Postcondition: every returned action passes Validate; the result is empty
// only when actor cannot act at all.
func (f *ActionFactory) Available(actor *Combatant, enc *Encounter) []Action {
	if actor == nil || !actor.IsAlive() || !enc.Contains(actor) {
		return nil
	}
	var candidates []Action

	for _, t := range enc.Living(actor.Side.Opposite()) {
		candidates = append(candidates, Attack(actor, t))
	}
	for _, d := range actor.Abilities {
		for _, targets := range targetSets(actor, enc, d.Target, false) {
			candidates = append(candidates, UseAbility(actor, d.ID, targets...))
		}
	}
	if bag := enc.Bag(actor.Side); bag != nil {
		for _, s := range bag.Stacks() {
			for _, targets := range targetSets(actor, enc, s.Def.Target, s.Def.Revive) {
				candidates = append(candidates, UseItem(actor, s.Def.ID, targets...))
			}
		}
	}
	candidates = append(candidates, Defend(actor))
	candidates = append(candidates, Flee(actor))

	out := candidates[:0]
	for _, a := range candidates {
		if a.Validate(enc) == nil {
			out = append(out, a)
		}
	}
	return out
}

// targetSets expands mode into concrete target lists: one per candidate for
// single-target modes, one list of the whole side for area modes.
func targetSets(actor *Combatant, enc *Encounter, mode ability.TargetMode, fallen bool) [][]*Combatant {
	side := actor.Side
	if mode.Offensive() {
		side = actor.Side.Opposite()
	}
	var pool []*Combatant
	for _, c := range enc.Roster(side) {
		if c.IsAlive() != fallen {
			pool = append(pool, c)
		}
	}

	switch mode {
	case ability.TargetSelf:
		return [][]*Combatant{{actor}}
	case ability.TargetAllEnemies, ability.TargetAllAllies:
		if len(pool) == 0 {
			return nil
		}
		return [][]*Combatant{pool}
	default:
		sets := make([][]*Combatant, len(pool))
		for i, c := range pool {
			sets[i] = []*Combatant{c}
		}
		return sets
	}
}
