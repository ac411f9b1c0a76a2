package combat

// ComputeOrder returns the living combatants sorted by effective speed,
// fastest first. Ties keep players ahead of enemies and then roster order.
//
// Postcondition: the result is a deterministic function of the rosters and
// their speed at call time; fallen combatants are excluded.
func ComputeOrder(players, enemies []*Combatant) []*Combatant {
	order := make([]*Combatant, 0, len(players)+len(enemies))
	for _, c := range players {
		if c.IsAlive() {
			order = append(order, c)
		}
	}
	for _, c := range enemies {
		if c.IsAlive() {
			order = append(order, c)
		}
	}
	sortBySpeedDesc(order)
	return order
}

// sortBySpeedDesc is a stable insertion sort, so equal speeds keep the
// players-then-enemies roster sequence they were appended in.
func sortBySpeedDesc(cs []*Combatant) {
	speeds := make(map[*Combatant]int, len(cs))
	for _, c := range cs {
		speeds[c] = c.Effective(StatSpeed)
	}
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && speeds[cs[j]] > speeds[cs[j-1]]; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

// TurnOrder is one round's fixed acting sequence. Speed changes during the
// round do not reorder it; they take effect when the next round's order is computed.
type TurnOrder struct {
	Round int
	order []*Combatant
	next  int
}

// NewTurnOrder snapshots the order for round.
func NewTurnOrder(round int, players, enemies []*Combatant) *TurnOrder {
	return &TurnOrder{Round: round, order: ComputeOrder(players, enemies)}
}

// Next returns the next actor that is still alive, skipping any that fell
// earlier in the round without giving them a slot.
//
// Postcondition: ok is false when the round is over.
func (t *TurnOrder) Next() (actor *Combatant, ok bool) {
	for t.next < len(t.order) {
		c := t.order[t.next]
		t.next++
		if c.IsAlive() {
			return c, true
		}
	}
	return nil, false
}

// Done reports whether no living actor remains in this round.
func (t *TurnOrder) Done() bool {
	for i := t.next; i < len(t.order); i++ {
		if t.order[i].IsAlive() {
			return false
		}
	}
	return true
}

// Index returns the position of the next slot to be handed out.
func (t *TurnOrder) Index() int {
	return t.next
}

// Order returns a copy of the round's sequence, including actors that have since fallen.
func (t *TurnOrder) Order() []*Combatant {
	out := make([]*Combatant, len(t.order))
	copy(out, t.order)
	return out
}
