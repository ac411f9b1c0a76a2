package character

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
)

// BuildCombatant constructs the player-side combatant for m. An empty
// m.ID is replaced by a fresh UUID and written back to m.
//
// Precondition: m and reg must be non-nil.
// Postcondition: Returns a combatant at the member's saved HP and AP (full
// when unset, clamped to max) whose abilities and fruit resolve through reg,
// or a non-nil error.
func BuildCombatant(m *Member, reg *ability.Registry) (*combat.Combatant, error) {
	if m == nil {
		return nil, errors.New("member must not be nil")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	var aff combat.Affinity
	if m.Fruit != "" {
		fruit, err := reg.Fruit(m.Fruit)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", m.Name, err)
		}
		aff = combat.Affinity{Fruit: fruit, Mastery: m.FruitMastery}
	}
	abilities, err := reg.Resolve(m.Abilities)
	if err != nil {
		return nil, fmt.Errorf("member %q: %w", m.Name, err)
	}

	c, err := combat.New(combat.Profile{
		ID:        m.ID,
		Name:      m.Name,
		Side:      combat.SidePlayer,
		Level:     m.Level,
		Stats:     m.Stats,
		Affinity:  aff,
		Haki:      m.Haki,
		Abilities: abilities,
	})
	if err != nil {
		return nil, err
	}
	if m.HP != nil || m.AP != nil {
		hp, ap := c.Stats.MaxHP, c.Stats.MaxAP
		if m.HP != nil {
			hp = max(1, *m.HP)
		}
		if m.AP != nil {
			ap = *m.AP
		}
		c.SetVitals(hp, ap)
	}
	return c, nil
}

// AssignIDs gives every member without an ID a fresh UUID.
//
// Postcondition: every member has a non-empty ID.
func (p *Party) AssignIDs() {
	for _, m := range p.Members {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
	}
}

// Build turns the party into player combatants in roster order and fills a
// bag with its items.
//
// Precondition: p must have passed Validate; abilities and items must be non-nil.
// Postcondition: len(combatants) == len(p.Members) on success.
func Build(p *Party, abilities *ability.Registry, items *inventory.Registry) ([]*combat.Combatant, *inventory.Bag, error) {
	var errs []error
	out := make([]*combat.Combatant, 0, len(p.Members))
	for _, m := range p.Members {
		c, err := BuildCombatant(m, abilities)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	bag := inventory.NewBag(items)
	for _, it := range p.Items {
		if err := bag.Add(it.Item, it.Quantity); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, nil, fmt.Errorf("building party %q: %w", p.Name, err)
	}
	return out, bag, nil
}

// LevelUp records one member advancing after a battle.
type LevelUp struct {
	MemberID string
	Name     string
	From     int
	To       int
}

// Award credits a finished battle to the party: experience shares by member
// ID, berries to the purse, and item drops to the bag contents.
//
// Postcondition: returns one LevelUp per member that gained a level.
func (p *Party) Award(shares map[string]int, berries int, drops []ItemStack) []LevelUp {
	var ups []LevelUp
	for _, m := range p.Members {
		exp, ok := shares[m.ID]
		if !ok || exp <= 0 {
			continue
		}
		from := m.Level
		if m.GainExperience(exp) > 0 {
			ups = append(ups, LevelUp{MemberID: m.ID, Name: m.Name, From: from, To: m.Level})
		}
	}
	p.Berries += berries
	for _, d := range drops {
		p.addItem(d.Item, d.Quantity)
	}
	return ups
}

// KnockoutRecoveryPercent is the share of max HP a member who fell in
// battle keeps afterwards.
const KnockoutRecoveryPercent = 25

// UpdateVitals writes the final HP and AP of a battle back onto the matching
// members. Members who fell recover to KnockoutRecoveryPercent of max HP.
// Status effects end with the battle and are not carried.
//
// Precondition: final holds snapshots of player combatants built from p.
// Postcondition: every matched member has HP >= 1; vitals at max are stored as nil.
func (p *Party) UpdateVitals(final []combat.Snapshot) {
	byID := make(map[string]combat.Snapshot, len(final))
	for _, s := range final {
		byID[s.ID] = s
	}
	for _, m := range p.Members {
		s, ok := byID[m.ID]
		if !ok {
			continue
		}
		hp := s.HP
		if hp == 0 {
			hp = max(1, s.MaxHP*KnockoutRecoveryPercent/100)
		}
		m.HP = vital(hp, s.MaxHP)
		m.AP = vital(s.AP, s.MaxAP)
	}
}

func vital(v, maxV int) *int {
	if v >= maxV {
		return nil
	}
	return &v
}

// ItemConsumed mirrors an in-battle item use back onto the party's items. It
// implements inventory.ConsumptionNotifier.
func (p *Party) ItemConsumed(itemID string, remaining int) {
	for i := range p.Items {
		if p.Items[i].Item != itemID {
			continue
		}
		if remaining <= 0 {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return
		}
		p.Items[i].Quantity = remaining
		return
	}
}

func (p *Party) addItem(itemID string, qty int) {
	for i := range p.Items {
		if p.Items[i].Item == itemID {
			p.Items[i].Quantity += qty
			return
		}
	}
	p.Items = append(p.Items, ItemStack{Item: itemID, Quantity: qty})
}
