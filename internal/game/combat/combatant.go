// Package combat implements the turn-based battle core: combatants, damage
// resolution, combat actions, turn order and the encounter context.
package combat

import (
	"errors"
	"fmt"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/status"
)

// Side distinguishes the player party from the enemy group.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

// String returns "player" or "enemy".
func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "enemy"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// Stat names a combatant statistic that status effects may modify.
type Stat string

const (
	StatAttack  Stat = "attack"
	StatDefense Stat = "defense"
	StatSpeed   Stat = "speed"
	StatPower   Stat = "power"
	StatAgility Stat = "agility"
	StatLuck    Stat = "luck"
)

// Status IDs the engine itself relies on. They must exist in the encounter's
// status registry for Haki and Conqueror's Haki abilities to resolve.
const (
	StatusObservationHaki = "observation_haki"
	StatusArmamentHaki    = "armament_haki"
	StatusStun            = "stun"
)

// Stats are a combatant's base statistics.
type Stats struct {
	MaxHP   int `yaml:"max_hp"`
	MaxAP   int `yaml:"max_ap"`
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Speed   int `yaml:"speed"`
	Power   int `yaml:"power"`
	Agility int `yaml:"agility"`
	Luck    int `yaml:"luck"`
}

func (s Stats) get(stat Stat) int {
	switch stat {
	case StatAttack:
		return s.Attack
	case StatDefense:
		return s.Defense
	case StatSpeed:
		return s.Speed
	case StatPower:
		return s.Power
	case StatAgility:
		return s.Agility
	case StatLuck:
		return s.Luck
	default:
		return 0
	}
}

// Affinity is the elemental/type nature granted by a Devil Fruit.
type Affinity struct {
	// Fruit is nil for combatants without a Devil Fruit.
	Fruit   *ability.Fruit
	Mastery int
}

// Element returns the fruit's element, or none.
func (a Affinity) Element() ability.Element {
	if a.Fruit == nil {
		return ability.ElementNone
	}
	return a.Fruit.Element
}

// Intangible reports logia intangibility.
func (a Affinity) Intangible() bool {
	return a.Fruit != nil && a.Fruit.Intangible()
}

// PhysicalBoost returns the zoan physical damage bonus percentage.
func (a Affinity) PhysicalBoost() int {
	if a.Fruit == nil || a.Fruit.Type != ability.FruitZoan {
		return 0
	}
	return a.Fruit.PhysicalBoost
}

// Haki is the set of Haki disciplines a combatant has awakened. A zero level
// means the discipline is absent. It is fixed when the combatant is built.
type Haki struct {
	Observation int `yaml:"observation"`
	Armament    int `yaml:"armament"`
	Conqueror   int `yaml:"conqueror"`
}

// Level returns the level of discipline t.
func (h Haki) Level(t ability.HakiType) int {
	switch t {
	case ability.HakiObservation:
		return h.Observation
	case ability.HakiArmament:
		return h.Armament
	case ability.HakiConqueror:
		return h.Conqueror
	default:
		return 0
	}
}

// DropChance is one possible item drop from a defeated enemy.
type DropChance struct {
	ItemID string
	// Chance is a percentage in (0, 100].
	Chance float64
	MinQty int
	MaxQty int
}

// Bounty is what defeating an enemy is worth.
type Bounty struct {
	Experience int
	BerriesMin int
	BerriesMax int
	Drops      []DropChance
}

// DefaultBounty is the reward of a level-lvl enemy whose data sets none:
// lvl*10 experience (x1.5 from level 10) and lvl*50 berries +/-20%.
func DefaultBounty(lvl int) *Bounty {
	exp := lvl * 10
	if lvl >= 10 {
		exp = exp * 3 / 2
	}
	base := lvl * 50
	return &Bounty{
		Experience: exp,
		BerriesMin: base * 4 / 5,
		BerriesMax: base * 6 / 5,
	}
}

// Profile is everything needed to build a Combatant.
type Profile struct {
	ID        string
	Name      string
	Side      Side
	Level     int
	Stats     Stats
	Affinity  Affinity
	Haki      Haki
	Abilities []*ability.Definition
	Boss      bool
	// Behavior is the AI behavior kind name for enemy combatants.
	Behavior string
	// Script names the Lua scope consulted by boss AI hooks.
	Script string
	Bounty *Bounty
}

// StatusTick is one status effect tick together with its HP consequence.
type StatusTick struct {
	status.Tick
	// HPDelta is negative for periodic damage dealt and positive for healing applied.
	HPDelta int
}

// Snapshot is an immutable copy of a combatant's live state.
type Snapshot struct {
	ID       string
	Name     string
	Side     Side
	Level    int
	HP       int
	MaxHP    int
	AP       int
	MaxAP    int
	Statuses []string
}

// Combatant is one participant in a battle.
//
// Invariant: 0 <= HP() <= Stats.MaxHP and 0 <= AP() <= Stats.MaxAP. All HP and
// AP mutation goes through the methods below.
type Combatant struct {
	ID        string
	Name      string
	Side      Side
	Level     int
	Stats     Stats
	Affinity  Affinity
	Haki      Haki
	Abilities []*ability.Definition
	Boss      bool
	Behavior  string
	Script    string
	Bounty    *Bounty
	// Defending is set by the defend action and cleared when the combatant's next turn begins.
	Defending bool

	hp       int
	ap       int
	statuses *status.Set
}

// New builds a combatant at full HP and AP.
//
// Precondition: p.ID and p.Name non-empty; p.Stats.MaxHP >= 1; p.Stats.MaxAP >= 0.
// Postcondition: Returns a living Combatant or an error describing every violation.
func New(p Profile) (*Combatant, error) {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if p.Level < 1 {
		errs = append(errs, fmt.Errorf("level must be >= 1, got %d", p.Level))
	}
	if p.Stats.MaxHP < 1 {
		errs = append(errs, fmt.Errorf("max_hp must be >= 1, got %d", p.Stats.MaxHP))
	}
	if p.Stats.MaxAP < 0 {
		errs = append(errs, fmt.Errorf("max_ap must be >= 0, got %d", p.Stats.MaxAP))
	}
	for _, lvl := range []int{p.Haki.Observation, p.Haki.Armament, p.Haki.Conqueror} {
		if lvl < 0 || lvl > 10 {
			errs = append(errs, fmt.Errorf("haki levels must be within [0, 10], got %d", lvl))
			break
		}
	}
	for i, a := range p.Abilities {
		if a == nil {
			errs = append(errs, fmt.Errorf("ability %d is nil", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("combatant %q: %w", p.ID, err)
	}
	return &Combatant{
		ID:        p.ID,
		Name:      p.Name,
		Side:      p.Side,
		Level:     p.Level,
		Stats:     p.Stats,
		Affinity:  p.Affinity,
		Haki:      p.Haki,
		Abilities: p.Abilities,
		Boss:      p.Boss,
		Behavior:  p.Behavior,
		Script:    p.Script,
		Bounty:    p.Bounty,
		hp:        p.Stats.MaxHP,
		ap:        p.Stats.MaxAP,
		statuses:  status.NewSet(),
	}, nil
}

// HP returns current hit points.
func (c *Combatant) HP() int { return c.hp }

// AP returns current ability points.
func (c *Combatant) AP() int { return c.ap }

// IsAlive reports whether the combatant has HP remaining.
func (c *Combatant) IsAlive() bool { return c.hp > 0 }

// HPPercent returns current HP as a percentage of max HP.
func (c *Combatant) HPPercent() float64 {
	return float64(c.hp) * 100 / float64(c.Stats.MaxHP)
}

// SetVitals restores a saved HP/AP pair (e.g. from the party system), clamping both.
//
// Postcondition: HP() and AP() are within [0, max].
func (c *Combatant) SetVitals(hp, ap int) {
	c.hp = clamp(hp, 0, c.Stats.MaxHP)
	c.ap = clamp(ap, 0, c.Stats.MaxAP)
	if c.hp == 0 {
		c.fall()
	}
}

// ApplyDamage removes up to amount HP and returns the HP actually removed.
// Reaching zero HP makes the combatant fallen and clears its status effects.
//
// Postcondition: 0 <= result <= previous HP; HP() >= 0.
func (c *Combatant) ApplyDamage(amount int) int {
	if amount <= 0 || c.hp == 0 {
		return 0
	}
	dealt := min(amount, c.hp)
	c.hp -= dealt
	if c.hp == 0 {
		c.fall()
	}
	return dealt
}

// ApplyHealing restores up to amount HP and returns the HP actually restored.
// Fallen combatants cannot be healed; use Revive.
//
// Postcondition: HP() <= Stats.MaxHP.
func (c *Combatant) ApplyHealing(amount int) int {
	if amount <= 0 || c.hp == 0 {
		return 0
	}
	healed := min(amount, c.Stats.MaxHP-c.hp)
	c.hp += healed
	return healed
}

// ConsumeAP spends amount AP. It returns false and changes nothing if the
// combatant cannot afford it.
func (c *Combatant) ConsumeAP(amount int) bool {
	if amount < 0 || amount > c.ap {
		return false
	}
	c.ap -= amount
	return true
}

// RestoreAP adds up to amount AP and returns the AP actually restored.
func (c *Combatant) RestoreAP(amount int) int {
	if amount <= 0 {
		return 0
	}
	restored := min(amount, c.Stats.MaxAP-c.ap)
	c.ap += restored
	return restored
}

// Revive returns a fallen combatant to percent of max HP (at least 1).
// It returns the HP restored, or 0 if the combatant was not fallen.
func (c *Combatant) Revive(percent int) int {
	if c.hp > 0 {
		return 0
	}
	c.hp = clamp(c.Stats.MaxHP*percent/100, 1, c.Stats.MaxHP)
	return c.hp
}

func (c *Combatant) fall() {
	c.statuses.Clear()
	c.Defending = false
}

// AddStatus applies an effect using its definition's stacking policy.
//
// Precondition: the combatant is alive.
// Postcondition: on success HasStatus(def.ID) is true.
func (c *Combatant) AddStatus(def *status.Definition, magnitude, duration int, source string) (status.Effect, error) {
	if !c.IsAlive() {
		return status.Effect{}, fmt.Errorf("AddStatus %q on fallen combatant %q", def.ID, c.ID)
	}
	e, err := c.statuses.Apply(def, magnitude, duration, source)
	if err != nil {
		return status.Effect{}, err
	}
	return *e, nil
}

// RemoveStatus removes the effect with id and reports whether it was present.
func (c *Combatant) RemoveStatus(id string) bool {
	return c.statuses.Remove(id)
}

// HasStatus reports whether the effect with id is active.
func (c *Combatant) HasStatus(id string) bool {
	return c.statuses.Has(id)
}

// Statuses returns copies of the active effects in application order.
func (c *Combatant) Statuses() []status.Effect {
	return c.statuses.All()
}

// TickStatuses ticks every effect with the given timing: periodic damage and
// healing are applied, durations drop by one and expired effects are removed.
//
// Postcondition: HP() stays within [0, MaxHP].
func (c *Combatant) TickStatuses(timing status.Timing) []StatusTick {
	ticks := c.statuses.Tick(timing)
	out := make([]StatusTick, 0, len(ticks))
	for _, t := range ticks {
		st := StatusTick{Tick: t}
		switch t.Periodic {
		case status.PeriodicDamage:
			st.HPDelta = -c.ApplyDamage(t.Magnitude)
		case status.PeriodicHeal:
			st.HPDelta = c.ApplyHealing(t.Magnitude)
		}
		out = append(out, st)
	}
	return out
}

// TurnBlocker returns the ID of an active effect that makes the combatant lose its turn.
func (c *Combatant) TurnBlocker() (string, bool) {
	return c.statuses.TurnBlocker()
}

// Effective returns the base stat adjusted by active status effects, floored at zero.
func (c *Combatant) Effective(stat Stat) int {
	return max(0, c.Stats.get(stat)+c.statuses.Modifier(string(stat)))
}

// ActiveHaki returns the level of discipline t if its stance is currently
// active, or 0. Conqueror's Haki has no stance.
func (c *Combatant) ActiveHaki(t ability.HakiType) int {
	var id string
	switch t {
	case ability.HakiObservation:
		id = StatusObservationHaki
	case ability.HakiArmament:
		id = StatusArmamentHaki
	default:
		return 0
	}
	e, ok := c.statuses.Get(id)
	if !ok {
		return 0
	}
	return e.Magnitude
}

// Ability returns the equipped ability with id.
func (c *Combatant) Ability(id string) (*ability.Definition, bool) {
	for _, a := range c.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// MeetsRequirement reports whether the combatant has unlocked d: fruit
// abilities need the matching fruit and mastery, Haki abilities the
// discipline at the required level, others the character level.
func (c *Combatant) MeetsRequirement(d *ability.Definition) bool {
	switch {
	case d.Haki != ability.HakiNone:
		lvl := c.Haki.Level(d.Haki)
		return lvl > 0 && lvl >= d.LevelRequired
	case d.IsFruitAbility():
		return c.Affinity.Fruit != nil && c.Affinity.Fruit.ID == d.Fruit && c.Affinity.Mastery >= d.LevelRequired
	default:
		return c.Level >= d.LevelRequired
	}
}

// Snapshot returns a copy of the combatant's live state.
func (c *Combatant) Snapshot() Snapshot {
	effects := c.statuses.All()
	ids := make([]string, len(effects))
	for i, e := range effects {
		ids[i] = e.Def.ID
	}
	return Snapshot{
		ID: c.ID, Name: c.Name, Side: c.Side, Level: c.Level,
		HP: c.hp, MaxHP: c.Stats.MaxHP, AP: c.ap, MaxAP: c.Stats.MaxAP,
		Statuses: ids,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
