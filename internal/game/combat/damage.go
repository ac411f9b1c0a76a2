package combat

import (
	"math"

	"go.uber.org/zap"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/dice"
)

// Tuning holds the balance constants of the damage, hit, crit and flee formulas.
type Tuning struct {
	BaseHitChance      float64
	MinHitChance       float64
	AccuracyPerAgility float64
	EvasionBase        float64
	EvasionPerAgility  float64

	// DefenseFactor is the share of effective defense subtracted from raw damage.
	DefenseFactor float64
	VarianceFloor float64
	// DefendBonus is the fractional defense increase while defending.
	DefendBonus float64

	CritBase              float64
	CritPerLuck           float64
	CritMultiplier        float64
	CritMultiplierPerLuck float64
	CritMultiplierCap     float64

	MasteryBonusPercent float64

	ObservationDodgePerLevel     float64
	ObservationCritAvoidPerLevel float64
	ArmamentDamagePerLevel       int
	ArmamentDefensePerLevel      int
	ConquerorStunPerLevel        int
	ConquerorDamagePerLevel      int

	FleeBase     float64
	FleePerSpeed float64
	FleeMin      float64
	FleeMax      float64
}

// DefaultTuning returns the standard balance constants.
func DefaultTuning() Tuning {
	return Tuning{
		BaseHitChance:      95,
		MinHitChance:       5,
		AccuracyPerAgility: 0.25,
		EvasionBase:        5,
		EvasionPerAgility:  0.5,

		DefenseFactor: 0.5,
		VarianceFloor: 0.85,
		DefendBonus:   0.5,

		CritBase:              5,
		CritPerLuck:           0.5,
		CritMultiplier:        1.5,
		CritMultiplierPerLuck: 0.01,
		CritMultiplierCap:     2.0,

		MasteryBonusPercent: 1,

		ObservationDodgePerLevel:     5,
		ObservationCritAvoidPerLevel: 3,
		ArmamentDamagePerLevel:       10,
		ArmamentDefensePerLevel:      5,
		ConquerorStunPerLevel:        3,
		ConquerorDamagePerLevel:      20,

		FleeBase:     50,
		FleePerSpeed: 5,
		FleeMin:      10,
		FleeMax:      90,
	}
}

// Payload is the damage template of an attack or ability.
type Payload struct {
	Name             string
	BaseDamage       int
	Power            float64
	Scaling          Stat
	DamageType       ability.DamageType
	Element          ability.Element
	FruitAbility     bool
	Status           *ability.StatusTemplate
	GuaranteedHit    bool
	BypassIntangible bool
}

// AttackPayload is the basic physical attack: 1× attack stat.
func AttackPayload() Payload {
	return Payload{Name: "attack", Power: 1, Scaling: StatAttack, DamageType: ability.DamagePhysical}
}

// AbilityPayload builds the damage template of d.
func AbilityPayload(d *ability.Definition) Payload {
	return Payload{
		Name:             d.ID,
		BaseDamage:       d.BaseDamage,
		Power:            d.Power,
		Scaling:          Stat(d.ScalingStat()),
		DamageType:       d.DamageType,
		Element:          d.Element,
		FruitAbility:     d.IsFruitAbility(),
		Status:           d.Status,
		GuaranteedHit:    d.GuaranteedHit,
		BypassIntangible: d.BypassIntangible,
	}
}

// AppliedStatus is a status effect an Outcome asks the caller to apply.
type AppliedStatus struct {
	ID        string
	Magnitude int
	Duration  int
}

// Outcome is the resolved result of one action against one target.
type Outcome struct {
	ActorID  string
	TargetID string
	Action   ActionKind
	// Name is the ability or item ID, or the action kind name.
	Name string

	Hit      bool
	Critical bool
	// Intangible is set when logia intangibility nullified the damage.
	Intangible      bool
	RawDamage       int
	MitigatedDamage int
	// Dealt is the HP actually removed from the target.
	Dealt      int
	TargetFell bool

	Healing    int
	APRestored int
	Status     *AppliedStatus
	Cured      []string
	Revived    bool
	Stunned    bool
	Fled       bool
}

// Calculator resolves attacks. Given the same inputs and the same random
// sequence it always produces the same Outcome.
type Calculator struct {
	roller *dice.Roller
	tuning Tuning
	logger *zap.Logger
}

// NewCalculator builds a Calculator drawing randomness from src.
//
// Precondition: src must be non-nil. A nil logger is replaced by zap.NewNop().
func NewCalculator(src dice.Source, tuning Tuning, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		roller: dice.NewLoggedRoller(src, logger),
		tuning: tuning,
		logger: logger,
	}
}

// Roller exposes the calculator's roller for other checks in the same battle
// (status triggers, flee, item dice) so one seed drives the whole encounter.
func (c *Calculator) Roller() *dice.Roller { return c.roller }

// Tuning returns the calculator's balance constants.
func (c *Calculator) Tuning() Tuning { return c.tuning }

// HitChance returns the percentage chance that attacker hits defender.
//
// Postcondition: MinHitChance <= result <= 100.
func (c *Calculator) HitChance(attacker, defender *Combatant) float64 {
	t := c.tuning
	evasion := t.EvasionBase + float64(defender.Effective(StatAgility))*t.EvasionPerAgility +
		float64(defender.ActiveHaki(ability.HakiObservation))*t.ObservationDodgePerLevel
	chance := t.BaseHitChance + float64(attacker.Effective(StatAgility))*t.AccuracyPerAgility - evasion
	return math.Max(t.MinHitChance, math.Min(100, chance))
}

// RollHit rolls attacker's accuracy against defender's evasion. A guaranteed
// hit skips the roll.
func (c *Calculator) RollHit(attacker, defender *Combatant, guaranteed bool, name string) bool {
	if guaranteed || c.roller.Chance("hit", c.HitChance(attacker, defender)) {
		return true
	}
	c.logger.Debug("attack missed", zap.String("attacker", attacker.ID), zap.String("defender", defender.ID), zap.String("payload", name))
	return false
}

// CritChance returns the percentage chance of a critical hit after the
// defender's crit avoidance.
//
// Postcondition: 0 <= result <= 100.
func (c *Calculator) CritChance(attacker, defender *Combatant) float64 {
	t := c.tuning
	chance := t.CritBase + float64(attacker.Effective(StatLuck))*t.CritPerLuck -
		float64(defender.ActiveHaki(ability.HakiObservation))*t.ObservationCritAvoidPerLevel
	return math.Max(0, math.Min(100, chance))
}

// CritMultiplier returns attacker's critical damage multiplier.
func (c *Calculator) CritMultiplier(attacker *Combatant) float64 {
	t := c.tuning
	return math.Min(t.CritMultiplierCap, t.CritMultiplier+float64(attacker.Effective(StatLuck))*t.CritMultiplierPerLuck)
}

// EffectiveDefense returns the defense used for mitigation: the defense stat
// with status modifiers, plus Armament Haki, scaled up while defending.
func (c *Calculator) EffectiveDefense(defender *Combatant) float64 {
	def := float64(defender.Effective(StatDefense) + defender.ActiveHaki(ability.HakiArmament)*c.tuning.ArmamentDefensePerLevel)
	if defender.Defending {
		def *= 1 + c.tuning.DefendBonus
	}
	return def
}

// Resolve computes the Outcome of p from attacker against defender. It does
// not mutate either combatant.
//
// Mitigation is subtractive with a floor: max(1, raw - defense*DefenseFactor).
// True damage skips mitigation and affinities.
func (c *Calculator) Resolve(attacker, defender *Combatant, p Payload) Outcome {
	out := Outcome{ActorID: attacker.ID, TargetID: defender.ID, Name: p.Name}

	if !c.RollHit(attacker, defender, p.GuaranteedHit, p.Name) {
		return out
	}
	out.Hit = true

	raw := float64(p.BaseDamage) + p.Power*float64(attacker.Effective(p.Scaling))
	if p.DamageType != ability.DamageTrue {
		raw += float64(attacker.ActiveHaki(ability.HakiArmament) * c.tuning.ArmamentDamagePerLevel)
	}
	if p.DamageType == ability.DamagePhysical {
		raw *= 1 + float64(attacker.Affinity.PhysicalBoost())/100
	}
	if p.FruitAbility {
		raw *= 1 + float64(attacker.Affinity.Mastery)*c.tuning.MasteryBonusPercent/100
	}
	raw *= c.roller.Between("variance", c.tuning.VarianceFloor, 1.0)
	raw = math.Max(1, raw)
	out.RawDamage = int(math.Round(raw))

	dmg := raw
	if p.DamageType != ability.DamageTrue {
		dmg = math.Max(1, raw-c.EffectiveDefense(defender)*c.tuning.DefenseFactor)
	}

	if c.roller.Chance("critical", c.CritChance(attacker, defender)) {
		out.Critical = true
		dmg *= c.CritMultiplier(attacker)
	}

	mult, intangible := AffinityMultiplier(attacker, defender, p)
	out.Intangible = intangible
	dmg *= mult
	final := int(math.Round(dmg))
	if mult > 0 && final < 1 {
		final = 1
	}
	out.MitigatedDamage = final

	if p.Status != nil && final > 0 && c.roller.Chance("status:"+p.Status.ID, p.Status.TriggerChance()) {
		out.Status = &AppliedStatus{ID: p.Status.ID, Magnitude: p.Status.Magnitude, Duration: p.Status.Duration}
	}

	c.logger.Debug("attack resolved",
		zap.String("attacker", attacker.ID),
		zap.String("defender", defender.ID),
		zap.String("payload", p.Name),
		zap.Int("raw", out.RawDamage),
		zap.Int("mitigated", out.MitigatedDamage),
		zap.Bool("critical", out.Critical),
		zap.Bool("intangible", out.Intangible),
	)
	return out
}

// FleeChance returns the percentage chance that the player party escapes:
// FleeBase + FleePerSpeed × (average living player speed − average living enemy speed),
// clamped to [FleeMin, FleeMax].
func (c *Calculator) FleeChance(enc *Encounter) float64 {
	diff := averageSpeed(enc.Living(SidePlayer)) - averageSpeed(enc.Living(SideEnemy))
	chance := c.tuning.FleeBase + c.tuning.FleePerSpeed*diff
	return math.Max(c.tuning.FleeMin, math.Min(c.tuning.FleeMax, chance))
}

func averageSpeed(cs []*Combatant) float64 {
	if len(cs) == 0 {
		return 0
	}
	total := 0
	for _, c := range cs {
		total += c.Effective(StatSpeed)
	}
	return float64(total) / float64(len(cs))
}
