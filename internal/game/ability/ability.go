// Package ability holds the read-only combat data supplied by the Devil Fruit
// and Haki systems: ability definitions and fruit definitions.
package ability

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DamageType selects how defense and affinities apply to ability damage.
type DamageType int

const (
	DamagePhysical DamageType = iota
	DamageElemental
	// DamageTrue ignores defense and affinities.
	DamageTrue
)

func (d DamageType) String() string {
	switch d {
	case DamagePhysical:
		return "physical"
	case DamageElemental:
		return "elemental"
	case DamageTrue:
		return "true"
	default:
		return "unknown"
	}
}

// UnmarshalYAML decodes "physical", "elemental" or "true".
func (d *DamageType) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "physical":
		*d = DamagePhysical
	case "elemental":
		*d = DamageElemental
	case "true":
		*d = DamageTrue
	default:
		return fmt.Errorf("line %d: unknown damage type %q", node.Line, node.Value)
	}
	return nil
}

// Element is an elemental affinity. The empty string means none.
type Element string

const (
	ElementNone      Element = ""
	ElementFire      Element = "fire"
	ElementIce       Element = "ice"
	ElementLightning Element = "lightning"
	ElementWater     Element = "water"
	ElementEarth     Element = "earth"
	ElementPlant     Element = "plant"
	ElementSmoke     Element = "smoke"
	ElementSand      Element = "sand"
	ElementLight     Element = "light"
	ElementDark      Element = "dark"
)

var knownElements = map[Element]bool{
	ElementNone: true, ElementFire: true, ElementIce: true, ElementLightning: true,
	ElementWater: true, ElementEarth: true, ElementPlant: true, ElementSmoke: true,
	ElementSand: true, ElementLight: true, ElementDark: true,
}

// Valid reports whether e is a known element.
func (e Element) Valid() bool {
	return knownElements[e]
}

// TargetMode is who an ability or item may be aimed at.
type TargetMode int

const (
	TargetSingleEnemy TargetMode = iota
	TargetAllEnemies
	TargetSelf
	TargetSingleAlly
	TargetAllAllies
)

func (t TargetMode) String() string {
	switch t {
	case TargetSingleEnemy:
		return "single_enemy"
	case TargetAllEnemies:
		return "all_enemies"
	case TargetSelf:
		return "self"
	case TargetSingleAlly:
		return "single_ally"
	case TargetAllAllies:
		return "all_allies"
	default:
		return "unknown"
	}
}

// Offensive reports whether the mode aims at the opposing side.
func (t TargetMode) Offensive() bool {
	return t == TargetSingleEnemy || t == TargetAllEnemies
}

// UnmarshalYAML decodes the snake_case names returned by String.
func (t *TargetMode) UnmarshalYAML(node *yaml.Node) error {
	for m := TargetSingleEnemy; m <= TargetAllAllies; m++ {
		if m.String() == node.Value {
			*t = m
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown target mode %q", node.Line, node.Value)
}

// EffectKind is what an ability does to its targets.
type EffectKind int

const (
	EffectDamage EffectKind = iota
	EffectHeal
	// EffectStatus only applies the ability's status template (buffs, debuffs, Haki stances).
	EffectStatus
	// EffectConqueror stuns weaker targets and damages the rest.
	EffectConqueror
)

func (e EffectKind) String() string {
	switch e {
	case EffectDamage:
		return "damage"
	case EffectHeal:
		return "heal"
	case EffectStatus:
		return "status"
	case EffectConqueror:
		return "conqueror"
	default:
		return "unknown"
	}
}

// UnmarshalYAML decodes the names returned by String.
func (e *EffectKind) UnmarshalYAML(node *yaml.Node) error {
	for k := EffectDamage; k <= EffectConqueror; k++ {
		if k.String() == node.Value {
			*e = k
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown effect %q", node.Line, node.Value)
}

// HakiType identifies one of the three Haki disciplines.
type HakiType int

const (
	HakiNone HakiType = iota
	HakiObservation
	HakiArmament
	HakiConqueror
)

func (h HakiType) String() string {
	switch h {
	case HakiObservation:
		return "observation"
	case HakiArmament:
		return "armament"
	case HakiConqueror:
		return "conqueror"
	default:
		return "none"
	}
}

// UnmarshalYAML decodes the names returned by String.
func (h *HakiType) UnmarshalYAML(node *yaml.Node) error {
	for k := HakiNone; k <= HakiConqueror; k++ {
		if k.String() == node.Value {
			*h = k
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown haki type %q", node.Line, node.Value)
}

// StatusTemplate is a status effect an ability may inflict.
type StatusTemplate struct {
	ID string `yaml:"id"`
	// Magnitude of 0 on a Haki ability means "the user's Haki level".
	Magnitude int `yaml:"magnitude"`
	Duration  int `yaml:"duration"`
	// Chance is a percentage; 0 is treated as 100.
	Chance float64 `yaml:"chance"`
}

// TriggerChance returns the effective trigger percentage.
func (s StatusTemplate) TriggerChance() float64 {
	if s.Chance <= 0 {
		return 100
	}
	return s.Chance
}

// Definition is one Devil Fruit ability, Haki technique or learned skill.
type Definition struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Effect      EffectKind `yaml:"effect"`
	Target      TargetMode `yaml:"target"`
	APCost      int        `yaml:"ap_cost"`
	// LevelRequired is checked against fruit mastery for fruit abilities, the
	// Haki level for Haki abilities, and character level otherwise.
	LevelRequired int      `yaml:"level_required"`
	Fruit         string   `yaml:"fruit"`
	Haki          HakiType `yaml:"haki"`
	BaseDamage    int      `yaml:"base_damage"`
	// Power multiplies the scaling stat.
	Power            float64         `yaml:"power"`
	Scaling          string          `yaml:"scaling"`
	DamageType       DamageType      `yaml:"damage_type"`
	Element          Element         `yaml:"element"`
	Heal             int             `yaml:"heal"`
	Status           *StatusTemplate `yaml:"status"`
	GuaranteedHit    bool            `yaml:"guaranteed_hit"`
	BypassIntangible bool            `yaml:"bypass_intangible"`
}

// IsFruitAbility reports whether the ability is granted by a Devil Fruit.
func (d *Definition) IsFruitAbility() bool {
	return d.Fruit != ""
}

// ScalingStat returns the stat that Power multiplies: the explicit Scaling
// field, or "attack" for physical damage and "power" otherwise.
func (d *Definition) ScalingStat() string {
	if d.Scaling != "" {
		return d.Scaling
	}
	if d.DamageType == DamagePhysical {
		return "attack"
	}
	return "power"
}

// Validate checks the definition's invariants.
//
// Postcondition: Returns nil if usable, or an error naming every violation.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("ability %q: name must not be empty", d.ID))
	}
	if d.APCost < 0 {
		errs = append(errs, fmt.Errorf("ability %q: ap_cost must be >= 0", d.ID))
	}
	if d.LevelRequired < 0 {
		errs = append(errs, fmt.Errorf("ability %q: level_required must be >= 0", d.ID))
	}
	if !d.Element.Valid() {
		errs = append(errs, fmt.Errorf("ability %q: unknown element %q", d.ID, d.Element))
	}
	if d.Scaling != "" && d.Scaling != "attack" && d.Scaling != "power" {
		errs = append(errs, fmt.Errorf("ability %q: scaling must be attack or power", d.ID))
	}
	switch d.Effect {
	case EffectDamage:
		if d.BaseDamage <= 0 && d.Power <= 0 {
			errs = append(errs, fmt.Errorf("ability %q: damage abilities need base_damage or power", d.ID))
		}
		if !d.Target.Offensive() {
			errs = append(errs, fmt.Errorf("ability %q: damage abilities must target enemies", d.ID))
		}
	case EffectHeal:
		if d.Heal <= 0 {
			errs = append(errs, fmt.Errorf("ability %q: heal abilities need heal > 0", d.ID))
		}
	case EffectStatus:
		if d.Status == nil {
			errs = append(errs, fmt.Errorf("ability %q: status abilities need a status template", d.ID))
		}
	case EffectConqueror:
		if d.Haki != HakiConqueror {
			errs = append(errs, fmt.Errorf("ability %q: conqueror effect requires haki: conqueror", d.ID))
		}
	}
	if d.Status != nil {
		if d.Status.ID == "" {
			errs = append(errs, fmt.Errorf("ability %q: status id must not be empty", d.ID))
		}
		if d.Status.Duration < 1 {
			errs = append(errs, fmt.Errorf("ability %q: status duration must be >= 1", d.ID))
		}
		if d.Status.Chance < 0 || d.Status.Chance > 100 {
			errs = append(errs, fmt.Errorf("ability %q: status chance must be within [0, 100]", d.ID))
		}
	}
	return errors.Join(errs...)
}
