package npc

import (
	"fmt"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// NewInstance builds a live enemy combatant from tmpl.
//
// Precondition: id and name must be non-empty; tmpl must have passed Validate.
// Postcondition: Returns a combatant at full HP and AP on the enemy side whose
// abilities and fruit resolve through reg, or an error naming the missing data.
func NewInstance(id, name string, tmpl *Template, reg *ability.Registry) (*combat.Combatant, error) {
	var aff combat.Affinity
	ids := tmpl.Abilities
	if tmpl.Fruit != "" {
		fruit, err := reg.Fruit(tmpl.Fruit)
		if err != nil {
			return nil, fmt.Errorf("npc template %q: %w", tmpl.ID, err)
		}
		aff = combat.Affinity{Fruit: fruit, Mastery: tmpl.FruitMastery}
		if len(ids) == 0 {
			ids = fruit.Abilities
		}
	}
	abilities, err := reg.Resolve(ids)
	if err != nil {
		return nil, fmt.Errorf("npc template %q: %w", tmpl.ID, err)
	}

	script := ""
	if tmpl.Boss {
		script = tmpl.ScriptScope()
	}
	return combat.New(combat.Profile{
		ID:        id,
		Name:      name,
		Side:      combat.SideEnemy,
		Level:     tmpl.Level,
		Stats:     tmpl.Stats,
		Affinity:  aff,
		Haki:      tmpl.Haki,
		Abilities: abilities,
		Boss:      tmpl.Boss,
		Behavior:  tmpl.Behavior,
		Script:    script,
		Bounty:    tmpl.Bounty(),
	})
}

// HealthDescription returns a visible health state string for a combatant
// with hp of maxHP hit points.
//
// Postcondition: Returns a non-empty string.
func HealthDescription(hp, maxHP int) string {
	if hp <= 0 {
		return "defeated"
	}
	pct := float64(hp) / float64(maxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
