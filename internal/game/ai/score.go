package ai

import (
	"math"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// expectedDamage estimates the damage a deals over its living targets with
// the randomness removed: no variance, no crit, a certain hit.
func expectedDamage(self *combat.Combatant, a combat.Action, tun combat.Tuning) float64 {
	switch a.Kind {
	case combat.ActionAttack:
		return payloadDamage(self, a.Targets, combat.AttackPayload(), tun)
	case combat.ActionAbility:
		d, ok := self.Ability(a.AbilityID)
		if !ok {
			return 0
		}
		switch d.Effect {
		case ability.EffectDamage:
			return payloadDamage(self, a.Targets, combat.AbilityPayload(d), tun)
		case ability.EffectConqueror:
			// A stun is valued like the damage the same Haki would deal.
			per := float64(self.Haki.Conqueror * tun.ConquerorDamagePerLevel)
			total := 0.0
			for _, t := range a.Targets {
				if t.IsAlive() {
					total += per
				}
			}
			return total
		}
	}
	return 0
}

func payloadDamage(self *combat.Combatant, targets []*combat.Combatant, p combat.Payload, tun combat.Tuning) float64 {
	total := 0.0
	for _, t := range targets {
		if !t.IsAlive() {
			continue
		}
		raw := float64(p.BaseDamage) + p.Power*float64(self.Effective(p.Scaling))
		if p.DamageType != ability.DamageTrue {
			raw = math.Max(1, raw-float64(t.Effective(combat.StatDefense))*tun.DefenseFactor)
		}
		mult, _ := combat.AffinityMultiplier(self, t, p)
		total += raw * mult
	}
	return total
}

// targets reports whether a includes the combatant with id.
func targets(a combat.Action, id string) bool {
	for _, t := range a.Targets {
		if t.ID == id {
			return true
		}
	}
	return false
}

// healAmount estimates how much HP a restores to the combatant with id.
func healAmount(self *combat.Combatant, enc *combat.Encounter, a combat.Action, id string) float64 {
	if !targets(a, id) {
		return 0
	}
	switch a.Kind {
	case combat.ActionAbility:
		d, ok := self.Ability(a.AbilityID)
		if !ok || d.Effect != ability.EffectHeal {
			return 0
		}
		return float64(d.Heal) + d.Power*float64(self.Effective(combat.StatPower))
	case combat.ActionItem:
		bag := enc.Bag(self.Side)
		if bag == nil {
			return 0
		}
		def, err := bag.Def(a.ItemID)
		if err != nil || def.Revive {
			return 0
		}
		t, ok := enc.Find(id)
		if !ok {
			return 0
		}
		heal := float64(def.HealPercent*t.Stats.MaxHP) / 100
		if def.Heal != nil {
			heal += float64(def.Heal.Min()+def.Heal.Max()) / 2
		}
		return heal
	}
	return 0
}

// buffStatus returns the status a self-targeted status ability grants.
func buffStatus(self *combat.Combatant, a combat.Action) (string, bool) {
	if a.Kind != combat.ActionAbility {
		return "", false
	}
	d, ok := self.Ability(a.AbilityID)
	if !ok || d.Effect != ability.EffectStatus || d.Status == nil || d.Target.Offensive() {
		return "", false
	}
	return d.Status.ID, true
}

// debuffStatus returns the status an offensive status ability inflicts.
func debuffStatus(self *combat.Combatant, a combat.Action) (string, bool) {
	if a.Kind != combat.ActionAbility {
		return "", false
	}
	d, ok := self.Ability(a.AbilityID)
	if !ok || d.Effect != ability.EffectStatus || d.Status == nil || !d.Target.Offensive() {
		return "", false
	}
	return d.Status.ID, true
}

// advantage returns the best elemental chart multiplier a has over its targets.
func advantage(self *combat.Combatant, a combat.Action) float64 {
	if a.Kind != combat.ActionAbility {
		return 1
	}
	d, ok := self.Ability(a.AbilityID)
	if !ok || d.DamageType != ability.DamageElemental {
		return 1
	}
	best := 1.0
	for _, t := range a.Targets {
		if t.IsAlive() {
			best = math.Max(best, combat.ElementMultiplier(d.Element, t.Affinity.Element()))
		}
	}
	return best
}

// bestBy returns the action with the highest positive score; ties keep the
// earliest action, which is the lowest roster index for targeted actions.
func bestBy(actions []combat.Action, score func(combat.Action) float64) (combat.Action, bool) {
	best, bestScore := -1, 0.0
	for i, a := range actions {
		if s := score(a); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return combat.Action{}, false
	}
	return actions[best], true
}
