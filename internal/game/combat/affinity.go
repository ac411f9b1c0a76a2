package combat

import "github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"

const (
	strongMultiplier = 1.5
	weakMultiplier   = 0.5
	// logiaGrazeMultiplier applies to elemental attacks on a logia user that
	// neither match nor counter its element.
	logiaGrazeMultiplier = 0.25
)

// elementChart maps an attacking element to the elements it is strong and weak against.
var elementChart = map[ability.Element]struct{ strong, weak []ability.Element }{
	ability.ElementFire:      {strong: []ability.Element{ability.ElementIce, ability.ElementPlant}, weak: []ability.Element{ability.ElementWater}},
	ability.ElementIce:       {strong: []ability.Element{ability.ElementWater}, weak: []ability.Element{ability.ElementFire}},
	ability.ElementLightning: {strong: []ability.Element{ability.ElementWater}, weak: []ability.Element{ability.ElementEarth}},
	ability.ElementWater:     {strong: []ability.Element{ability.ElementFire, ability.ElementSand}, weak: []ability.Element{ability.ElementLightning}},
	ability.ElementEarth:     {strong: []ability.Element{ability.ElementLightning}, weak: []ability.Element{ability.ElementPlant}},
	ability.ElementPlant:     {strong: []ability.Element{ability.ElementWater}, weak: []ability.Element{ability.ElementFire}},
}

// ElementMultiplier returns the chart multiplier of attack against defend:
// 1.5 when strong, 0.5 when weak, 1 otherwise.
func ElementMultiplier(attack, defend ability.Element) float64 {
	entry, ok := elementChart[attack]
	if !ok || defend == ability.ElementNone {
		return 1
	}
	for _, e := range entry.strong {
		if e == defend {
			return strongMultiplier
		}
	}
	for _, e := range entry.weak {
		if e == defend {
			return weakMultiplier
		}
	}
	return 1
}

// counters reports whether attack is strong against defend.
func counters(attack, defend ability.Element) bool {
	return ElementMultiplier(attack, defend) == strongMultiplier
}

// AffinityMultiplier returns the type-interaction multiplier for p hitting
// defender, and whether logia intangibility nullified the hit.
func AffinityMultiplier(attacker, defender *Combatant, p Payload) (mult float64, intangible bool) {
	if p.DamageType == ability.DamageTrue {
		return 1, false
	}
	bypass := p.BypassIntangible || attacker.ActiveHaki(ability.HakiArmament) > 0
	defElem := defender.Affinity.Element()

	if defender.Affinity.Intangible() && !bypass {
		if p.DamageType == ability.DamagePhysical {
			return 0, true
		}
		switch {
		case p.Element == defElem:
			return 0, true
		case counters(p.Element, defElem):
			return strongMultiplier, false
		default:
			return logiaGrazeMultiplier, false
		}
	}

	if p.DamageType == ability.DamageElemental {
		return ElementMultiplier(p.Element, defElem), false
	}
	return 1, false
}
