package combat

import (
	"fmt"
	"math"
	"strings"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
)

// ActionKind identifies what a combatant does on its turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionAttack
	ActionAbility
	ActionItem
	ActionDefend
	ActionFlee
)

// String returns the human-readable name of the ActionKind.
func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionAbility:
		return "ability"
	case ActionItem:
		return "item"
	case ActionDefend:
		return "defend"
	case ActionFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// Action is one battle command. Actions are built per decision and consumed
// by Execute; they are never persisted.
type Action struct {
	Kind    ActionKind
	Actor   *Combatant
	Targets []*Combatant
	// AbilityID is set for ActionAbility.
	AbilityID string
	// ItemID is set for ActionItem.
	ItemID string
}

// Attack builds a basic attack on target.
func Attack(actor, target *Combatant) Action {
	return Action{Kind: ActionAttack, Actor: actor, Targets: []*Combatant{target}}
}

// UseAbility builds an ability action.
func UseAbility(actor *Combatant, abilityID string, targets ...*Combatant) Action {
	return Action{Kind: ActionAbility, Actor: actor, AbilityID: abilityID, Targets: targets}
}

// UseItem builds an item action.
func UseItem(actor *Combatant, itemID string, targets ...*Combatant) Action {
	return Action{Kind: ActionItem, Actor: actor, ItemID: itemID, Targets: targets}
}

// Defend builds a defend action.
func Defend(actor *Combatant) Action {
	return Action{Kind: ActionDefend, Actor: actor}
}

// Flee builds a flee attempt.
func Flee(actor *Combatant) Action {
	return Action{Kind: ActionFlee, Actor: actor}
}

// Key returns a stable identity string such as "ability:gomu_pistol->e1".
// Two actions with the same key are interchangeable.
func (a Action) Key() string {
	var b strings.Builder
	b.WriteString(a.Kind.String())
	switch {
	case a.AbilityID != "":
		b.WriteString(":" + a.AbilityID)
	case a.ItemID != "":
		b.WriteString(":" + a.ItemID)
	}
	if len(a.Targets) > 0 {
		ids := make([]string, len(a.Targets))
		for i, t := range a.Targets {
			if t != nil {
				ids[i] = t.ID
			}
		}
		b.WriteString("->" + strings.Join(ids, ","))
	}
	return b.String()
}

// Validate re-checks that the action is legal right now.
//
// Postcondition: Returns nil, or an error matching ErrInvalidAction (possibly
// via ErrMissingAbilityData or ErrMissingItemData). Never mutates state.
func (a Action) Validate(enc *Encounter) error {
	_, _, err := a.resolve(enc)
	return err
}

func (a Action) resolve(enc *Encounter) (*ability.Definition, *inventory.ItemDef, error) {
	if a.Actor == nil || !enc.Contains(a.Actor) {
		return nil, nil, invalid("actor is not part of this encounter")
	}
	if !a.Actor.IsAlive() {
		return nil, nil, invalid("%s has fallen", a.Actor.Name)
	}
	if enc.Phase.Terminal() {
		return nil, nil, invalid("battle is over")
	}
	for _, t := range a.Targets {
		if t == nil || !enc.Contains(t) {
			return nil, nil, invalid("target is not part of this encounter")
		}
	}

	switch a.Kind {
	case ActionAttack:
		if len(a.Targets) != 1 {
			return nil, nil, invalid("attack needs exactly one target")
		}
		t := a.Targets[0]
		if t.Side == a.Actor.Side {
			return nil, nil, invalid("%s cannot attack an ally", a.Actor.Name)
		}
		if !t.IsAlive() {
			return nil, nil, invalid("%s has already fallen", t.Name)
		}
		return nil, nil, nil

	case ActionAbility:
		d, ok := a.Actor.Ability(a.AbilityID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s does not know %q", ErrMissingAbilityData, a.Actor.Name, a.AbilityID)
		}
		if !a.Actor.MeetsRequirement(d) {
			return nil, nil, invalid("%s has not unlocked %s", a.Actor.Name, d.Name)
		}
		if a.Actor.AP() < d.APCost {
			return nil, nil, invalid("%s needs %d AP for %s, has %d", a.Actor.Name, d.APCost, d.Name, a.Actor.AP())
		}
		if d.Status != nil {
			if _, ok := enc.Statuses.Get(d.Status.ID); !ok {
				return nil, nil, fmt.Errorf("%w: status %q used by %q", ErrMissingAbilityData, d.Status.ID, d.ID)
			}
		}
		if d.Effect == ability.EffectConqueror {
			if _, ok := enc.Statuses.Get(StatusStun); !ok {
				return nil, nil, fmt.Errorf("%w: status %q used by %q", ErrMissingAbilityData, StatusStun, d.ID)
			}
		}
		if err := validateTargets(a.Actor, d.Target, a.Targets, false); err != nil {
			return nil, nil, err
		}
		return d, nil, nil

	case ActionItem:
		bag := enc.Bag(a.Actor.Side)
		if bag == nil {
			return nil, nil, invalid("%s's side carries no items", a.Actor.Name)
		}
		def, err := bag.Def(a.ItemID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMissingItemData, err)
		}
		if bag.Count(def.ID) == 0 {
			return nil, nil, invalid("no %s left", def.Name)
		}
		if err := validateTargets(a.Actor, def.Target, a.Targets, def.Revive); err != nil {
			return nil, nil, err
		}
		return nil, def, nil

	case ActionDefend:
		return nil, nil, nil

	case ActionFlee:
		if a.Actor.Side != SidePlayer {
			return nil, nil, invalid("only the player party can flee")
		}
		if enc.Boss {
			return nil, nil, invalid("cannot flee from a boss battle")
		}
		return nil, nil, nil

	default:
		return nil, nil, invalid("unknown action kind %d", a.Kind)
	}
}

// validateTargets checks targets against mode. Single-target modes need a
// valid target; area modes need at least one, and may list targets that will
// be skipped. wantFallen selects fallen targets (revives) instead of living ones.
func validateTargets(actor *Combatant, mode ability.TargetMode, targets []*Combatant, wantFallen bool) error {
	switch mode {
	case ability.TargetSelf:
		if len(targets) != 1 || targets[0] != actor {
			return invalid("self-targeted action must target its user")
		}
	case ability.TargetSingleEnemy, ability.TargetSingleAlly:
		if len(targets) != 1 {
			return invalid("%s needs exactly one target", mode)
		}
	case ability.TargetAllEnemies, ability.TargetAllAllies:
		if len(targets) == 0 {
			return invalid("%s needs at least one target", mode)
		}
	}

	wantSide := actor.Side
	if mode.Offensive() {
		wantSide = actor.Side.Opposite()
	}
	usable := 0
	for _, t := range targets {
		if t.Side != wantSide {
			return invalid("%s is not a valid %s target", t.Name, mode)
		}
		if t.IsAlive() != wantFallen {
			usable++
		}
	}
	if usable == 0 {
		if wantFallen {
			return invalid("no fallen target to revive")
		}
		return invalid("no living target")
	}
	return nil
}

// Execute validates the action, consumes its resources, then resolves it
// against each target independently. Targets that have fallen are skipped.
//
// Postcondition: on error no state has changed; otherwise one Outcome per
// resolved target (or one for defend and flee).
func (a Action) Execute(enc *Encounter, calc *Calculator) ([]Outcome, error) {
	d, item, err := a.resolve(enc)
	if err != nil {
		return nil, err
	}

	switch a.Kind {
	case ActionAttack:
		target := a.Targets[0]
		o := calc.Resolve(a.Actor, target, AttackPayload())
		o.Action = ActionAttack
		applyHit(enc, &o, a.Actor, target)
		return []Outcome{o}, nil

	case ActionAbility:
		if !a.Actor.ConsumeAP(d.APCost) {
			return nil, invalid("%s cannot pay %d AP", a.Actor.Name, d.APCost)
		}
		return a.executeAbility(enc, calc, d), nil

	case ActionItem:
		if err := enc.Bag(a.Actor.Side).Consume(item.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		return a.executeItem(calc, item), nil

	case ActionDefend:
		a.Actor.Defending = true
		return []Outcome{{ActorID: a.Actor.ID, TargetID: a.Actor.ID, Action: ActionDefend, Name: "defend"}}, nil

	default: // ActionFlee; resolve rejected every other kind
		ok := calc.Roller().Chance("flee", calc.FleeChance(enc))
		return []Outcome{{ActorID: a.Actor.ID, Action: ActionFlee, Name: "flee", Fled: ok}}, nil
	}
}

func (a Action) executeAbility(enc *Encounter, calc *Calculator, d *ability.Definition) []Outcome {
	var outs []Outcome
	for _, t := range a.Targets {
		if !t.IsAlive() {
			continue
		}
		var o Outcome
		switch d.Effect {
		case ability.EffectDamage:
			o = calc.Resolve(a.Actor, t, AbilityPayload(d))
			applyHit(enc, &o, a.Actor, t)
		case ability.EffectHeal:
			amount := d.Heal + int(math.Round(d.Power*float64(a.Actor.Effective(StatPower))))
			o = Outcome{ActorID: a.Actor.ID, TargetID: t.ID, Hit: true, Healing: t.ApplyHealing(amount)}
			if d.Status != nil {
				o.Status = applyTemplate(enc, calc, a.Actor, t, d)
			}
		case ability.EffectStatus:
			o = Outcome{ActorID: a.Actor.ID, TargetID: t.ID}
			// Offensive status abilities must land like an attack first.
			if d.Target.Offensive() && !calc.RollHit(a.Actor, t, d.GuaranteedHit, d.ID) {
				break
			}
			o.Status = applyTemplate(enc, calc, a.Actor, t, d)
			o.Hit = o.Status != nil
		case ability.EffectConqueror:
			o = a.conqueror(enc, calc, t)
		}
		o.Action = ActionAbility
		o.Name = d.ID
		outs = append(outs, o)
	}
	return outs
}

// conqueror stuns targets at or below ConquerorStunPerLevel × the user's
// Conqueror's Haki level and deals true damage to everyone else.
func (a Action) conqueror(enc *Encounter, calc *Calculator, t *Combatant) Outcome {
	tun := calc.Tuning()
	lvl := a.Actor.Haki.Conqueror
	o := Outcome{ActorID: a.Actor.ID, TargetID: t.ID, Hit: true}
	if t.Level <= lvl*tun.ConquerorStunPerLevel {
		def, _ := enc.Statuses.Get(StatusStun)
		if _, err := t.AddStatus(def, 0, 1, a.Actor.ID); err == nil {
			o.Stunned = true
			o.Status = &AppliedStatus{ID: StatusStun, Duration: 1}
		}
		return o
	}
	dmg := lvl * tun.ConquerorDamagePerLevel
	o.RawDamage, o.MitigatedDamage = dmg, dmg
	o.Dealt = t.ApplyDamage(dmg)
	o.TargetFell = !t.IsAlive()
	return o
}

// applyTemplate rolls and applies d's status template to t. A zero magnitude
// on a Haki ability becomes the user's level in that discipline.
func applyTemplate(enc *Encounter, calc *Calculator, actor, t *Combatant, d *ability.Definition) *AppliedStatus {
	tmpl := d.Status
	def, ok := enc.Statuses.Get(tmpl.ID)
	if !ok {
		return nil
	}
	if !calc.Roller().Chance("status:"+tmpl.ID, tmpl.TriggerChance()) {
		return nil
	}
	mag := tmpl.Magnitude
	if mag == 0 && d.Haki != ability.HakiNone {
		mag = actor.Haki.Level(d.Haki)
	}
	e, err := t.AddStatus(def, mag, tmpl.Duration, actor.ID)
	if err != nil {
		return nil
	}
	return &AppliedStatus{ID: def.ID, Magnitude: e.Magnitude, Duration: e.Remaining}
}

// applyHit subtracts a resolved hit from target and applies any status the
// Outcome carries if the target survived.
func applyHit(enc *Encounter, o *Outcome, actor, target *Combatant) {
	if !o.Hit {
		return
	}
	o.Dealt = target.ApplyDamage(o.MitigatedDamage)
	o.TargetFell = !target.IsAlive()
	if o.Status == nil {
		return
	}
	def, ok := enc.Statuses.Get(o.Status.ID)
	if !ok || !target.IsAlive() {
		o.Status = nil
		return
	}
	e, err := target.AddStatus(def, o.Status.Magnitude, o.Status.Duration, actor.ID)
	if err != nil {
		o.Status = nil
		return
	}
	o.Status.Magnitude, o.Status.Duration = e.Magnitude, e.Remaining
}

func (a Action) executeItem(calc *Calculator, item *inventory.ItemDef) []Outcome {
	var outs []Outcome
	for _, t := range a.Targets {
		if t.IsAlive() == item.Revive {
			continue
		}
		o := Outcome{ActorID: a.Actor.ID, TargetID: t.ID, Action: ActionItem, Name: item.ID, Hit: true}
		if item.Revive {
			restored := t.Revive(item.ReviveHPPercent())
			o.Revived = restored > 0
			o.Healing = restored
		}
		heal := 0
		if item.Heal != nil {
			heal += calc.Roller().Amount(item.ID, *item.Heal)
		}
		if item.HealPercent > 0 {
			heal += t.Stats.MaxHP * item.HealPercent / 100
		}
		o.Healing += t.ApplyHealing(heal)
		o.APRestored = t.RestoreAP(item.RestoreAP)
		for _, id := range item.Cures {
			if t.RemoveStatus(id) {
				o.Cured = append(o.Cured, id)
			}
		}
		outs = append(outs, o)
	}
	return outs
}
