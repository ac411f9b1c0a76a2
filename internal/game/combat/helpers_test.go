package combat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/status"
)

// fixedSrc always rolls val, clamped to the requested range.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

// seqSrc replays vals in order and then rolls 0.
type seqSrc struct {
	vals []int
}

func (s *seqSrc) Intn(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	if v >= n {
		return n - 1
	}
	return v
}

// alwaysSrc makes every chance succeed and every range roll its maximum.
// Chance rolls ask for Intn(10000) and Between asks for Intn(1001).
type alwaysSrc struct{}

func (alwaysSrc) Intn(n int) int {
	if n == 1001 {
		return 1000
	}
	return 0
}

// neverSrc makes every chance below 100% fail.
var neverSrc = fixedSrc{val: 1 << 30}

func statusRegistry(t *testing.T) *status.Registry {
	t.Helper()
	reg := status.NewRegistry()
	for _, d := range []*status.Definition{
		{ID: "burn", Name: "Burn", Stacking: status.StackRefresh, Periodic: status.PeriodicDamage},
		{ID: "regen", Name: "Regen", Stacking: status.StackRefresh, Periodic: status.PeriodicHeal},
		{ID: "attack_up", Name: "Attack Up", Stacking: status.StackReplace, Stat: "attack"},
		{ID: "speed_down", Name: "Speed Down", Stacking: status.StackReplace, Stat: "speed", Debuff: true},
		{ID: combat.StatusStun, Name: "Stun", Stacking: status.StackRefresh, Timing: status.TimingStartOfTurn, SkipsTurn: true, Debuff: true},
		{ID: combat.StatusObservationHaki, Name: "Observation Haki", Stacking: status.StackRefresh},
		{ID: combat.StatusArmamentHaki, Name: "Armament Haki", Stacking: status.StackRefresh},
	} {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

func stats(hp, ap, atk, def, spd int) combat.Stats {
	return combat.Stats{MaxHP: hp, MaxAP: ap, Attack: atk, Defense: def, Speed: spd, Power: 10}
}

func newCombatant(t *testing.T, id string, side combat.Side, s combat.Stats, abilities ...*ability.Definition) *combat.Combatant {
	t.Helper()
	c, err := combat.New(combat.Profile{ID: id, Name: id, Side: side, Level: 5, Stats: s, Abilities: abilities})
	require.NoError(t, err)
	return c
}

func fireball() *ability.Definition {
	return &ability.Definition{
		ID: "fireball", Name: "Fireball", Effect: ability.EffectDamage, Target: ability.TargetSingleEnemy,
		APCost: 10, BaseDamage: 10, Power: 1.0, DamageType: ability.DamageElemental, Element: ability.ElementFire,
		Status: &ability.StatusTemplate{ID: "burn", Magnitude: 3, Duration: 2},
	}
}

func sweep() *ability.Definition {
	return &ability.Definition{
		ID: "sweep", Name: "Sweep", Effect: ability.EffectDamage, Target: ability.TargetAllEnemies,
		APCost: 15, BaseDamage: 5, Power: 0.5,
	}
}

func mend() *ability.Definition {
	return &ability.Definition{
		ID: "mend", Name: "Mend", Effect: ability.EffectHeal, Target: ability.TargetSingleAlly,
		APCost: 5, Heal: 20,
	}
}

func conqueror() *ability.Definition {
	return &ability.Definition{
		ID: "kings_will", Name: "King's Will", Effect: ability.EffectConqueror, Target: ability.TargetAllEnemies,
		APCost: 30, Haki: ability.HakiConqueror, LevelRequired: 1,
	}
}

func itemRegistry(t *testing.T) *inventory.Registry {
	t.Helper()
	reg, err := inventory.NewRegistryFromItems([]*inventory.ItemDef{
		{ID: "meat", Name: "Meat", Target: ability.TargetSingleAlly, HealPercent: 50},
		{ID: "antidote", Name: "Antidote", Target: ability.TargetSingleAlly, Cures: []string{"burn"}},
		{ID: "revive_herb", Name: "Revive Herb", Target: ability.TargetSingleAlly, Revive: true},
	})
	require.NoError(t, err)
	return reg
}

func encounter(t *testing.T, players, enemies []*combat.Combatant) *combat.Encounter {
	t.Helper()
	enc := combat.NewEncounter(players, enemies, false, statusRegistry(t))
	enc.Phase = combat.PhaseInProgress
	return enc
}
