package ai_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ai"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/dice"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/status"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/scripting"
)

type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

// calm never triggers the difficulty's random pick.
var calm = fixedSrc{val: 1 << 30}

// stubCaller returns a fixed value or error for every hook call.
type stubCaller struct {
	ret   lua.LValue
	err   error
	calls int
}

func (s *stubCaller) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	s.calls++
	if s.err != nil {
		return lua.LNil, s.err
	}
	if s.ret == nil {
		return lua.LNil, nil
	}
	return s.ret, nil
}

func statuses(t *testing.T) *status.Registry {
	t.Helper()
	reg := status.NewRegistry()
	for _, d := range []*status.Definition{
		{ID: combat.StatusArmamentHaki, Name: "Armament", Stacking: status.StackRefresh},
		{ID: "slow", Name: "Slow", Stacking: status.StackReplace, Stat: "speed", Debuff: true},
	} {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

func slam() *ability.Definition {
	return &ability.Definition{ID: "slam", Name: "Slam", Effect: ability.EffectDamage, Target: ability.TargetSingleEnemy, APCost: 5, BaseDamage: 50}
}

func ember() *ability.Definition {
	return &ability.Definition{ID: "ember", Name: "Ember", Effect: ability.EffectDamage, Target: ability.TargetSingleEnemy,
		APCost: 5, BaseDamage: 10, Power: 1, DamageType: ability.DamageElemental, Element: ability.ElementFire}
}

func stance() *ability.Definition {
	return &ability.Definition{ID: "armament", Name: "Armament", Effect: ability.EffectStatus, Target: ability.TargetSelf,
		APCost: 5, Haki: ability.HakiArmament, LevelRequired: 1, Status: &ability.StatusTemplate{ID: combat.StatusArmamentHaki, Duration: 3}}
}

func slowness() *ability.Definition {
	return &ability.Definition{ID: "tar", Name: "Tar", Effect: ability.EffectStatus, Target: ability.TargetSingleEnemy,
		APCost: 5, Status: &ability.StatusTemplate{ID: "slow", Magnitude: 5, Duration: 2}}
}

func player(t *testing.T, id string, hp int) *combat.Combatant {
	t.Helper()
	c, err := combat.New(combat.Profile{ID: id, Name: id, Side: combat.SidePlayer, Level: 5,
		Stats: combat.Stats{MaxHP: 100, Attack: 10, Defense: 10, Speed: 10}})
	require.NoError(t, err)
	c.SetVitals(hp, 0)
	return c
}

func enemy(t *testing.T, p combat.Profile) *combat.Combatant {
	t.Helper()
	p.Side = combat.SideEnemy
	if p.ID == "" {
		p.ID = "e1"
	}
	p.Name = p.ID
	if p.Level == 0 {
		p.Level = 5
	}
	if p.Stats.MaxHP == 0 {
		p.Stats = combat.Stats{MaxHP: 100, MaxAP: 50, Attack: 20, Defense: 5, Speed: 5, Power: 10}
	}
	c, err := combat.New(p)
	require.NoError(t, err)
	return c
}

func setup(t *testing.T, e *combat.Combatant, players ...*combat.Combatant) (*combat.Encounter, []combat.Action) {
	t.Helper()
	enc := combat.NewEncounter(players, []*combat.Combatant{e}, false, statuses(t))
	enc.Phase = combat.PhaseInProgress
	enc.Round = 1
	return enc, combat.NewActionFactory().Available(e, enc)
}

func choose(t *testing.T, s ai.Strategy, e *combat.Combatant, enc *combat.Encounter) combat.Action {
	t.Helper()
	a, err := s.ChooseAction(e, enc, combat.NewActionFactory().Available(e, enc))
	require.NoError(t, err)
	return a
}

func create(t *testing.T, kind ai.Kind, opts ...ai.Option) ai.Strategy {
	t.Helper()
	s, err := ai.NewFactory(ai.DifficultyNormal, calm, nil, opts...).Create(kind)
	require.NoError(t, err)
	return s
}

func TestParseKindAndDifficulty(t *testing.T) {
	for _, k := range []ai.Kind{ai.KindAggressive, ai.KindDefensive, ai.KindTactical, ai.KindBoss} {
		got, err := ai.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ai.ParseKind("berserk")
	assert.ErrorIs(t, err, ai.ErrUnknownKind)

	d, err := ai.ParseDifficulty("easy")
	require.NoError(t, err)
	assert.Equal(t, 0.4, d.RandomChance())
	d, _ = ai.ParseDifficulty("")
	assert.Equal(t, 0.2, d.RandomChance())
	d, _ = ai.ParseDifficulty("hard")
	assert.Equal(t, 0.1, d.RandomChance())
	_, err = ai.ParseDifficulty("nightmare")
	assert.ErrorIs(t, err, ai.ErrUnknownKind)
}

func TestAggressive_FocusesWeakestFoe(t *testing.T) {
	e := enemy(t, combat.Profile{})
	enc, _ := setup(t, e, player(t, "p1", 100), player(t, "p2", 30), player(t, "p3", 30))
	assert.Equal(t, "attack->p2", choose(t, create(t, ai.KindAggressive), e, enc).Key(), "ties go to the lowest roster index")
}

func TestAggressive_PrefersStrongestHit(t *testing.T) {
	e := enemy(t, combat.Profile{Abilities: []*ability.Definition{slam()}})
	enc, _ := setup(t, e, player(t, "p1", 100), player(t, "p2", 30))
	assert.Equal(t, "ability:slam->p2", choose(t, create(t, ai.KindAggressive), e, enc).Key())
}

func TestStrategies_EmptyActionsDefend(t *testing.T) {
	e := enemy(t, combat.Profile{})
	enc, _ := setup(t, e, player(t, "p1", 100))
	for _, k := range []ai.Kind{ai.KindAggressive, ai.KindDefensive, ai.KindTactical, ai.KindBoss} {
		a, err := create(t, k).ChooseAction(e, enc, nil)
		require.NoError(t, err, k.String())
		assert.Equal(t, combat.ActionDefend, a.Kind, k.String())
		assert.Same(t, e, a.Actor)
	}
}

func TestStrategies_IllegalState(t *testing.T) {
	e := enemy(t, combat.Profile{})
	p := player(t, "p1", 100)
	enc, actions := setup(t, e, p)

	_, err := create(t, ai.KindAggressive).ChooseAction(e, enc, []combat.Action{combat.Defend(p)})
	assert.ErrorIs(t, err, ai.ErrIllegalAIState)

	e.ApplyDamage(1000)
	_, err = create(t, ai.KindTactical).ChooseAction(e, enc, actions)
	assert.ErrorIs(t, err, ai.ErrIllegalAIState)
	_, err = create(t, ai.KindBoss).ChooseAction(nil, enc, nil)
	assert.ErrorIs(t, err, ai.ErrIllegalAIState)
}

func TestDefensive_HealsOrDefendsWhenLow(t *testing.T) {
	items, err := inventory.NewRegistryFromItems([]*inventory.ItemDef{
		{ID: "meat", Name: "Meat", Target: ability.TargetSingleAlly, HealPercent: 50},
	})
	require.NoError(t, err)

	e := enemy(t, combat.Profile{})
	e.ApplyDamage(80)
	enc, _ := setup(t, e, player(t, "p1", 100))
	s := create(t, ai.KindDefensive)
	assert.Equal(t, "defend", choose(t, s, e, enc).Key())

	bag := inventory.NewBag(items)
	require.NoError(t, bag.Add("meat", 1))
	enc.SetBag(combat.SideEnemy, bag)
	assert.Equal(t, "item:meat->e1", choose(t, s, e, enc).Key())
}

func TestDefensive_AttacksWhenHealthy(t *testing.T) {
	e := enemy(t, combat.Profile{})
	enc, _ := setup(t, e, player(t, "p1", 100))
	assert.Equal(t, "attack->p1", choose(t, create(t, ai.KindDefensive), e, enc).Key())
}

func TestTactical_BuffsThenExploitsElements(t *testing.T) {
	mori := &ability.Fruit{ID: "mori", Name: "Mori Mori", Type: ability.FruitParamecia, Element: ability.ElementPlant}
	plant, err := combat.New(combat.Profile{ID: "p2", Name: "p2", Level: 5, Stats: combat.Stats{MaxHP: 100, Defense: 10},
		Affinity: combat.Affinity{Fruit: mori}})
	require.NoError(t, err)
	e := enemy(t, combat.Profile{Haki: combat.Haki{Armament: 1}, Abilities: []*ability.Definition{ember(), stance()}})
	enc, _ := setup(t, e, player(t, "p1", 20), plant)
	s := create(t, ai.KindTactical)

	assert.Equal(t, "ability:armament->e1", choose(t, s, e, enc).Key())

	def, _ := enc.Statuses.Get(combat.StatusArmamentHaki)
	_, err = e.AddStatus(def, 1, 3, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "ability:ember->p2", choose(t, s, e, enc).Key(), "plant is weak to fire")
}

func TestTactical_AppliesMissingDebuff(t *testing.T) {
	e := enemy(t, combat.Profile{Abilities: []*ability.Definition{slowness()}})
	enc, _ := setup(t, e, player(t, "p1", 40), player(t, "p2", 90))
	s := create(t, ai.KindTactical)
	assert.Equal(t, "ability:tar->p2", choose(t, s, e, enc).Key(), "debuffs the healthiest foe")
}

func TestTactical_AvoidsThirdRepeat(t *testing.T) {
	e := enemy(t, combat.Profile{Abilities: []*ability.Definition{slam()}})
	enc, _ := setup(t, e, player(t, "p1", 100))
	s := create(t, ai.KindTactical)
	assert.Equal(t, "ability:slam->p1", choose(t, s, e, enc).Key())
	assert.Equal(t, "ability:slam->p1", choose(t, s, e, enc).Key())
	assert.Equal(t, "attack->p1", choose(t, s, e, enc).Key())
	assert.Equal(t, "ability:slam->p1", choose(t, s, e, enc).Key())
}

func TestBoss_LuaHookOverrides(t *testing.T) {
	caller := &stubCaller{ret: lua.LString("defend")}
	e := enemy(t, combat.Profile{Boss: true, Script: "warlord", Abilities: []*ability.Definition{slam()}})
	enc, _ := setup(t, e, player(t, "p1", 100))
	s := create(t, ai.KindBoss, ai.WithScripts(caller))
	assert.Equal(t, "defend", choose(t, s, e, enc).Key())
	assert.Equal(t, 1, caller.calls)

	caller.ret = lua.LString("flee")
	assert.Equal(t, "ability:slam->p1", choose(t, s, e, enc).Key(), "illegal hook choices are ignored")
}

func TestBoss_HookErrorLogsAndFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	caller := &stubCaller{err: errors.New("attempt to call a nil value")}
	e := enemy(t, combat.Profile{Boss: true, Script: "warlord"})
	enc, _ := setup(t, e, player(t, "p1", 100))
	s, err := ai.NewFactory(ai.DifficultyHard, calm, zap.New(core), ai.WithScripts(caller)).Create(ai.KindBoss)
	require.NoError(t, err)

	assert.Equal(t, "attack->p1", choose(t, s, e, enc).Key())
	assert.Equal(t, 1, logs.FilterMessage("boss hook failed").Len())
}

func TestBoss_RunawayScriptFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warlord.lua"), []byte(`
		function choose_action(id, hp, round)
			while true do end
		end
	`), 0o644))
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	scripts := scripting.NewManager(dice.NewLoggedRoller(calm, logger), logger)
	t.Cleanup(scripts.Close)
	require.NoError(t, scripts.LoadScope("warlord", dir, 200))

	e := enemy(t, combat.Profile{Boss: true, Script: "warlord"})
	enc, _ := setup(t, e, player(t, "p1", 100))
	s, err := ai.NewFactory(ai.DifficultyHard, calm, logger, ai.WithScripts(scripts)).Create(ai.KindBoss)
	require.NoError(t, err)

	assert.Equal(t, "attack->p1", choose(t, s, e, enc).Key())
	require.Equal(t, 1, logs.FilterMessage("boss hook failed").Len())
	assert.Contains(t, logs.FilterMessage("boss hook failed").All()[0].ContextMap()["error"], "choose_action")
}

func TestBoss_PhasePreferences(t *testing.T) {
	phases := []ai.Phase{
		{Below: 100, Behavior: "defensive"},
		{Below: 30, Behavior: "aggressive", Prefer: []string{"tar"}},
	}
	require.NoError(t, ai.ValidatePhases(phases))
	e := enemy(t, combat.Profile{Boss: true, Abilities: []*ability.Definition{slam(), slowness()}})
	enc, _ := setup(t, e, player(t, "p1", 100))
	s := create(t, ai.KindBoss, ai.WithBossPhases(phases))

	assert.Equal(t, "ability:slam->p1", choose(t, s, e, enc).Key())
	e.ApplyDamage(75)
	assert.Equal(t, "ability:tar->p1", choose(t, s, e, enc).Key())
}

func TestValidatePhases_Rejects(t *testing.T) {
	assert.Error(t, ai.ValidatePhases([]ai.Phase{{Below: 0, Behavior: "aggressive"}}))
	assert.Error(t, ai.ValidatePhases([]ai.Phase{{Below: 50, Behavior: "boss"}}))
	assert.ErrorIs(t, ai.ValidatePhases([]ai.Phase{{Below: 50, Behavior: "sleepy"}}), ai.ErrUnknownKind)
}

func TestDifficulty_RandomPick(t *testing.T) {
	e := enemy(t, combat.Profile{Abilities: []*ability.Definition{slam()}})
	enc, actions := setup(t, e, player(t, "p1", 100))
	s, err := ai.NewFactory(ai.DifficultyEasy, fixedSrc{val: 0}, nil).Create(ai.KindAggressive)
	require.NoError(t, err)
	a, err := s.ChooseAction(e, enc, actions)
	require.NoError(t, err)
	assert.Equal(t, actions[0].Key(), a.Key())
}

func TestStrategies_AlwaysChooseOfferedAction(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		kind := ai.Kind(rapid.IntRange(0, 3).Draw(rt, "kind"))
		diff := ai.Difficulty(rapid.IntRange(0, 2).Draw(rt, "difficulty"))
		hp := rapid.IntRange(1, 100).Draw(rt, "hp")
		ap := rapid.IntRange(0, 50).Draw(rt, "ap")

		e, _ := combat.New(combat.Profile{ID: "e1", Name: "e1", Side: combat.SideEnemy, Level: 5, Boss: kind == ai.KindBoss,
			Stats:     combat.Stats{MaxHP: 100, MaxAP: 50, Attack: 20, Power: 10},
			Haki:      combat.Haki{Armament: 1},
			Abilities: []*ability.Definition{slam(), ember(), stance(), slowness()}})
		e.SetVitals(hp, ap)
		p1, _ := combat.New(combat.Profile{ID: "p1", Name: "p1", Level: 5, Stats: combat.Stats{MaxHP: 100}})
		p2, _ := combat.New(combat.Profile{ID: "p2", Name: "p2", Level: 5, Stats: combat.Stats{MaxHP: 100}})
		reg := status.NewRegistry()
		_ = reg.Register(&status.Definition{ID: combat.StatusArmamentHaki, Name: "Armament", Stacking: status.StackRefresh})
		_ = reg.Register(&status.Definition{ID: "slow", Name: "Slow", Stacking: status.StackReplace, Stat: "speed", Debuff: true})
		enc := combat.NewEncounter([]*combat.Combatant{p1, p2}, []*combat.Combatant{e}, false, reg)
		enc.Phase = combat.PhaseInProgress

		s, err := ai.NewFactory(diff, dice.NewSeededSource(seed), nil).Create(kind)
		if err != nil {
			rt.Fatal(err)
		}
		actions := combat.NewActionFactory().Available(e, enc)
		for turn := 0; turn < 5; turn++ {
			a, err := s.ChooseAction(e, enc, actions)
			if err != nil {
				rt.Fatal(err)
			}
			offered := false
			for _, x := range actions {
				if x.Key() == a.Key() {
					offered = true
				}
			}
			if !offered {
				rt.Fatalf("%s chose %s, which was not offered", kind, a.Key())
			}
		}
	})
}

func TestRegistry_For(t *testing.T) {
	reg := ai.NewRegistry(ai.NewFactory(ai.DifficultyNormal, calm, nil))
	grunt := enemy(t, combat.Profile{ID: "grunt"})
	s1, err := reg.For(grunt)
	require.NoError(t, err)
	s2, err := reg.For(grunt)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	boss := enemy(t, combat.Profile{ID: "boss", Boss: true})
	_, err = reg.For(boss)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	odd := enemy(t, combat.Profile{ID: "odd", Behavior: "sleepy"})
	_, err = reg.For(odd)
	assert.ErrorIs(t, err, ai.ErrUnknownKind)
}

func TestBuildState(t *testing.T) {
	e := enemy(t, combat.Profile{})
	ally := enemy(t, combat.Profile{ID: "e2"})
	ally.ApplyDamage(60)
	p1, p2 := player(t, "p1", 50), player(t, "p2", 50)
	down := player(t, "p3", 100)
	down.ApplyDamage(100)
	enc := combat.NewEncounter([]*combat.Combatant{p1, p2, down}, []*combat.Combatant{e, ally}, false, statuses(t))
	enc.Round = 3

	ws := ai.BuildState(e, enc)
	assert.Equal(t, "e1", ws.Self.ID)
	assert.Equal(t, 3, ws.Round)
	require.Len(t, ws.Foes, 2)
	require.Len(t, ws.Allies, 1)
	assert.Equal(t, "p1", ws.WeakestFoe().ID)
	assert.Equal(t, 1, ws.Foes[1].Index)
	assert.Equal(t, "e2", ws.MostWounded().ID)
	assert.Equal(t, 40.0, ws.Allies[0].HPPercent())
	assert.Nil(t, ws.Find("p3"))
}
