package character_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/character"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
)

const partyYAML = `
name: Straw Hats
berries: 1000
members:
  - id: luffy
    name: Luffy
    level: 5
    stats: {max_hp: 120, max_ap: 40, attack: 18, defense: 8, speed: 14, power: 10}
    fruit: gomu
    abilities: [gatling]
    haki: {conqueror: 1}
  - name: Zoro
    level: 5
    stats: {max_hp: 110, max_ap: 30, attack: 20, defense: 10, speed: 11}
items:
  - {item: meat, quantity: 3}
`

func registries(t *testing.T) (*ability.Registry, *inventory.Registry) {
	t.Helper()
	abilities := ability.NewRegistry()
	require.NoError(t, abilities.RegisterAbility(&ability.Definition{
		ID: "gatling", Name: "Gum-Gum Gatling", Effect: ability.EffectDamage, Target: ability.TargetSingleEnemy,
		APCost: 10, BaseDamage: 15, Fruit: "gomu",
	}))
	require.NoError(t, abilities.RegisterFruit(&ability.Fruit{
		ID: "gomu", Name: "Gum-Gum Fruit", Type: ability.FruitParamecia, Abilities: []string{"gatling"},
	}))
	items, err := inventory.NewRegistryFromItems([]*inventory.ItemDef{
		{ID: "meat", Name: "Meat", Target: ability.TargetSingleAlly, HealPercent: 50},
	})
	require.NoError(t, err)
	return abilities, items
}

func writeParty(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "party.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoadParty_Valid(t *testing.T) {
	p, err := character.LoadParty(writeParty(t, partyYAML))
	require.NoError(t, err)
	assert.Equal(t, "Straw Hats", p.Name)
	require.Len(t, p.Members, 2)
	assert.Equal(t, 1, p.Members[0].Haki.Conqueror)
	assert.Equal(t, []character.ItemStack{{Item: "meat", Quantity: 3}}, p.Items)
}

func TestLoadParty_InvalidReportsEveryViolation(t *testing.T) {
	_, err := character.LoadParty(writeParty(t, `
members:
  - id: a
    name: ""
    level: 0
    stats: {max_hp: 0}
  - id: a
    name: B
    level: 1
    stats: {max_hp: 5}
items:
  - {item: meat, quantity: 0}
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "name must not be empty")
	assert.Contains(t, msg, "level must be >= 1")
	assert.Contains(t, msg, "max_hp")
	assert.Contains(t, msg, "duplicated")
	assert.Contains(t, msg, "items[0]")
}

func TestLoadParty_Empty(t *testing.T) {
	_, err := character.LoadParty(writeParty(t, "name: Nobody\n"))
	assert.Error(t, err)
}

func TestBuild_CombatantsAndBag(t *testing.T) {
	abilities, items := registries(t)
	p, err := character.LoadParty(writeParty(t, partyYAML))
	require.NoError(t, err)

	cs, bag, err := character.Build(p, abilities, items)
	require.NoError(t, err)
	require.Len(t, cs, 2)

	luffy := cs[0]
	assert.Equal(t, "luffy", luffy.ID)
	assert.Equal(t, combat.SidePlayer, luffy.Side)
	assert.Equal(t, 120, luffy.HP())
	assert.Equal(t, ability.FruitParamecia, luffy.Affinity.Fruit.Type)
	require.Len(t, luffy.Abilities, 1)

	zoro := cs[1]
	assert.NotEmpty(t, zoro.ID, "missing ids are generated")
	assert.Equal(t, zoro.ID, p.Members[1].ID)
	assert.Equal(t, 3, bag.Count("meat"))
}

func TestBuild_UnknownDataFails(t *testing.T) {
	abilities, items := registries(t)
	p := &character.Party{
		Name:    "Lost",
		Members: []*character.Member{{Name: "Usopp", Level: 1, Stats: combat.Stats{MaxHP: 50}, Abilities: []string{"slingshot"}}},
		Items:   []character.ItemStack{{Item: "cola", Quantity: 1}},
	}
	_, _, err := character.Build(p, abilities, items)
	require.Error(t, err)
	assert.ErrorIs(t, err, ability.ErrUnknownAbility)
	assert.ErrorIs(t, err, inventory.ErrUnknownItem)
}

func TestExpToNext(t *testing.T) {
	assert.Equal(t, 100, character.ExpToNext(1))
	assert.Equal(t, 150, character.ExpToNext(2))
	assert.Equal(t, 225, character.ExpToNext(3))
}

func TestMember_GainExperience_LevelsAndGrows(t *testing.T) {
	m := &character.Member{Name: "Nami", Level: 1, Stats: combat.Stats{MaxHP: 80, MaxAP: 20, Attack: 8}}
	gained := m.GainExperience(260)
	assert.Equal(t, 2, gained)
	assert.Equal(t, 3, m.Level)
	assert.Equal(t, 10, m.Experience)
	assert.Equal(t, 100, m.Stats.MaxHP)
	assert.Equal(t, 30, m.Stats.MaxAP)
	assert.Equal(t, 10, m.Stats.Attack)
}

func TestMember_GainExperience_CustomGrowth(t *testing.T) {
	m := &character.Member{Name: "Chopper", Level: 1, Stats: combat.Stats{MaxHP: 60}, Growth: combat.Stats{MaxHP: 3, Power: 2}}
	m.GainExperience(100)
	assert.Equal(t, 63, m.Stats.MaxHP)
	assert.Equal(t, 2, m.Stats.Power)
	assert.Equal(t, 0, m.Stats.Attack)
}

func TestParty_Award(t *testing.T) {
	p, err := character.LoadParty(writeParty(t, partyYAML))
	require.NoError(t, err)

	ups := p.Award(map[string]int{"luffy": 600, "zoro": 0}, 350, []character.ItemStack{{Item: "meat", Quantity: 1}, {Item: "cutlass", Quantity: 1}})
	require.Len(t, ups, 1)
	assert.Equal(t, character.LevelUp{MemberID: "luffy", Name: "Luffy", From: 5, To: 6}, ups[0])
	assert.Equal(t, 95, p.Members[0].Experience)
	assert.Equal(t, 5, p.Members[1].Level)
	assert.Equal(t, 1350, p.Berries)
	assert.Equal(t, []character.ItemStack{{Item: "meat", Quantity: 4}, {Item: "cutlass", Quantity: 1}}, p.Items)
}

func TestParty_ItemConsumed_MirrorsBag(t *testing.T) {
	abilities, items := registries(t)
	p, err := character.LoadParty(writeParty(t, partyYAML))
	require.NoError(t, err)
	_, bag, err := character.Build(p, abilities, items)
	require.NoError(t, err)
	bag.SetNotifier(p)

	require.NoError(t, bag.Consume("meat"))
	assert.Equal(t, 2, p.Items[0].Quantity)
	require.NoError(t, bag.Consume("meat"))
	require.NoError(t, bag.Consume("meat"))
	assert.Empty(t, p.Items)
}

func TestProperty_GainExperience_RemainderBelowThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lvl := rapid.IntRange(1, 20).Draw(rt, "level")
		exp := rapid.IntRange(0, 100000).Draw(rt, "exp")
		m := &character.Member{Name: "X", Level: lvl, Stats: combat.Stats{MaxHP: 1}}
		gained := m.GainExperience(exp)
		assert.Equal(rt, lvl+gained, m.Level)
		assert.GreaterOrEqual(rt, m.Experience, 0)
		assert.Less(rt, m.Experience, character.ExpToNext(m.Level))
		assert.Equal(rt, 1+gained*character.DefaultGrowth.MaxHP, m.Stats.MaxHP)
	})
}

func TestParty_AssignIDs_KeepsExisting(t *testing.T) {
	p := &character.Party{Members: []*character.Member{{ID: "luffy"}, {Name: "Zoro"}}}
	p.AssignIDs()
	assert.Equal(t, "luffy", p.Members[0].ID)
	assert.NotEmpty(t, p.Members[1].ID)
	id := p.Members[1].ID
	p.AssignIDs()
	assert.Equal(t, id, p.Members[1].ID)
}

func TestBuild_RestoresSavedVitals(t *testing.T) {
	abilities, items := registries(t)
	p, err := character.LoadParty(writeParty(t, `
name: Straw Hats
members:
  - id: luffy
    name: Luffy
    level: 5
    stats: {max_hp: 120, max_ap: 40}
    hp: 30
    ap: 0
  - id: zoro
    name: Zoro
    level: 5
    stats: {max_hp: 110, max_ap: 30}
    ap: 12
`))
	require.NoError(t, err)

	cs, _, err := character.Build(p, abilities, items)
	require.NoError(t, err)
	assert.Equal(t, 30, cs[0].HP())
	assert.Equal(t, 0, cs[0].AP())
	assert.Equal(t, 110, cs[1].HP(), "unset hp is full")
	assert.Equal(t, 12, cs[1].AP())
}

func TestLoadParty_RejectsFallenVitals(t *testing.T) {
	_, err := character.LoadParty(writeParty(t, `
members:
  - {id: a, name: A, level: 1, stats: {max_hp: 10}, hp: 0, ap: -1}
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "hp must be >= 1")
	assert.ErrorContains(t, err, "ap must be >= 0")
}

func TestParty_UpdateVitals(t *testing.T) {
	p, err := character.LoadParty(writeParty(t, partyYAML))
	require.NoError(t, err)
	p.AssignIDs()
	zoroID := p.Members[1].ID

	p.UpdateVitals([]combat.Snapshot{
		{ID: "luffy", HP: 0, MaxHP: 120, AP: 7, MaxAP: 40},
		{ID: zoroID, HP: 110, MaxHP: 110, AP: 30, MaxAP: 30},
		{ID: "stranger", HP: 1, MaxHP: 10},
	})

	luffy := p.Members[0]
	require.NotNil(t, luffy.HP)
	assert.Equal(t, 30, *luffy.HP, "a fallen member recovers to a quarter of max hp")
	require.NotNil(t, luffy.AP)
	assert.Equal(t, 7, *luffy.AP)
	assert.Nil(t, p.Members[1].HP)
	assert.Nil(t, p.Members[1].AP)
}

func TestProperty_UpdateVitals_RebuildsWithinBounds(t *testing.T) {
	abilities, items := registries(t)
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 500).Draw(rt, "max_hp")
		maxAP := rapid.IntRange(0, 100).Draw(rt, "max_ap")
		hp := rapid.IntRange(0, maxHP).Draw(rt, "hp")
		ap := rapid.IntRange(0, maxAP).Draw(rt, "ap")
		p := &character.Party{Members: []*character.Member{
			{ID: "m", Name: "M", Level: 1, Stats: combat.Stats{MaxHP: maxHP, MaxAP: maxAP}},
		}}

		p.UpdateVitals([]combat.Snapshot{{ID: "m", HP: hp, MaxHP: maxHP, AP: ap, MaxAP: maxAP}})
		cs, _, err := character.Build(p, abilities, items)
		require.NoError(rt, err)

		c := cs[0]
		assert.True(rt, c.IsAlive())
		assert.Equal(rt, ap, c.AP())
		if hp > 0 {
			assert.Equal(rt, hp, c.HP())
		} else {
			assert.Equal(rt, max(1, maxHP/4), c.HP())
		}
	})
}
