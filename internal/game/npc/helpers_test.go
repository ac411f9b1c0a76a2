package npc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/npc"
)

func abilityRegistry(t *testing.T) *ability.Registry {
	t.Helper()
	reg := ability.NewRegistry()
	require.NoError(t, reg.RegisterAbility(&ability.Definition{
		ID: "slash", Name: "Slash", Effect: ability.EffectDamage, Target: ability.TargetSingleEnemy,
		APCost: 5, BaseDamage: 12,
	}))
	require.NoError(t, reg.RegisterAbility(&ability.Definition{
		ID: "smoke_screen", Name: "Smoke Screen", Effect: ability.EffectDamage, Target: ability.TargetAllEnemies,
		APCost: 10, BaseDamage: 8, Power: 1.0, DamageType: ability.DamageElemental, Element: ability.ElementSmoke,
		Fruit: "moku",
	}))
	require.NoError(t, reg.RegisterFruit(&ability.Fruit{
		ID: "moku", Name: "Smoke-Smoke Fruit", Type: ability.FruitLogia, Element: ability.ElementSmoke,
		Abilities: []string{"smoke_screen"},
	}))
	return reg
}

func marine() *npc.Template {
	return &npc.Template{
		ID:        "marine",
		Name:      "Marine",
		Level:     3,
		Stats:     combat.Stats{MaxHP: 60, MaxAP: 20, Attack: 12, Defense: 6, Speed: 8, Power: 4},
		Abilities: []string{"slash"},
	}
}

func captain() *npc.Template {
	return &npc.Template{
		ID:           "smoker",
		Name:         "Captain Smoker",
		Level:        12,
		Stats:        combat.Stats{MaxHP: 400, MaxAP: 80, Attack: 30, Defense: 20, Speed: 14, Power: 25},
		Fruit:        "moku",
		FruitMastery: 3,
		Boss:         true,
		Experience:   500,
		Loot: &npc.LootTable{
			Berries: &npc.BerryDrop{Min: 1000, Max: 1500},
			Items:   []npc.ItemDrop{{ItemID: "jitte", Chance: 0.25, MinQty: 1, MaxQty: 1}},
		},
	}
}
