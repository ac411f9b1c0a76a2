package npc_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/npc"
)

const marineYAML = `
id: marine
name: Marine
description: A Navy recruit with a rifle.
level: 3
stats:
  max_hp: 60
  max_ap: 20
  attack: 12
  defense: 6
  speed: 8
abilities: [slash]
behavior: defensive
loot:
  berries: {min: 100, max: 200}
  items:
    - {item: meat, chance: 0.5, min_qty: 1, max_qty: 2}
`

func TestLoadTemplateFromBytes_Valid(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(marineYAML))
	require.NoError(t, err)
	assert.Equal(t, "marine", tmpl.ID)
	assert.Equal(t, 3, tmpl.Level)
	assert.Equal(t, 60, tmpl.Stats.MaxHP)
	assert.Equal(t, []string{"slash"}, tmpl.Abilities)
	assert.Equal(t, "defensive", tmpl.Behavior)
	require.NotNil(t, tmpl.Loot)
	assert.Equal(t, 200, tmpl.Loot.Berries.Max)
}

func TestTemplate_Validate_JoinsViolations(t *testing.T) {
	tmpl := &npc.Template{ID: "broken", Level: 0, Behavior: "berserk", FruitMastery: 2}
	err := tmpl.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "name must not be empty")
	assert.Contains(t, msg, "level must be >= 1")
	assert.Contains(t, msg, "max_hp")
	assert.Contains(t, msg, "berserk")
	assert.Contains(t, msg, "fruit_mastery set without a fruit")
}

func TestTemplate_Validate_RejectsEmptyID(t *testing.T) {
	assert.Error(t, (&npc.Template{Name: "Nobody"}).Validate())
}

func TestTemplate_Bounty_Defaults(t *testing.T) {
	b := marine().Bounty()
	assert.Equal(t, 30, b.Experience)
	assert.Equal(t, 120, b.BerriesMin)
	assert.Equal(t, 180, b.BerriesMax)
	assert.Empty(t, b.Drops)
}

func TestTemplate_Bounty_ExplicitValues(t *testing.T) {
	b := captain().Bounty()
	assert.Equal(t, 500, b.Experience)
	assert.Equal(t, 1000, b.BerriesMin)
	assert.Equal(t, 1500, b.BerriesMax)
	require.Len(t, b.Drops, 1)
	assert.Equal(t, combat.DropChance{ItemID: "jitte", Chance: 25, MinQty: 1, MaxQty: 1}, b.Drops[0])
}

func TestTemplate_ScriptScope(t *testing.T) {
	tmpl := captain()
	assert.Equal(t, "smoker", tmpl.ScriptScope())
	tmpl.Script = "white_hunter"
	assert.Equal(t, "white_hunter", tmpl.ScriptScope())
}

func TestLoadTemplates_ValidDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marine.yaml"), []byte(marineYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	templates, err := npc.LoadTemplates(dir)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Marine", templates[0].Name)
}

func TestLoadTemplates_InvalidFile_ReportsPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\nlevel: 0\n"), 0644))
	_, err := npc.LoadTemplates(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoadTemplates_MissingDir(t *testing.T) {
	_, err := npc.LoadTemplates(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestProperty_DefaultBounty_ScalesWithLevel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lvl := rapid.IntRange(1, 99).Draw(rt, "level")
		tmpl := &npc.Template{ID: "x", Name: "X", Level: lvl, Stats: combat.Stats{MaxHP: 1}}
		require.NoError(rt, tmpl.Validate())
		b := tmpl.Bounty()
		want := lvl * 10
		if lvl >= 10 {
			want = lvl * 15
		}
		assert.Equal(rt, want, b.Experience, fmt.Sprintf("level %d", lvl))
		assert.LessOrEqual(rt, b.BerriesMin, lvl*50)
		assert.GreaterOrEqual(rt, b.BerriesMax, lvl*50)
	})
}
