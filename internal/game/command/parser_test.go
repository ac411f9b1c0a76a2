package command

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("   ")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("defend")
	assert.Equal(t, "defend", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_LowercasesCommandOnly(t *testing.T) {
	result := Parse("  ATTACK   Marine  B ")
	assert.Equal(t, "attack", result.Command)
	assert.Equal(t, []string{"Marine", "B"}, result.Args)
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z]{1,20}`).Draw(t, "word")
		result := Parse(word)
		for _, c := range result.Command {
			if c >= 'A' && c <= 'Z' {
				t.Fatalf("command %q contains uppercase char in Parse result %q", word, result.Command)
			}
		}
	})
}

func combatant(t *testing.T, id, name string, side combat.Side) *combat.Combatant {
	t.Helper()
	c, err := combat.New(combat.Profile{
		ID: id, Name: name, Side: side, Level: 1,
		Stats: combat.Stats{MaxHP: 50, MaxAP: 20, Attack: 10, Defense: 5, Speed: 5},
	})
	require.NoError(t, err)
	return c
}

type scene struct {
	luffy, zoro, marineA, marineB *combat.Combatant
	actions                       []combat.Action
}

func newScene(t *testing.T) scene {
	s := scene{
		luffy:   combatant(t, "luffy", "Luffy", combat.SidePlayer),
		zoro:    combatant(t, "zoro", "Zoro", combat.SidePlayer),
		marineA: combatant(t, "m-a", "Marine A", combat.SideEnemy),
		marineB: combatant(t, "m-b", "Marine B", combat.SideEnemy),
	}
	s.actions = []combat.Action{
		combat.Attack(s.luffy, s.marineA),
		combat.Attack(s.luffy, s.marineB),
		combat.UseAbility(s.luffy, "gum_gum_pistol", s.marineA),
		combat.UseAbility(s.luffy, "gum_gum_pistol", s.marineB),
		combat.UseAbility(s.luffy, "gum_gum_gatling", s.marineA, s.marineB),
		combat.UseItem(s.luffy, "meat", s.luffy),
		combat.UseItem(s.luffy, "meat", s.zoro),
		combat.Defend(s.luffy),
		combat.Flee(s.luffy),
	}
	return s
}

func TestSelect(t *testing.T) {
	s := newScene(t)
	r := DefaultRegistry()

	tests := []struct {
		line   string
		kind   combat.ActionKind
		id     string
		target string
	}{
		{"attack", combat.ActionAttack, "", "m-a"},
		{"a marine b", combat.ActionAttack, "", "m-b"},
		{"attack 2", combat.ActionAttack, "", "m-b"},
		{"hit m-b", combat.ActionAttack, "", "m-b"},
		{"skill gum_gum_pistol marine b", combat.ActionAbility, "gum_gum_pistol", "m-b"},
		{"s gum_gum_g", combat.ActionAbility, "gum_gum_gatling", "m-a"},
		{"use meat zoro", combat.ActionItem, "meat", "zoro"},
		{"defend", combat.ActionDefend, "", ""},
		{"RUN", combat.ActionFlee, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ch, err := r.Select(tt.line, s.actions)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ch.Action.Kind)
			assert.Equal(t, tt.id, ch.Action.AbilityID+ch.Action.ItemID)
			if tt.target != "" {
				require.NotEmpty(t, ch.Action.Targets)
				assert.Equal(t, tt.target, ch.Action.Targets[0].ID)
			}
		})
	}
}

func TestSelect_InfoCommands(t *testing.T) {
	r := DefaultRegistry()
	for _, line := range []string{"status", "ls", "?"} {
		ch, err := r.Select(line, nil)
		require.NoError(t, err)
		assert.Equal(t, CategoryInfo, ch.Command.Category)
		assert.Equal(t, combat.ActionUnknown, ch.Action.Kind)
	}
}

func TestSelect_Errors(t *testing.T) {
	s := newScene(t)
	r := DefaultRegistry()

	tests := []struct {
		line string
		want error
	}{
		{"", ErrUnknownCommand},
		{"dance", ErrUnknownCommand},
		{"skill", ErrNoSuchAction},
		{"skill gum_gum", ErrNoSuchAction},
		{"skill fire_fist", ErrNoSuchAction},
		{"attack smoker", ErrNoSuchAction},
		{"attack 7", ErrNoSuchAction},
		{"use sake", ErrNoSuchAction},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := r.Select(tt.line, s.actions)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSelect_NoLegalActionOfKind(t *testing.T) {
	s := newScene(t)
	r := DefaultRegistry()
	_, err := r.Select("flee", s.actions[:2])
	assert.ErrorIs(t, err, ErrNoSuchAction)
}

// Property: an action selected by position is always one of the legal actions.
func TestPropertySelectByIndexIsLegal(t *testing.T) {
	r := DefaultRegistry()
	rapid.Check(t, func(rt *rapid.T) {
		s := newScene(t)
		n := rapid.IntRange(-2, 5).Draw(rt, "n")
		ch, err := r.Select("attack "+strconv.Itoa(n), s.actions)
		if n < 1 || n > 2 {
			if err == nil {
				rt.Fatalf("attack %d accepted", n)
			}
			return
		}
		if err != nil {
			rt.Fatalf("attack %d: %v", n, err)
		}
		if ch.Action.Targets[0] != s.actions[n-1].Targets[0] {
			rt.Fatalf("attack %d chose %s", n, ch.Action.Targets[0].ID)
		}
	})
}

