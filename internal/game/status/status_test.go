package status_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/status"
)

func burn() *status.Definition {
	return &status.Definition{ID: "burn", Name: "Burn", Stacking: status.StackRefresh, Periodic: status.PeriodicDamage}
}

func poison() *status.Definition {
	return &status.Definition{ID: "poison", Name: "Poison", Stacking: status.StackSum, Periodic: status.PeriodicDamage, MaxMagnitude: 30}
}

func attackUp() *status.Definition {
	return &status.Definition{ID: "attack_up", Name: "Attack Up", Stacking: status.StackReplace, Stat: "attack"}
}

func stun() *status.Definition {
	return &status.Definition{ID: "stun", Name: "Stun", Stacking: status.StackRefresh, Timing: status.TimingStartOfTurn, SkipsTurn: true}
}

func TestSet_Apply_New(t *testing.T) {
	s := status.NewSet()
	_, err := s.Apply(burn(), 5, 3, "luffy")
	require.NoError(t, err)
	e, ok := s.Get("burn")
	require.True(t, ok)
	assert.Equal(t, 5, e.Magnitude)
	assert.Equal(t, 3, e.Remaining)
	assert.Equal(t, "luffy", e.Source)
}

func TestSet_Apply_RejectsBadInput(t *testing.T) {
	s := status.NewSet()
	_, err := s.Apply(nil, 1, 1, "")
	assert.Error(t, err)
	_, err = s.Apply(burn(), 1, 0, "")
	assert.Error(t, err)
	_, err = s.Apply(burn(), -1, 2, "")
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSet_Apply_Replace(t *testing.T) {
	s := status.NewSet()
	def := attackUp()
	_, _ = s.Apply(def, 10, 5, "a")
	_, _ = s.Apply(def, 4, 2, "b")
	e, _ := s.Get("attack_up")
	assert.Equal(t, 4, e.Magnitude)
	assert.Equal(t, 2, e.Remaining)
}

func TestSet_Apply_Sum_CapsMagnitude(t *testing.T) {
	s := status.NewSet()
	def := poison()
	_, _ = s.Apply(def, 20, 2, "a")
	_, _ = s.Apply(def, 20, 4, "a")
	e, _ := s.Get("poison")
	assert.Equal(t, 30, e.Magnitude)
	assert.Equal(t, 4, e.Remaining)
}

func TestSet_Apply_Refresh(t *testing.T) {
	s := status.NewSet()
	def := burn()
	_, _ = s.Apply(def, 8, 5, "a")
	_, _ = s.Apply(def, 3, 2, "a")
	e, _ := s.Get("burn")
	assert.Equal(t, 8, e.Magnitude)
	assert.Equal(t, 2, e.Remaining)
}

func TestSet_Tick_OnlyMatchingTiming(t *testing.T) {
	s := status.NewSet()
	_, _ = s.Apply(burn(), 5, 2, "a")
	_, _ = s.Apply(stun(), 0, 1, "a")

	start := s.Tick(status.TimingStartOfTurn)
	require.Len(t, start, 1)
	assert.Equal(t, "stun", start[0].ID)
	assert.True(t, start[0].Expired)
	assert.False(t, s.Has("stun"))

	end := s.Tick(status.TimingEndOfTurn)
	require.Len(t, end, 1)
	assert.Equal(t, "burn", end[0].ID)
	assert.Equal(t, 1, end[0].Remaining)
	assert.True(t, s.Has("burn"))
}

func TestSet_Modifier(t *testing.T) {
	s := status.NewSet()
	down := &status.Definition{ID: "attack_down", Stacking: status.StackReplace, Stat: "attack", Debuff: true}
	_, _ = s.Apply(attackUp(), 10, 3, "")
	_, _ = s.Apply(down, 4, 3, "")
	assert.Equal(t, 6, s.Modifier("attack"))
	assert.Equal(t, 0, s.Modifier("defense"))
}

func TestSet_TurnBlocker(t *testing.T) {
	s := status.NewSet()
	_, ok := s.TurnBlocker()
	assert.False(t, ok)
	_, _ = s.Apply(stun(), 0, 1, "")
	id, ok := s.TurnBlocker()
	assert.True(t, ok)
	assert.Equal(t, "stun", id)
}

func TestSet_RemoveAndClear(t *testing.T) {
	s := status.NewSet()
	_, _ = s.Apply(burn(), 1, 2, "")
	_, _ = s.Apply(poison(), 1, 2, "")
	assert.True(t, s.Remove("burn"))
	assert.False(t, s.Remove("burn"))
	assert.Equal(t, 1, s.Len())
	s.Clear()
	assert.Equal(t, 0, s.Len())
}

// An effect applied for N turns ticks exactly N times and is gone after the
// Nth tick, never earlier and never later.
func TestPropertySet_DurationCountsDownExactly(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		duration := rapid.IntRange(1, 12).Draw(rt, "duration")
		s := status.NewSet()
		_, err := s.Apply(burn(), 3, duration, "")
		require.NoError(rt, err)

		for i := 1; i <= duration; i++ {
			require.True(rt, s.Has("burn"), "effect disappeared early at tick %d", i)
			ticks := s.Tick(status.TimingEndOfTurn)
			require.Len(rt, ticks, 1)
			assert.Equal(rt, duration-i, ticks[0].Remaining)
			assert.Equal(rt, i == duration, ticks[0].Expired)
		}
		assert.False(rt, s.Has("burn"), "effect lingered past its duration")
	})
}

func TestPropertySet_SumNeverExceedsCap(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capM := rapid.IntRange(1, 50).Draw(rt, "cap")
		def := &status.Definition{ID: "x", Stacking: status.StackSum, MaxMagnitude: capM}
		s := status.NewSet()
		n := rapid.IntRange(1, 10).Draw(rt, "applications")
		for i := 0; i < n; i++ {
			_, err := s.Apply(def, rapid.IntRange(0, 40).Draw(rt, "m"), 1, "")
			require.NoError(rt, err)
		}
		e, _ := s.Get("x")
		assert.LessOrEqual(rt, e.Magnitude, capM)
	})
}

func TestRegistry_RegisterValidates(t *testing.T) {
	reg := status.NewRegistry()
	assert.Error(t, reg.Register(&status.Definition{ID: "bad"}))
	assert.Error(t, reg.Register(&status.Definition{ID: "bad", Stacking: status.StackSum, Stat: "charisma"}))
	require.NoError(t, reg.Register(burn()))
	got, ok := reg.Get("burn")
	require.True(t, ok)
	assert.Equal(t, "Burn", got.Name)
}

func TestLoadDirectory_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := `
id: freeze
name: Frozen
description: "Encased in ice."
stacking: refresh
timing: start
skips_turn: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "freeze.yaml"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	reg, err := status.LoadDirectory(dir)
	require.NoError(t, err)
	def, ok := reg.Get("freeze")
	require.True(t, ok)
	assert.Equal(t, status.StackRefresh, def.Stacking)
	assert.Equal(t, status.TimingStartOfTurn, def.Timing)
	assert.True(t, def.SkipsTurn)
	assert.Len(t, reg.All(), 1)
}

func TestLoadDirectory_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.yaml"), []byte("id: x\nstacking: sum\npotency: 3\n"), 0o644))
	_, err := status.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_RejectsUnknownStacking(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.yaml"), []byte("id: x\nstacking: multiply\n"), 0o644))
	_, err := status.LoadDirectory(dir)
	assert.Error(t, err)
}
