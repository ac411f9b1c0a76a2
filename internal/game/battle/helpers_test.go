package battle_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ai"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/battle"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/dice"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/status"
)

// zeroSrc rolls 0 every time: every chance below 100% succeeds and every
// variance roll sits on the floor.
type zeroSrc struct{}

func (zeroSrc) Intn(int) int { return 0 }

func statuses(t *testing.T) *status.Registry {
	t.Helper()
	reg := status.NewRegistry()
	require.NoError(t, reg.Register(&status.Definition{
		ID: combat.StatusStun, Name: "Stun", Stacking: status.StackRefresh,
		Timing: status.TimingStartOfTurn, SkipsTurn: true, Debuff: true,
	}))
	require.NoError(t, reg.Register(&status.Definition{
		ID: "burn", Name: "Burn", Stacking: status.StackRefresh, Periodic: status.PeriodicDamage,
	}))
	return reg
}

type fighter struct {
	hp, atk, def, spd int
}

func newFighter(t *testing.T, id string, side combat.Side, f fighter) *combat.Combatant {
	t.Helper()
	c, err := combat.New(combat.Profile{
		ID: id, Name: id, Side: side, Level: 3,
		Stats: combat.Stats{MaxHP: f.hp, MaxAP: 20, Attack: f.atk, Defense: f.def, Speed: f.spd},
	})
	require.NoError(t, err)
	return c
}

type harness struct {
	mgr    *battle.Manager
	logs   *observer.ObservedLogs
	status *status.Registry
}

func newHarness(t *testing.T, src dice.Source, opts ...battle.Option) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	reg := statuses(t)
	calc := combat.NewCalculator(src, combat.DefaultTuning(), logger)
	factory := ai.NewFactory(ai.DifficultyNormal, src, logger)
	return &harness{
		mgr:    battle.NewManager(calc, factory, reg, logger, opts...),
		logs:   logs,
		status: reg,
	}
}

// attackFirst is an input provider that attacks the first living enemy.
func attackFirst(actor *combat.Combatant, enc *combat.Encounter, _ []combat.Action) (combat.Action, error) {
	return combat.Attack(actor, enc.Living(combat.SideEnemy)[0]), nil
}

func kinds(events []combat.Event) []combat.EventKind {
	out := make([]combat.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func countKind(events []combat.Event, k combat.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
