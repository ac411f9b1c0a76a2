package postgres_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/battle"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/storage/postgres"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/testutil"
)

func uniqueBattleID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func victoryResult(id string) battle.Result {
	return battle.Result{
		BattleID:   id,
		Outcome:    combat.PhaseVictory,
		Experience: 120,
		Shares:     map[string]int{"luffy": 60, "zoro": 60},
		Berries:    450,
		Rounds:     3,
		Drops:      []battle.Drop{{ItemID: "meat", InstanceID: "drop-1", Quantity: 2, From: "marine-a"}},
		Survivors: []combat.Snapshot{
			{ID: "luffy", Name: "Luffy", HP: 80, MaxHP: 120},
			{ID: "zoro", Name: "Zoro", HP: 95, MaxHP: 130},
		},
		Defeated: []string{"marine-a"},
	}
}

func sampleEvents() []combat.Event {
	return []combat.Event{
		{Seq: 0, Round: 1, Kind: combat.EventBattleStart},
		{Seq: 1, Round: 1, Kind: combat.EventActionResolved, ActorID: "luffy", Action: combat.ActionAttack,
			Outcome: &combat.Outcome{TargetID: "marine-a", Hit: true, Critical: true, Dealt: 42}},
		{Seq: 2, Round: 1, Kind: combat.EventBattleEnd, Phase: combat.PhaseVictory},
	}
}

func TestNewReport_EncodesDocuments(t *testing.T) {
	rep, err := postgres.NewReport(victoryResult("b-1"), "harbor_patrol", sampleEvents())
	require.NoError(t, err)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, "b-1", rep.BattleID)
	assert.Equal(t, "harbor_patrol", rep.EncounterID)
	assert.Equal(t, combat.PhaseVictory.String(), rep.Outcome)
	assert.Equal(t, 120, rep.Experience)

	var events []postgres.ReportEvent
	require.NoError(t, json.Unmarshal(rep.Events, &events))
	require.Len(t, events, 3)
	assert.Equal(t, combat.EventActionResolved.String(), events[1].Kind)
	assert.Equal(t, "marine-a", events[1].Target)
	assert.Equal(t, 42, events[1].Dealt)
	assert.True(t, events[1].Critical)
	assert.Equal(t, combat.PhaseVictory.String(), events[2].Message)

	var survivors []map[string]any
	require.NoError(t, json.Unmarshal(rep.Survivors, &survivors))
	require.Len(t, survivors, 2)
	assert.EqualValues(t, 60, survivors[0]["experience"])
}

func TestNewReport_DefeatHasEmptyArrays(t *testing.T) {
	rep, err := postgres.NewReport(battle.Result{BattleID: "b-2", Outcome: combat.PhaseDefeat}, "", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(rep.Drops))
	assert.JSONEq(t, `[]`, string(rep.Survivors))
	assert.JSONEq(t, `[]`, string(rep.Events))
}

func TestReportRepository_CreateAndGet(t *testing.T) {
	repo := postgres.NewReportRepository(testutil.NewPool(t))
	ctx := context.Background()

	id := uniqueBattleID("battle")
	rep, err := postgres.NewReport(victoryResult(id), "harbor_patrol", sampleEvents())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, rep))
	assert.False(t, rep.CreatedAt.IsZero())

	got, err := repo.GetByBattleID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, got.ID)
	assert.Equal(t, "victory", got.Outcome)
	assert.Equal(t, 450, got.Berries)
	assert.JSONEq(t, string(rep.Events), string(got.Events))
}

func TestReportRepository_DuplicateBattle(t *testing.T) {
	repo := postgres.NewReportRepository(testutil.NewPool(t))
	ctx := context.Background()

	id := uniqueBattleID("dup")
	first, err := postgres.NewReport(victoryResult(id), "", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := postgres.NewReport(victoryResult(id), "", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, second), postgres.ErrReportExists)
}

func TestReportRepository_NotFound(t *testing.T) {
	repo := postgres.NewReportRepository(testutil.NewPool(t))
	_, err := repo.GetByBattleID(context.Background(), "missing")
	assert.ErrorIs(t, err, postgres.ErrReportNotFound)
}

func TestReportRepository_ListAndCount(t *testing.T) {
	repo := postgres.NewReportRepository(testutil.NewPool(t))
	ctx := context.Background()

	for i, phase := range []combat.Phase{combat.PhaseVictory, combat.PhaseVictory, combat.PhaseFled} {
		res := victoryResult(uniqueBattleID(fmt.Sprintf("list%d", i)))
		res.Outcome = phase
		rep, err := postgres.NewReport(res, "", nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, rep))
	}

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	counts, err := repo.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["victory"])
	assert.Equal(t, 1, counts["fled"])
}

// Property: every encoded event keeps its sequence number and kind name.
func TestPropertyNewReport_EventsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		events := make([]combat.Event, n)
		for i := range events {
			events[i] = combat.Event{
				Seq:   i,
				Round: rapid.IntRange(1, 10).Draw(t, "round"),
				Kind:  combat.EventKind(rapid.IntRange(0, int(combat.EventBattleEnd)).Draw(t, "kind")),
			}
		}
		rep, err := postgres.NewReport(battle.Result{BattleID: "p", Outcome: combat.PhaseDefeat}, "", events)
		if err != nil {
			t.Fatalf("NewReport: %v", err)
		}
		var decoded []postgres.ReportEvent
		if err := json.Unmarshal(rep.Events, &decoded); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if len(decoded) != n {
			t.Fatalf("got %d events, want %d", len(decoded), n)
		}
		for i, e := range decoded {
			if e.Seq != i || e.Kind != events[i].Kind.String() {
				t.Fatalf("event %d mismatch: %+v", i, e)
			}
		}
	})
}
