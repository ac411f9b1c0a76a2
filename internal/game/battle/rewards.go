package battle

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/dice"
)

// Drop is one item instance awarded by a victory.
type Drop struct {
	ItemID     string
	InstanceID string
	Quantity   int
	// From is the ID of the enemy that dropped it.
	From string
}

// Result is the immutable summary of a finished battle.
type Result struct {
	BattleID string
	Outcome  combat.Phase
	// Experience is the total awarded; Shares splits it evenly (rounded down)
	// among surviving players by combatant ID.
	Experience int
	Shares     map[string]int
	Berries    int
	Drops      []Drop
	Rounds     int
	// Survivors are the final snapshots of living player combatants.
	Survivors []combat.Snapshot
	// Defeated lists the IDs of fallen enemies in roster order.
	Defeated []string
}

// Victory reports whether the players won.
func (r Result) Victory() bool {
	return r.Outcome == combat.PhaseVictory
}

// bountyOf returns c's bounty or the level default.
func bountyOf(c *combat.Combatant) *combat.Bounty {
	if c.Bounty != nil {
		return c.Bounty
	}
	return combat.DefaultBounty(c.Level)
}

// rollRewards totals experience, berries and drops over the defeated enemies.
//
// Postcondition: every Drop has a fresh UUID InstanceID and Quantity >= 1.
func rollRewards(defeated []*combat.Combatant, roller *dice.Roller, logger *zap.Logger) (exp, berries int, drops []Drop) {
	for _, e := range defeated {
		b := bountyOf(e)
		exp += b.Experience
		berries += between(roller, b.BerriesMin, b.BerriesMax)
		for _, d := range b.Drops {
			if !roller.Chance("drop:"+d.ItemID, d.Chance) {
				continue
			}
			qty := between(roller, max(1, d.MinQty), max(1, d.MinQty, d.MaxQty))
			drops = append(drops, Drop{
				ItemID:     d.ItemID,
				InstanceID: uuid.NewString(),
				Quantity:   qty,
				From:       e.ID,
			})
		}
	}
	logger.Debug("rewards rolled",
		zap.Int("defeated", len(defeated)),
		zap.Int("experience", exp),
		zap.Int("berries", berries),
		zap.Int("drops", len(drops)),
	)
	return exp, berries, drops
}

// between returns a uniform integer in [lo, hi].
func between(roller *dice.Roller, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + roller.Intn(hi-lo+1)
}

// shares splits exp evenly among survivors.
func shares(exp int, survivors []combat.Snapshot) map[string]int {
	out := make(map[string]int, len(survivors))
	if len(survivors) == 0 {
		return out
	}
	each := exp / len(survivors)
	for _, s := range survivors {
		out[s.ID] = each
	}
	return out
}
