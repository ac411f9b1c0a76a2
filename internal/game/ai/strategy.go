// Package ai chooses actions for enemy combatants.
//
// A Strategy ranks the legal actions the combat package offers and returns
// one of them. Strategies are built by a Factory that fixes the difficulty
// and the random source, so an encounter replays identically under a seed.
package ai

import (
	"errors"
	"fmt"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// ErrIllegalAIState is returned when a strategy is asked to choose for a
// combatant that cannot act, or is handed actions belonging to someone else.
var ErrIllegalAIState = errors.New("illegal AI state")

// ErrUnknownKind is returned for an unrecognised behavior or difficulty name.
var ErrUnknownKind = errors.New("unknown AI kind")

// Strategy selects an enemy's action.
type Strategy interface {
	// ChooseAction returns an element of actions, or a defend action for self
	// when actions is empty.
	//
	// Precondition: every action's Actor is self.
	ChooseAction(self *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error)
}

// Kind names a behavior.
type Kind int

const (
	KindAggressive Kind = iota
	KindDefensive
	KindTactical
	KindBoss
)

// String returns the behavior name used in content files.
func (k Kind) String() string {
	switch k {
	case KindAggressive:
		return "aggressive"
	case KindDefensive:
		return "defensive"
	case KindTactical:
		return "tactical"
	case KindBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// ParseKind maps a behavior name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "aggressive":
		return KindAggressive, nil
	case "defensive":
		return KindDefensive, nil
	case "tactical":
		return KindTactical, nil
	case "boss":
		return KindBoss, nil
	default:
		return 0, fmt.Errorf("%w: behavior %q", ErrUnknownKind, name)
	}
}

// Difficulty controls how often enemies act at random instead of optimally.
type Difficulty int

const (
	DifficultyNormal Difficulty = iota
	DifficultyEasy
	DifficultyHard
)

// ParseDifficulty maps "easy", "normal" or "hard" to a Difficulty.
func ParseDifficulty(name string) (Difficulty, error) {
	switch name {
	case "easy":
		return DifficultyEasy, nil
	case "normal", "":
		return DifficultyNormal, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return 0, fmt.Errorf("%w: difficulty %q", ErrUnknownKind, name)
	}
}

// String returns the difficulty name.
func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyHard:
		return "hard"
	default:
		return "normal"
	}
}

// RandomChance returns the probability in [0, 1] that a strategy picks a
// uniformly random legal action.
func (d Difficulty) RandomChance() float64 {
	switch d {
	case DifficultyEasy:
		return 0.4
	case DifficultyHard:
		return 0.1
	default:
		return 0.2
	}
}

func checkState(self *combat.Combatant, actions []combat.Action) error {
	if self == nil {
		return fmt.Errorf("%w: no combatant", ErrIllegalAIState)
	}
	if !self.IsAlive() {
		return fmt.Errorf("%w: %s has fallen", ErrIllegalAIState, self.ID)
	}
	for _, a := range actions {
		if a.Actor != self {
			return fmt.Errorf("%w: action %s does not belong to %s", ErrIllegalAIState, a.Key(), self.ID)
		}
	}
	return nil
}

// fallback returns the defend action if offered, otherwise the first action.
func fallback(self *combat.Combatant, actions []combat.Action) combat.Action {
	for _, a := range actions {
		if a.Kind == combat.ActionDefend {
			return a
		}
	}
	if len(actions) == 0 {
		return combat.Defend(self)
	}
	return actions[0]
}
