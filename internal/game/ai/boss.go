package ai

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// ChooseActionHook is the Lua function a boss script may define. It receives
// the boss ID, its HP percentage and the round number, and returns an
// ability ID or an action kind name ("attack", "defend", ...), or nil.
const ChooseActionHook = "choose_action"

// ScriptCaller is the interface required by the boss strategy to consult Lua hooks.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the VM for scope.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// Phase is one stage of a boss fight.
type Phase struct {
	// Below is the HP percentage at or under which the phase applies.
	Below    float64  `yaml:"below"`
	Behavior string   `yaml:"behavior"`
	Prefer   []string `yaml:"prefer"`
}

// DefaultBossPhases open aggressively, turn tactical at half HP and go all
// out at a quarter.
func DefaultBossPhases() []Phase {
	return []Phase{
		{Below: 100, Behavior: "aggressive"},
		{Below: 50, Behavior: "tactical"},
		{Below: 25, Behavior: "aggressive"},
	}
}

// ValidatePhases checks that every phase names a non-boss behavior and a
// threshold within (0, 100].
func ValidatePhases(phases []Phase) error {
	for i, p := range phases {
		if p.Below <= 0 || p.Below > 100 {
			return fmt.Errorf("boss phase %d: below must be within (0, 100], got %g", i, p.Below)
		}
		k, err := ParseKind(p.Behavior)
		if err != nil {
			return fmt.Errorf("boss phase %d: %w", i, err)
		}
		if k == KindBoss {
			return fmt.Errorf("boss phase %d: behavior must not be boss", i)
		}
	}
	return nil
}

// boss switches behavior by HP phase, honours preferred abilities, and lets a
// Lua hook override the choice when the hook names a legal action.
type boss struct {
	phases    []Phase
	behaviors map[Kind]Strategy
	memory    *memory
	scripts   ScriptCaller
	logger    *zap.Logger
}

func newBoss(phases []Phase, tuning combat.Tuning, scripts ScriptCaller, logger *zap.Logger) *boss {
	sorted := make([]Phase, len(phases))
	copy(sorted, phases)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Below > sorted[j].Below })
	mem := newMemory()
	return &boss{
		phases: sorted,
		behaviors: map[Kind]Strategy{
			KindAggressive: &aggressive{tuning: tuning},
			KindDefensive:  &defensive{tuning: tuning},
			KindTactical:   &tactical{tuning: tuning, memory: mem},
		},
		memory:  mem,
		scripts: scripts,
		logger:  logger,
	}
}

// phase returns the deepest phase whose threshold the boss has reached.
func (s *boss) phase(hpPercent float64) (Phase, bool) {
	var cur Phase
	found := false
	for _, p := range s.phases {
		if hpPercent <= p.Below {
			cur, found = p, true
		}
	}
	return cur, found
}

func (s *boss) ChooseAction(self *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error) {
	if err := checkState(self, actions); err != nil {
		return combat.Action{}, err
	}
	if len(actions) == 0 {
		return combat.Defend(self), nil
	}
	ws := BuildState(self, enc)

	if a, ok := s.scripted(self, ws, actions); ok {
		s.memory.record(a)
		return a, nil
	}

	p, ok := s.phase(self.HPPercent())
	if !ok {
		p = Phase{Behavior: KindAggressive.String()}
	}
	candidates := s.memory.fresh(actions)
	for _, id := range p.Prefer {
		if a, ok := s.match(ws, candidates, id); ok {
			s.memory.record(a)
			return a, nil
		}
	}

	kind, err := ParseKind(p.Behavior)
	if err != nil || kind == KindBoss {
		kind = KindAggressive
	}
	a, err := s.behaviors[kind].ChooseAction(self, enc, candidates)
	if err != nil {
		return combat.Action{}, err
	}
	if kind != KindTactical {
		s.memory.record(a)
	}
	return a, nil
}

// scripted consults the boss's Lua hook. Hook errors are logged and ignored.
func (s *boss) scripted(self *combat.Combatant, ws *WorldState, actions []combat.Action) (combat.Action, bool) {
	if s.scripts == nil || self.Script == "" {
		return combat.Action{}, false
	}
	ret, err := s.scripts.CallHook(self.Script, ChooseActionHook,
		lua.LString(self.ID), lua.LNumber(self.HPPercent()), lua.LNumber(ws.Round))
	if err != nil {
		s.logger.Warn("boss hook failed", zap.String("combatant", self.ID), zap.String("script", self.Script), zap.Error(err))
		return combat.Action{}, false
	}
	name, ok := ret.(lua.LString)
	if !ok || name == "" {
		return combat.Action{}, false
	}
	a, ok := s.match(ws, actions, string(name))
	if !ok {
		s.logger.Debug("boss hook named an unavailable action", zap.String("combatant", self.ID), zap.String("choice", string(name)))
	}
	return a, ok
}

// match finds the action named by an ability ID or an action kind name,
// preferring the one aimed at the weakest foe.
func (s *boss) match(ws *WorldState, actions []combat.Action, name string) (combat.Action, bool) {
	var found []combat.Action
	for _, a := range actions {
		if a.AbilityID == name || (a.AbilityID == "" && a.ItemID == "" && a.Kind.String() == name) {
			found = append(found, a)
		}
	}
	if len(found) == 0 {
		return combat.Action{}, false
	}
	if focus := ws.WeakestFoe(); focus != nil {
		for _, a := range found {
			if targets(a, focus.ID) {
				return a, true
			}
		}
	}
	return found[0], true
}
