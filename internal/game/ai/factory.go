package ai

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/dice"
)

// Option configures a Factory.
type Option func(*Factory)

// WithScripts lets boss strategies consult Lua hooks through caller.
func WithScripts(caller ScriptCaller) Option {
	return func(f *Factory) { f.scripts = caller }
}

// WithBossPhases replaces DefaultBossPhases.
func WithBossPhases(phases []Phase) Option {
	return func(f *Factory) { f.phases = phases }
}

// WithTuning sets the balance constants strategies estimate damage with.
func WithTuning(t combat.Tuning) Option {
	return func(f *Factory) { f.tuning = t }
}

// Factory builds strategies that share a difficulty and a random source.
type Factory struct {
	difficulty Difficulty
	roller     *dice.Roller
	logger     *zap.Logger
	tuning     combat.Tuning
	scripts    ScriptCaller
	phases     []Phase
}

// NewFactory creates a Factory.
//
// Precondition: src must be non-nil. A nil logger is replaced by zap.NewNop().
func NewFactory(difficulty Difficulty, src dice.Source, logger *zap.Logger, opts ...Option) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Factory{
		difficulty: difficulty,
		roller:     dice.NewLoggedRoller(src, logger),
		logger:     logger,
		tuning:     combat.DefaultTuning(),
		phases:     DefaultBossPhases(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Difficulty returns the factory's difficulty.
func (f *Factory) Difficulty() Difficulty { return f.difficulty }

// Create builds a new strategy of kind. Each call returns an independent
// instance with its own variety memory.
//
// Postcondition: Returns a Strategy, or an error wrapping ErrUnknownKind.
func (f *Factory) Create(kind Kind) (Strategy, error) {
	var s Strategy
	switch kind {
	case KindAggressive:
		s = &aggressive{tuning: f.tuning}
	case KindDefensive:
		s = &defensive{tuning: f.tuning}
	case KindTactical:
		s = &tactical{tuning: f.tuning, memory: newMemory()}
	case KindBoss:
		s = newBoss(f.phases, f.tuning, f.scripts, f.logger)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	return &randomized{
		inner:   s,
		percent: f.difficulty.RandomChance() * 100,
		roller:  f.roller,
		logger:  f.logger,
	}, nil
}

// CreateByName parses name with ParseKind and calls Create.
func (f *Factory) CreateByName(name string) (Strategy, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return f.Create(kind)
}

// randomized makes a uniformly random legal choice percent% of the time.
type randomized struct {
	inner   Strategy
	percent float64
	roller  *dice.Roller
	logger  *zap.Logger
}

func (r *randomized) ChooseAction(self *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error) {
	if err := checkState(self, actions); err != nil {
		return combat.Action{}, err
	}
	if len(actions) == 0 {
		return combat.Defend(self), nil
	}
	if r.roller.Chance("ai:random", r.percent) {
		a := actions[r.roller.Intn(len(actions))]
		r.logger.Debug("random AI choice", zap.String("combatant", self.ID), zap.String("action", a.Key()))
		return a, nil
	}
	return r.inner.ChooseAction(self, enc, actions)
}
