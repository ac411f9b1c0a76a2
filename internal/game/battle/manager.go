// Package battle drives one encounter from start to a terminal phase: it owns
// the encounter state machine, asks players or the AI for actions, resolves
// them and produces the final Result.
package battle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ai"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/status"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/scripting"
)

var (
	// ErrNotStarted is returned by Step before Start.
	ErrNotStarted = errors.New("battle not started")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("battle already started")
	// ErrTerminal is returned by Step once the battle is over.
	ErrTerminal = errors.New("battle is over")
	// ErrNotTerminal is returned by Result while the battle is running.
	ErrNotTerminal = errors.New("battle is not over")
	// ErrInvalidRoster is returned by Start for unusable rosters.
	ErrInvalidRoster = errors.New("invalid roster")
	// ErrAwaitingInput is returned by an InputProvider that has no decision
	// yet. Step passes it through and the same actor is asked again next Step.
	ErrAwaitingInput = errors.New("awaiting player input")
)

// FSM states and events.
const (
	stateNotStarted = "not_started"
	stateInProgress = "in_progress"
	stateVictory    = "victory"
	stateDefeat     = "defeat"
	stateFled       = "fled"

	eventStart = "start"
	eventWin   = "win"
	eventLose  = "lose"
	eventFlee  = "flee"
)

var phaseByState = map[string]combat.Phase{
	stateNotStarted: combat.PhaseNotStarted,
	stateInProgress: combat.PhaseInProgress,
	stateVictory:    combat.PhaseVictory,
	stateDefeat:     combat.PhaseDefeat,
	stateFled:       combat.PhaseFled,
}

// InputProvider supplies the actions of player-controlled combatants.
type InputProvider interface {
	// ChooseAction returns one of actions for actor, or ErrAwaitingInput.
	ChooseAction(actor *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error)
}

// InputFunc adapts a function to InputProvider.
type InputFunc func(actor *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error)

// ChooseAction calls f.
func (f InputFunc) ChooseAction(actor *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error) {
	return f(actor, enc, actions)
}

// Option configures a Manager.
type Option func(*Manager)

// WithInput routes player turns to p. Without it players are driven by the AI
// using their Behavior field.
func WithInput(p InputProvider) Option {
	return func(m *Manager) { m.input = p }
}

// WithBag gives side a battle item bag.
func WithBag(side combat.Side, bag *inventory.Bag) Option {
	return func(m *Manager) { m.bags[side] = bag }
}

// WithTracer replaces the global "battle" tracer.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// WithID sets the battle ID instead of a fresh UUID.
func WithID(id string) Option {
	return func(m *Manager) { m.id = id }
}

// Manager runs one encounter. It is not safe for concurrent use; Registry
// serialises access to the set of managers, not to a manager.
type Manager struct {
	id       string
	machine  *fsm.FSM
	enc      *combat.Encounter
	calc     *combat.Calculator
	actions  *combat.ActionFactory
	ai       *ai.Registry
	statuses *status.Registry
	input    InputProvider
	bags     map[combat.Side]*inventory.Bag
	tracer   trace.Tracer
	logger   *zap.Logger

	order *combat.TurnOrder
	// pending is the actor whose turn has begun but whose action is not yet resolved.
	pending     *combat.Combatant
	fled        bool
	subscribers []func(combat.Event)
	result      *Result
}

// NewManager creates a Manager in the not_started state.
//
// Precondition: calc, strategies and statuses must be non-nil. A nil logger is
// replaced by zap.NewNop().
// Postcondition: Phase() == combat.PhaseNotStarted.
func NewManager(calc *combat.Calculator, strategies *ai.Factory, statuses *status.Registry, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		id:       uuid.NewString(),
		calc:     calc,
		actions:  combat.NewActionFactory(),
		ai:       ai.NewRegistry(strategies),
		statuses: statuses,
		bags:     make(map[combat.Side]*inventory.Bag),
		tracer:   otel.GetTracerProvider().Tracer("battle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.With(zap.String("battle", m.id))
	m.machine = fsm.NewFSM(
		stateNotStarted,
		fsm.Events{
			{Name: eventStart, Src: []string{stateNotStarted}, Dst: stateInProgress},
			{Name: eventWin, Src: []string{stateInProgress}, Dst: stateVictory},
			{Name: eventLose, Src: []string{stateInProgress}, Dst: stateDefeat},
			{Name: eventFlee, Src: []string{stateInProgress}, Dst: stateFled},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if m.enc != nil {
					m.enc.Phase = phaseByState[e.Dst]
				}
				m.logger.Debug("battle phase", zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
	return m
}

// ID returns the battle's unique ID.
func (m *Manager) ID() string { return m.id }

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() combat.Phase {
	return phaseByState[m.machine.Current()]
}

// Encounter returns the live encounter, or nil before Start.
func (m *Manager) Encounter() *combat.Encounter { return m.enc }

// Pending returns the actor waiting for input, if any.
func (m *Manager) Pending() (*combat.Combatant, bool) {
	return m.pending, m.pending != nil
}

// Subscribe registers fn to receive every event from now on, including
// events of a battle not yet started.
func (m *Manager) Subscribe(fn func(combat.Event)) {
	m.subscribers = append(m.subscribers, fn)
	if m.enc != nil {
		m.enc.Log.Subscribe(fn)
	}
}

// Events returns a copy of the event log.
func (m *Manager) Events() []combat.Event {
	if m.enc == nil {
		return nil
	}
	return m.enc.Log.Events()
}

// Start validates the rosters and begins round 1.
//
// Precondition: the manager has not been started.
// Postcondition: on success Phase() == combat.PhaseInProgress and the round 1
// order is computed; on error nothing changed and the error wraps
// ErrInvalidRoster or ErrAlreadyStarted.
func (m *Manager) Start(ctx context.Context, players, enemies []*combat.Combatant, boss bool) error {
	if m.machine.Current() != stateNotStarted {
		return ErrAlreadyStarted
	}
	if err := validateRosters(players, enemies); err != nil {
		return err
	}

	_, span := m.tracer.Start(ctx, "battle.start")
	defer span.End()
	span.SetAttributes(
		attribute.String("battle.id", m.id),
		attribute.Int("party_size", len(players)),
		attribute.Int("enemy_count", len(enemies)),
		attribute.Bool("boss", boss),
	)

	m.enc = combat.NewEncounter(players, enemies, boss, m.statuses)
	for side, bag := range m.bags {
		m.enc.SetBag(side, bag)
	}
	for _, fn := range m.subscribers {
		m.enc.Log.Subscribe(fn)
	}
	if err := m.machine.Event(ctx, eventStart); err != nil {
		return fmt.Errorf("battle: starting: %w", err)
	}
	m.enc.Round = 1

	m.emit(combat.Event{Kind: combat.EventBattleStart, Message: fmt.Sprintf("%d vs %d", len(players), len(enemies))})
	m.logger.Info("battle started",
		zap.Int("players", len(players)),
		zap.Int("enemies", len(enemies)),
		zap.Bool("boss", boss),
	)
	m.beginRound()
	return nil
}

func validateRosters(players, enemies []*combat.Combatant) error {
	var errs []error
	if len(players) == 0 {
		errs = append(errs, errors.New("player roster is empty"))
	}
	if len(enemies) == 0 {
		errs = append(errs, errors.New("enemy roster is empty"))
	}
	seen := make(map[string]bool)
	check := func(roster []*combat.Combatant, side combat.Side) {
		living := 0
		for i, c := range roster {
			if c == nil {
				errs = append(errs, fmt.Errorf("%s[%d] is nil", side, i))
				continue
			}
			if c.Side != side {
				errs = append(errs, fmt.Errorf("%q is on the %s side, listed as %s", c.ID, c.Side, side))
			}
			if seen[c.ID] {
				errs = append(errs, fmt.Errorf("duplicate combatant id %q", c.ID))
			}
			seen[c.ID] = true
			if c.IsAlive() {
				living++
			}
		}
		if len(roster) > 0 && living == 0 {
			errs = append(errs, fmt.Errorf("every %s combatant has fallen", side))
		}
	}
	check(players, combat.SidePlayer)
	check(enemies, combat.SideEnemy)
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	return nil
}

// Step advances exactly one actor's turn.
//
// A player turn whose provider returns ErrAwaitingInput, or whose action is
// invalid, is not consumed: the same actor acts on the next Step and no
// combatant state has changed.
//
// Precondition: Start succeeded.
// Postcondition: returns ErrNotStarted before Start, ErrTerminal after the
// battle ended, an error wrapping combat.ErrInvalidAction for a rejected
// player action, ErrAwaitingInput when input is pending, or nil.
func (m *Manager) Step(ctx context.Context) error {
	switch m.machine.Current() {
	case stateNotStarted:
		return ErrNotStarted
	case stateInProgress:
	default:
		return ErrTerminal
	}

	ctx, span := m.tracer.Start(ctx, "battle.turn")
	defer span.End()

	actor := m.pending
	if actor == nil {
		next, ok := m.nextActor()
		if !ok {
			return m.checkTerminal(ctx)
		}
		actor = next
		if resolved, err := m.beginTurn(ctx, actor); resolved {
			span.SetAttributes(attribute.String("actor", actor.ID), attribute.Bool("skipped", true))
			return err
		}
		m.pending = actor
	}
	span.SetAttributes(
		attribute.String("actor", actor.ID),
		attribute.Int("round", m.enc.Round),
	)

	act, err := m.choose(actor)
	if err != nil {
		return err
	}

	outcomes, err := act.Execute(m.enc, m.calc)
	if err != nil {
		// Validate passed, so this is a defect in the action itself.
		m.logger.Warn("action failed after validation", zap.String("action", act.Key()), zap.Error(err))
		act = combat.Defend(actor)
		outcomes, _ = act.Execute(m.enc, m.calc)
	}
	m.pending = nil

	dealt := 0
	for i := range outcomes {
		o := outcomes[i]
		dealt += o.Dealt
		m.emit(combat.Event{Kind: combat.EventActionResolved, ActorID: actor.ID, Action: act.Kind, Outcome: &o})
		if o.TargetFell {
			m.emit(combat.Event{Kind: combat.EventFallen, ActorID: o.TargetID})
		}
		if o.Fled {
			m.fled = true
		}
	}
	span.SetAttributes(
		attribute.String("action", act.Key()),
		attribute.Int("damage", dealt),
	)
	m.logger.Debug("action resolved",
		zap.String("actor", actor.ID),
		zap.String("action", act.Key()),
		zap.Int("outcomes", len(outcomes)),
		zap.Int("damage", dealt),
	)

	if m.terminalPhase() != combat.PhaseInProgress {
		return m.checkTerminal(ctx)
	}
	m.endTurn(actor)
	return m.checkTerminal(ctx)
}

// beginTurn runs the start of actor's turn. It reports true when the turn is
// already over: skipped by a blocking status or ended by a lethal tick. The
// error is from ending the battle, if that happened.
func (m *Manager) beginTurn(ctx context.Context, actor *combat.Combatant) (bool, error) {
	actor.Defending = false
	m.emit(combat.Event{Kind: combat.EventTurnStart, ActorID: actor.ID})

	blocker, blocked := actor.TurnBlocker()
	m.tick(actor, status.TimingStartOfTurn)
	if !actor.IsAlive() {
		return true, m.checkTerminal(ctx)
	}
	if blocked {
		m.emit(combat.Event{Kind: combat.EventTurnSkipped, ActorID: actor.ID, Message: blocker})
		m.logger.Debug("turn skipped", zap.String("actor", actor.ID), zap.String("status", blocker))
		m.endTurn(actor)
		return true, m.checkTerminal(ctx)
	}
	return false, nil
}

func (m *Manager) endTurn(actor *combat.Combatant) {
	if actor.IsAlive() {
		m.tick(actor, status.TimingEndOfTurn)
	}
}

func (m *Manager) tick(actor *combat.Combatant, timing status.Timing) {
	for _, t := range actor.TickStatuses(timing) {
		t := t
		m.emit(combat.Event{Kind: combat.EventStatusTick, ActorID: actor.ID, Tick: &t})
	}
	if !actor.IsAlive() {
		m.emit(combat.Event{Kind: combat.EventFallen, ActorID: actor.ID, Message: "status"})
	}
}

// choose obtains a validated action for actor.
func (m *Manager) choose(actor *combat.Combatant) (combat.Action, error) {
	available := m.actions.Available(actor, m.enc)

	if actor.Side == combat.SidePlayer && m.input != nil {
		act, err := m.input.ChooseAction(actor, m.enc, available)
		if err != nil {
			if errors.Is(err, ErrAwaitingInput) {
				return combat.Action{}, err
			}
			return combat.Action{}, fmt.Errorf("battle: input for %q: %w", actor.ID, err)
		}
		if act.Actor != actor {
			err = fmt.Errorf("%w: action belongs to another combatant", combat.ErrInvalidAction)
		} else {
			err = act.Validate(m.enc)
		}
		if err != nil {
			m.emit(combat.Event{Kind: combat.EventActionRejected, ActorID: actor.ID, Action: act.Kind, Message: err.Error()})
			m.logger.Info("action rejected", zap.String("actor", actor.ID), zap.String("action", act.Key()), zap.Error(err))
			return combat.Action{}, fmt.Errorf("battle: %w", err)
		}
		return act, nil
	}

	strategy, err := m.ai.For(actor)
	var act combat.Action
	if err == nil {
		act, err = strategy.ChooseAction(actor, m.enc, available)
	}
	if err == nil {
		err = act.Validate(m.enc)
	}
	if err != nil {
		m.logger.Warn("AI fallback to defend", zap.String("actor", actor.ID), zap.Error(err))
		m.emit(combat.Event{Kind: combat.EventAIFallback, ActorID: actor.ID, Message: err.Error()})
		return combat.Defend(actor), nil
	}
	return act, nil
}

// nextActor returns the next living actor, starting new rounds as needed.
func (m *Manager) nextActor() (*combat.Combatant, bool) {
	for attempts := 0; attempts < 2; attempts++ {
		if actor, ok := m.order.Next(); ok {
			m.enc.Turn = m.order.Index() - 1
			return actor, true
		}
		m.enc.Round++
		m.beginRound()
	}
	return nil, false
}

func (m *Manager) beginRound() {
	m.order = combat.NewTurnOrder(m.enc.Round, m.enc.Players, m.enc.Enemies)
	m.enc.Turn = 0
	m.emit(combat.Event{Kind: combat.EventRoundStart, Message: fmt.Sprintf("%d actors", len(m.order.Order()))})
}

// terminalPhase classifies the encounter without changing it.
func (m *Manager) terminalPhase() combat.Phase {
	switch {
	case m.enc.AllFallen(combat.SideEnemy):
		return combat.PhaseVictory
	case m.enc.AllFallen(combat.SidePlayer):
		return combat.PhaseDefeat
	case m.fled:
		return combat.PhaseFled
	default:
		return combat.PhaseInProgress
	}
}

// checkTerminal moves the state machine to a terminal state if one is reached.
func (m *Manager) checkTerminal(ctx context.Context) error {
	var event string
	switch m.terminalPhase() {
	case combat.PhaseVictory:
		event = eventWin
	case combat.PhaseDefeat:
		event = eventLose
	case combat.PhaseFled:
		event = eventFlee
	default:
		return nil
	}
	if err := m.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("battle: ending: %w", err)
	}
	m.pending = nil

	_, span := m.tracer.Start(ctx, "battle.end")
	span.SetAttributes(
		attribute.String("outcome", m.enc.Phase.String()),
		attribute.Int("rounds", m.enc.Round),
	)
	span.End()

	m.emit(combat.Event{Kind: combat.EventBattleEnd, Phase: m.enc.Phase})
	m.logger.Info("battle ended",
		zap.String("outcome", m.enc.Phase.String()),
		zap.Int("rounds", m.enc.Round),
		zap.Int("events", m.enc.Log.Len()),
	)
	return nil
}

func (m *Manager) emit(e combat.Event) {
	e.Round = m.enc.Round
	if e.Phase == combat.PhaseNotStarted {
		e.Phase = m.enc.Phase
	}
	m.enc.Log.Append(e)
}

// Result returns the battle's outcome and rewards. It is computed once, on
// the first call after the battle ends; later calls return the same value.
//
// Postcondition: returns ErrNotTerminal while the battle is running. Defeat
// and flight award nothing.
func (m *Manager) Result() (Result, error) {
	if !m.Phase().Terminal() {
		return Result{}, ErrNotTerminal
	}
	if m.result != nil {
		return *m.result, nil
	}

	r := Result{
		BattleID: m.id,
		Outcome:  m.enc.Phase,
		Rounds:   m.enc.Round,
		Shares:   map[string]int{},
	}
	for _, p := range m.enc.Players {
		if p.IsAlive() {
			r.Survivors = append(r.Survivors, p.Snapshot())
		}
	}
	var defeated []*combat.Combatant
	for _, e := range m.enc.Enemies {
		if !e.IsAlive() {
			defeated = append(defeated, e)
			r.Defeated = append(r.Defeated, e.ID)
		}
	}
	if r.Victory() {
		r.Experience, r.Berries, r.Drops = rollRewards(defeated, m.calc.Roller(), m.logger)
		r.Shares = shares(r.Experience, r.Survivors)
	}
	m.result = &r
	return r, nil
}

// CombatantInfo describes combatant id for Lua scripts. Assign it to
// scripting.Manager.GetCombatant to let boss hooks read this battle.
//
// Postcondition: returns nil for unknown IDs or before Start.
func (m *Manager) CombatantInfo(id string) *scripting.CombatantInfo {
	if m.enc == nil {
		return nil
	}
	c, ok := m.enc.Find(id)
	if !ok {
		return nil
	}
	s := c.Snapshot()
	return &scripting.CombatantInfo{
		ID:       s.ID,
		Name:     s.Name,
		Side:     s.Side.String(),
		Level:    s.Level,
		HP:       s.HP,
		MaxHP:    s.MaxHP,
		AP:       s.AP,
		MaxAP:    s.MaxAP,
		Statuses: s.Statuses,
	}
}
