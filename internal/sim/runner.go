package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/config"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ai"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/battle"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/character"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/dice"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/observability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/scripting"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/storage/postgres"
)

// ErrTurnLimit is returned when a battle does not end within the configured
// number of turns.
var ErrTurnLimit = errors.New("battle exceeded turn limit")

// Archive stores finished battles. *postgres.ReportRepository satisfies it.
type Archive interface {
	Create(ctx context.Context, rep *postgres.Report) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithArchive stores every finished battle in a.
func WithArchive(a Archive) Option {
	return func(r *Runner) { r.archive = a }
}

// WithSource makes every battle draw from src instead of a per-battle source.
// Intended for tests; src must be safe for concurrent use when batches run
// with more than one worker.
func WithSource(src dice.Source) Option {
	return func(r *Runner) { r.source = src }
}

// WithObserver registers fn for the event stream of every battle.
func WithObserver(fn func(battleID string, e combat.Event)) Option {
	return func(r *Runner) { r.observer = fn }
}

// WithInput lets p choose the player side's actions in battles started by
// Run. Batches stay fully AI-driven.
func WithInput(p battle.InputProvider) Option {
	return func(r *Runner) { r.input = p }
}

// Runner plays battles between a party and catalog encounters. The AI drives
// every combatant unless an input provider is set for Run.
type Runner struct {
	content    *Content
	difficulty ai.Difficulty
	tuning     combat.Tuning
	seed       uint64
	maxTurns   int
	archive    Archive
	source     dice.Source
	observer   func(string, combat.Event)
	input      battle.InputProvider
	battles    *battle.Registry
	logger     *zap.Logger
}

// NewRunner creates a Runner.
//
// Precondition: content must be non-nil; cfg must have passed config.Validate.
// Postcondition: Returns a Runner, or an error if cfg names an unknown difficulty.
func NewRunner(content *Content, cfg config.BattleConfig, logger *zap.Logger, opts ...Option) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	diff, err := ai.ParseDifficulty(cfg.Difficulty)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		content:    content,
		difficulty: diff,
		tuning:     cfg.Tuning.ToTuning(),
		seed:       cfg.Seed,
		maxTurns:   cfg.MaxTurns,
		battles:    battle.NewRegistry(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Active returns the number of battles currently in flight.
func (r *Runner) Active() int { return r.battles.Len() }

// Outcome is the record of one simulated battle.
type Outcome struct {
	Encounter string
	Result    battle.Result
	Events    []combat.Event
	// Names maps every combatant ID in the battle to its display name.
	Names map[string]string
	// Party holds the final snapshots of every player combatant, fallen or not.
	Party []combat.Snapshot
	// LevelUps is only filled by Run.
	LevelUps []character.LevelUp
}

// Run plays one battle of party against the encounter and credits the
// rewards to the party. Items used in battle are removed from the party and
// the members keep the HP and AP they finished with.
//
// Precondition: party must have passed Validate.
// Postcondition: Returns the finished battle, or an error if it could not be
// set up, exceeded the turn limit or failed to archive.
func (r *Runner) Run(ctx context.Context, party *character.Party, encounterID string, index int) (*Outcome, error) {
	out, err := r.play(ctx, party, encounterID, index, true)
	if err != nil {
		return nil, err
	}
	party.UpdateVitals(out.Party)
	drops := make([]character.ItemStack, 0, len(out.Result.Drops))
	for _, d := range out.Result.Drops {
		drops = append(drops, character.ItemStack{Item: d.ItemID, Quantity: d.Quantity})
	}
	out.LevelUps = party.Award(out.Result.Shares, out.Result.Berries, drops)
	for _, up := range out.LevelUps {
		r.logger.Info("level up", zap.String("member", up.Name), zap.Int("from", up.From), zap.Int("to", up.To))
	}
	return out, nil
}

func (r *Runner) play(ctx context.Context, party *character.Party, encounterID string, index int, track bool) (*Outcome, error) {
	start := time.Now()
	players, bag, err := character.Build(party, r.content.Abilities, r.content.Items)
	if err != nil {
		return nil, err
	}
	if track {
		bag.SetNotifier(party)
	}
	spawned, err := r.content.Catalog.Spawn(encounterID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	blog := observability.BattleLogger(r.logger, id, encounterID)
	src := r.sourceFor(index)
	calc := combat.NewCalculator(src, r.tuning, blog)
	scripts := scripting.NewManager(calc.Roller(), blog.Named("lua"))
	defer scripts.Close()
	if r.content.ScriptsDir != "" {
		if _, err := scripts.LoadDirectory(r.content.ScriptsDir, r.content.ScriptLimit); err != nil {
			return nil, err
		}
	}
	strategies := ai.NewFactory(r.difficulty, src, blog, ai.WithScripts(scripts), ai.WithTuning(r.tuning))

	opts := []battle.Option{
		battle.WithID(id),
		battle.WithBag(combat.SidePlayer, bag),
		battle.WithTracer(observability.Tracer("battle")),
	}
	if track && r.input != nil {
		opts = append(opts, battle.WithInput(r.input))
	}
	mgr := battle.NewManager(calc, strategies, r.content.Statuses, r.logger, opts...)
	scripts.GetCombatant = mgr.CombatantInfo
	if r.observer != nil {
		mgr.Subscribe(func(e combat.Event) { r.observer(id, e) })
	}
	r.battles.Add(mgr)
	defer r.battles.Remove(mgr.ID())

	if err := mgr.Start(ctx, players, spawned.Enemies, spawned.Boss); err != nil {
		return nil, err
	}
	for turns := 0; !mgr.Phase().Terminal(); turns++ {
		if r.maxTurns > 0 && turns >= r.maxTurns {
			return nil, fmt.Errorf("%w: battle %s after %d turns", ErrTurnLimit, mgr.ID(), turns)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := mgr.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, battle.ErrAwaitingInput), errors.Is(err, combat.ErrInvalidAction):
			// The turn was not consumed; the same actor is asked again.
			r.logger.Debug("player turn repeated", zap.String("battle_id", id), zap.Error(err))
		default:
			return nil, fmt.Errorf("battle %s: %w", mgr.ID(), err)
		}
	}

	res, err := mgr.Result()
	if err != nil {
		return nil, err
	}
	out := &Outcome{Encounter: encounterID, Result: res, Events: mgr.Events(), Names: make(map[string]string)}
	for _, c := range mgr.Encounter().All() {
		out.Names[c.ID] = c.Name
	}
	for _, c := range mgr.Encounter().Roster(combat.SidePlayer) {
		out.Party = append(out.Party, c.Snapshot())
	}
	if r.archive != nil {
		rep, err := postgres.NewReport(res, encounterID, out.Events)
		if err != nil {
			return nil, err
		}
		if err := r.archive.Create(ctx, rep); err != nil {
			return nil, fmt.Errorf("archiving battle %s: %w", res.BattleID, err)
		}
	}
	r.logger.Info("battle finished",
		zap.String("battle_id", res.BattleID),
		zap.String("encounter", encounterID),
		zap.Stringer("outcome", res.Outcome),
		zap.Int("rounds", res.Rounds),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// sourceFor returns the randomness for the index-th battle: the shared test
// source, seed+index when a seed is configured, or crypto randomness.
func (r *Runner) sourceFor(index int) dice.Source {
	switch {
	case r.source != nil:
		return r.source
	case r.seed != 0:
		return dice.NewSeededSource(r.seed + uint64(index))
	default:
		return dice.NewCryptoSource()
	}
}

// Summary aggregates a batch of battles.
type Summary struct {
	Battles    int
	Outcomes   map[combat.Phase]int
	Rounds     int
	Experience int
	Berries    int
	Results    []*Outcome
}

// AverageRounds returns the mean battle length, or 0 for an empty batch.
func (s Summary) AverageRounds() float64 {
	if s.Battles == 0 {
		return 0
	}
	return float64(s.Rounds) / float64(s.Battles)
}

// WinRate returns the fraction of battles won, or 0 for an empty batch.
func (s Summary) WinRate() float64 {
	if s.Battles == 0 {
		return 0
	}
	return float64(s.Outcomes[combat.PhaseVictory]) / float64(s.Battles)
}

// RunBatch plays n battles per encounter on up to workers goroutines. The
// party is only read: rewards are reported, not credited.
//
// Precondition: party must have passed Validate; n > 0.
// Postcondition: On success the summary covers n*len(encounterIDs) battles,
// ordered by encounter then index. The first failure cancels the rest.
func (r *Runner) RunBatch(ctx context.Context, party *character.Party, encounterIDs []string, n, workers int) (Summary, error) {
	if n <= 0 {
		return Summary{}, fmt.Errorf("battle count must be > 0, got %d", n)
	}
	if workers <= 0 {
		workers = 1
	}
	party.AssignIDs()

	total := n * len(encounterIDs)
	results := make([]*Outcome, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < total; i++ {
		enc := encounterIDs[i/n]
		g.Go(func() error {
			out, err := r.play(gctx, party, enc, i, false)
			if err != nil {
				return fmt.Errorf("encounter %q battle %d: %w", enc, i%n, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summarize(results), nil
}

func summarize(results []*Outcome) Summary {
	s := Summary{Outcomes: make(map[combat.Phase]int), Results: results}
	for _, o := range results {
		s.Battles++
		s.Outcomes[o.Result.Outcome]++
		s.Rounds += o.Result.Rounds
		s.Experience += o.Result.Experience
		s.Berries += o.Result.Berries
	}
	return s
}

// EncounterIDs returns the catalog's encounter IDs in sorted order.
func (c *Content) EncounterIDs() []string {
	defs := c.Catalog.Encounters()
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return ids
}
