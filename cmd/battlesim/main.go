// Package main provides the battle simulator. It plays the configured party
// against one or more encounters, prints the battle log or a batch summary,
// and optionally archives each battle in PostgreSQL. The party is driven by
// the AI unless -interactive is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/config"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/character"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/observability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/server"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/sim"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	encounters := flag.String("encounter", "", "comma-separated encounter IDs; empty = every encounter")
	battles := flag.Int("battles", 1, "battles per encounter")
	workers := flag.Int("workers", 4, "concurrent battles in batch mode")
	seed := flag.Uint64("seed", 0, "overrides battle.seed when non-zero")
	difficulty := flag.String("difficulty", "", "overrides battle.difficulty when set")
	save := flag.Bool("save", false, "write rewards back to the party file after a single battle")
	progress := flag.Duration("progress", 5*time.Second, "batch progress log interval")
	interactive := flag.Bool("interactive", false, "read the party's moves from stdin in a single battle")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Battle.Seed = *seed
	}
	if *difficulty != "" {
		cfg.Battle.Difficulty = *difficulty
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	shutdown, err := observability.SetupTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Fatal("setting up tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	content, err := sim.LoadContent(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	party, err := character.LoadParty(cfg.Content.Party)
	if err != nil {
		logger.Fatal("loading party", zap.Error(err))
	}

	var opts []sim.Option
	if cfg.Archive.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		opts = append(opts, sim.WithArchive(postgres.NewReportRepository(pool.DB())))
	}
	if *interactive {
		opts = append(opts, sim.WithInput(newConsole(os.Stdin, os.Stdout)))
	}
	runner, err := sim.NewRunner(content, cfg.Battle, logger, opts...)
	if err != nil {
		logger.Fatal("creating runner", zap.Error(err))
	}

	ids := content.EncounterIDs()
	if *encounters != "" {
		ids = strings.Split(*encounters, ",")
	}
	logger.Info("starting battle simulator",
		zap.Strings("encounters", ids),
		zap.Int("battles", *battles),
		zap.String("difficulty", cfg.Battle.Difficulty),
		zap.Uint64("seed", cfg.Battle.Seed),
		zap.Duration("startup", time.Since(start)),
	)

	lc := server.NewLifecycle(logger)
	if len(ids) == 1 && *battles == 1 {
		lc.Add("battle", server.FuncService(func(ctx context.Context) error {
			out, err := runner.Run(ctx, party, ids[0], 0)
			if err != nil {
				return err
			}
			printBattle(os.Stdout, out)
			if *save {
				return saveParty(cfg.Content.Party, party)
			}
			return nil
		}))
	} else {
		lc.Add("batch", server.FuncService(func(ctx context.Context) error {
			sum, err := runner.RunBatch(ctx, party, ids, *battles, *workers)
			if err != nil {
				return err
			}
			printSummary(os.Stdout, sum)
			return nil
		}))
		lc.Add("progress", server.Ticker(*progress, func() {
			logger.Info("battles in flight", zap.Int("active", runner.Active()))
		}))
	}
	if err := lc.Run(ctx); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func printBattle(w io.Writer, out *sim.Outcome) {
	name := func(id string) string {
		if n, ok := out.Names[id]; ok {
			return n
		}
		return id
	}
	for _, e := range out.Events {
		if line := describe(e, name); line != "" {
			fmt.Fprintf(w, "[round %d] %s\n", e.Round, line)
		}
	}

	res := out.Result
	fmt.Fprintf(w, "\n%s: %s after %d rounds\n", out.Encounter, strings.ToUpper(res.Outcome.String()), res.Rounds)
	if !res.Victory() {
		return
	}
	fmt.Fprintf(w, "experience %d, %s\n", res.Experience, inventory.FormatBerries(res.Berries))
	for _, d := range res.Drops {
		fmt.Fprintf(w, "  %s dropped %s x%d\n", name(d.From), d.ItemID, d.Quantity)
	}
	for _, up := range out.LevelUps {
		fmt.Fprintf(w, "  %s reached level %d\n", up.Name, up.To)
	}
}

func describe(e combat.Event, name func(string) string) string {
	switch e.Kind {
	case combat.EventBattleStart:
		return "battle begins"
	case combat.EventTurnSkipped:
		return fmt.Sprintf("%s cannot act (%s)", name(e.ActorID), e.Message)
	case combat.EventAIFallback:
		return fmt.Sprintf("%s hesitates and defends", name(e.ActorID))
	case combat.EventFallen:
		return fmt.Sprintf("%s falls!", name(e.ActorID))
	case combat.EventStatusTick:
		if e.Tick == nil || e.Tick.HPDelta == 0 {
			return ""
		}
		if e.Tick.HPDelta < 0 {
			return fmt.Sprintf("%s takes %d from %s", name(e.ActorID), -e.Tick.HPDelta, e.Tick.ID)
		}
		return fmt.Sprintf("%s recovers %d from %s", name(e.ActorID), e.Tick.HPDelta, e.Tick.ID)
	case combat.EventActionResolved:
		return describeOutcome(e, name)
	case combat.EventBattleEnd:
		return "battle ends: " + e.Phase.String()
	default:
		return ""
	}
}

func describeOutcome(e combat.Event, name func(string) string) string {
	o := e.Outcome
	if o == nil {
		return fmt.Sprintf("%s: %s", name(e.ActorID), e.Action)
	}
	actor, target := name(o.ActorID), name(o.TargetID)
	switch {
	case o.Fled:
		return actor + " escapes"
	case e.Action == combat.ActionFlee:
		return actor + " fails to escape"
	case e.Action == combat.ActionDefend:
		return actor + " defends"
	case o.Revived:
		return fmt.Sprintf("%s revives %s with %s", actor, target, o.Name)
	case o.Healing > 0 || o.APRestored > 0:
		return fmt.Sprintf("%s uses %s on %s: +%d HP, +%d AP", actor, o.Name, target, o.Healing, o.APRestored)
	case o.Intangible:
		return fmt.Sprintf("%s's %s passes through %s", actor, o.Name, target)
	case !o.Hit && o.TargetID != "" && o.Status == nil && !o.Stunned:
		return fmt.Sprintf("%s's %s misses %s", actor, o.Name, target)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s uses %s on %s", actor, o.Name, target)
	if o.Dealt > 0 {
		fmt.Fprintf(&b, " for %d", o.Dealt)
		if o.Critical {
			b.WriteString(" (critical)")
		}
	}
	if o.Status != nil {
		fmt.Fprintf(&b, ", inflicting %s", o.Status.ID)
	}
	if o.Stunned {
		b.WriteString(", stunning them")
	}
	if len(o.Cured) > 0 {
		fmt.Fprintf(&b, ", curing %s", strings.Join(o.Cured, " and "))
	}
	return b.String()
}

func printSummary(w io.Writer, sum sim.Summary) {
	fmt.Fprintf(w, "%d battles, win rate %.1f%%, average %.1f rounds\n", sum.Battles, sum.WinRate()*100, sum.AverageRounds())
	phases := make([]combat.Phase, 0, len(sum.Outcomes))
	for p := range sum.Outcomes {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i] < phases[j] })
	for _, p := range phases {
		fmt.Fprintf(w, "  %-8s %d\n", p, sum.Outcomes[p])
	}
	fmt.Fprintf(w, "experience %d, %s\n", sum.Experience, inventory.FormatBerries(sum.Berries))

	perEncounter := make(map[string][2]int)
	for _, o := range sum.Results {
		v := perEncounter[o.Encounter]
		v[1]++
		if o.Result.Victory() {
			v[0]++
		}
		perEncounter[o.Encounter] = v
	}
	names := make([]string, 0, len(perEncounter))
	for n := range perEncounter {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		v := perEncounter[n]
		fmt.Fprintf(w, "  %-16s %d/%d won\n", n, v[0], v[1])
	}
}

func saveParty(path string, p *character.Party) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding party: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing party %q: %w", path, err)
	}
	return nil
}
