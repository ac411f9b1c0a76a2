package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/battle"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// ErrReportNotFound is returned when a report lookup yields no results.
var ErrReportNotFound = errors.New("battle report not found")

// ErrReportExists is returned when a battle has already been archived.
var ErrReportExists = errors.New("battle report already exists")

// Report is one archived battle.
type Report struct {
	ID          string
	BattleID    string
	EncounterID string
	Outcome     string
	Rounds      int
	Experience  int
	Berries     int
	// Drops, Survivors and Events are JSON documents.
	Drops     json.RawMessage
	Survivors json.RawMessage
	Events    json.RawMessage
	CreatedAt time.Time
}

// ReportEvent is the archived form of one combat event.
type ReportEvent struct {
	Seq      int    `json:"seq"`
	Round    int    `json:"round"`
	Kind     string `json:"kind"`
	Actor    string `json:"actor,omitempty"`
	Action   string `json:"action,omitempty"`
	Target   string `json:"target,omitempty"`
	Dealt    int    `json:"dealt,omitempty"`
	Healing  int    `json:"healing,omitempty"`
	Critical bool   `json:"critical,omitempty"`
	Status   string `json:"status,omitempty"`
	HPDelta  int    `json:"hp_delta,omitempty"`
	Message  string `json:"message,omitempty"`
}

type reportDrop struct {
	Item       string `json:"item"`
	InstanceID string `json:"instance_id"`
	Quantity   int    `json:"quantity"`
	From       string `json:"from"`
}

type reportSurvivor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
	Share int    `json:"experience"`
}

// NewReport builds the archive record of a finished battle.
//
// Postcondition: Returns a Report with a fresh UUID and JSON documents that
// unmarshal into arrays, or a marshalling error.
func NewReport(res battle.Result, encounterID string, events []combat.Event) (*Report, error) {
	drops := make([]reportDrop, 0, len(res.Drops))
	for _, d := range res.Drops {
		drops = append(drops, reportDrop{Item: d.ItemID, InstanceID: d.InstanceID, Quantity: d.Quantity, From: d.From})
	}
	survivors := make([]reportSurvivor, 0, len(res.Survivors))
	for _, s := range res.Survivors {
		survivors = append(survivors, reportSurvivor{ID: s.ID, Name: s.Name, HP: s.HP, MaxHP: s.MaxHP, Share: res.Shares[s.ID]})
	}
	evs := make([]ReportEvent, 0, len(events))
	for _, e := range events {
		evs = append(evs, archiveEvent(e))
	}

	r := &Report{
		ID:          uuid.NewString(),
		BattleID:    res.BattleID,
		EncounterID: encounterID,
		Outcome:     res.Outcome.String(),
		Rounds:      res.Rounds,
		Experience:  res.Experience,
		Berries:     res.Berries,
	}
	var err error
	if r.Drops, err = json.Marshal(drops); err != nil {
		return nil, fmt.Errorf("encoding drops: %w", err)
	}
	if r.Survivors, err = json.Marshal(survivors); err != nil {
		return nil, fmt.Errorf("encoding survivors: %w", err)
	}
	if r.Events, err = json.Marshal(evs); err != nil {
		return nil, fmt.Errorf("encoding events: %w", err)
	}
	return r, nil
}

func archiveEvent(e combat.Event) ReportEvent {
	out := ReportEvent{
		Seq:     e.Seq,
		Round:   e.Round,
		Kind:    e.Kind.String(),
		Actor:   e.ActorID,
		Message: e.Message,
	}
	switch e.Kind {
	case combat.EventActionResolved, combat.EventActionRejected:
		out.Action = e.Action.String()
	case combat.EventBattleEnd:
		out.Message = e.Phase.String()
	}
	if o := e.Outcome; o != nil {
		out.Target = o.TargetID
		out.Dealt = o.Dealt
		out.Healing = o.Healing
		out.Critical = o.Critical
		if o.Status != nil {
			out.Status = o.Status.ID
		}
	}
	if tk := e.Tick; tk != nil {
		out.Status = tk.ID
		out.HPDelta = tk.HPDelta
	}
	return out
}

// ReportRepository stores and queries archived battles.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a ReportRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, battle_id, encounter_id, outcome, rounds, experience, berries,
	drops, survivors, events, created_at`

// Create inserts rep and sets its CreatedAt.
//
// Precondition: rep.ID must be a UUID and rep.BattleID non-empty.
// Postcondition: Returns nil, or ErrReportExists when the battle is already archived.
func (r *ReportRepository) Create(ctx context.Context, rep *Report) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO battle_reports
			(id, battle_id, encounter_id, outcome, rounds, experience, berries, drops, survivors, events)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`,
		rep.ID, rep.BattleID, rep.EncounterID, rep.Outcome, rep.Rounds, rep.Experience, rep.Berries,
		rep.Drops, rep.Survivors, rep.Events,
	).Scan(&rep.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrReportExists, rep.BattleID)
		}
		return fmt.Errorf("inserting battle report: %w", err)
	}
	return nil
}

// GetByBattleID retrieves the report of one battle.
//
// Postcondition: Returns the Report or ErrReportNotFound.
func (r *ReportRepository) GetByBattleID(ctx context.Context, battleID string) (*Report, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM battle_reports WHERE battle_id = $1`, battleID)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("querying battle report: %w", err)
	}
	return rep, nil
}

// ListRecent returns up to limit reports, newest first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]*Report, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reportColumns+` FROM battle_reports
		ORDER BY created_at DESC, battle_id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing battle reports: %w", err)
	}
	defer rows.Close()

	out := make([]*Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning battle report row: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// CountByOutcome returns the number of archived battles per outcome.
func (r *ReportRepository) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT outcome, COUNT(*) FROM battle_reports GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("counting battle reports: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scanning outcome count: %w", err)
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(
		&rep.ID, &rep.BattleID, &rep.EncounterID, &rep.Outcome, &rep.Rounds,
		&rep.Experience, &rep.Berries, &rep.Drops, &rep.Survivors, &rep.Events, &rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
