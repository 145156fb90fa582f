package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBattleNotFound is returned when a battle lookup yields no results.
var ErrBattleNotFound = errors.New("battle not found")

// BattleRecord is one simulated battle's header row.
type BattleRecord struct {
	ID          string
	EncounterID string
	Seed        int64
	Status      string
	Rounds      int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// RoundRecord is one resolved round. Report holds the round's full JSON
// report as stored.
type RoundRecord struct {
	BattleID  string
	Round     int
	Report    json.RawMessage
	CreatedAt time.Time
}

// ReportRepository provides battle report persistence operations.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a ReportRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// InsertBattle creates the header row for a battle that is starting.
//
// Precondition: id must be a UUID not yet present; encounterID must be non-empty.
// Postcondition: Returns the created record with StartedAt set and status "ongoing".
func (r *ReportRepository) InsertBattle(ctx context.Context, id, encounterID string, seed int64) (BattleRecord, error) {
	var b BattleRecord
	err := r.db.QueryRow(ctx, `
		INSERT INTO battles (id, encounter_id, seed)
		VALUES ($1, $2, $3)
		RETURNING id, encounter_id, seed, status, rounds, started_at, finished_at`,
		id, encounterID, seed,
	).Scan(&b.ID, &b.EncounterID, &b.Seed, &b.Status, &b.Rounds, &b.StartedAt, &b.FinishedAt)
	if err != nil {
		return BattleRecord{}, fmt.Errorf("inserting battle: %w", err)
	}
	return b, nil
}

// FinishBattle records a battle's terminal status and round count.
//
// Precondition: status must be the battle's final status string.
// Postcondition: Returns nil on success, ErrBattleNotFound if no row updated.
func (r *ReportRepository) FinishBattle(ctx context.Context, id, status string, rounds int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE battles SET status = $2, rounds = $3, finished_at = NOW()
		WHERE id = $1`,
		id, status, rounds,
	)
	if err != nil {
		return fmt.Errorf("finishing battle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBattleNotFound
	}
	return nil
}

// InsertRound stores one round's report as JSONB.
//
// Precondition: the battle row must exist; report must be JSON-marshalable.
// Postcondition: Returns nil on success, ErrBattleNotFound if the battle is unknown.
func (r *ReportRepository) InsertRound(ctx context.Context, battleID string, round int, report any) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling round report: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO battle_rounds (battle_id, round, report)
		VALUES ($1, $2, $3)`,
		battleID, round, payload,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrBattleNotFound
		}
		return fmt.Errorf("inserting battle round: %w", err)
	}
	return nil
}

// GetBattle retrieves a battle header by id.
//
// Postcondition: Returns the BattleRecord or ErrBattleNotFound.
func (r *ReportRepository) GetBattle(ctx context.Context, id string) (BattleRecord, error) {
	var b BattleRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, encounter_id, seed, status, rounds, started_at, finished_at
		FROM battles WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.EncounterID, &b.Seed, &b.Status, &b.Rounds, &b.StartedAt, &b.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BattleRecord{}, ErrBattleNotFound
		}
		return BattleRecord{}, fmt.Errorf("querying battle: %w", err)
	}
	return b, nil
}

// ListRounds returns all stored rounds for a battle in round order.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ReportRepository) ListRounds(ctx context.Context, battleID string) ([]RoundRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT battle_id, round, report, created_at
		FROM battle_rounds WHERE battle_id = $1 ORDER BY round ASC`,
		battleID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing battle rounds: %w", err)
	}
	defer rows.Close()

	records := make([]RoundRecord, 0)
	for rows.Next() {
		var rec RoundRecord
		if err := rows.Scan(&rec.BattleID, &rec.Round, &rec.Report, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning battle round row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// isForeignKeyError checks if a pgx error is a foreign key violation.
func isForeignKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23503 (foreign_key_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23503"
	}
	return false
}
