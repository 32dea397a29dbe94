package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (and creates if needed) the run database at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping verifies the connection is alive.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema. Idempotent.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			face_value REAL NOT NULL,
			bet_size REAL NOT NULL,
			wagering_multiplier REAL NOT NULL,
			target_rtp REAL NOT NULL,
			paytable_json TEXT NOT NULL DEFAULT '{}',
			num_trials INTEGER NOT NULL,
			trials_run INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			survived INTEGER NOT NULL,
			survival_rate REAL NOT NULL,
			average_redeemed REAL NOT NULL,
			required_wager REAL NOT NULL,
			incomplete INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SaveRun inserts a run, assigning an id and timestamp if unset.
func (s *SQLiteDB) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, face_value, bet_size, wagering_multiplier, target_rtp,
			paytable_json, num_trials, trials_run, seed, survived,
			survival_rate, average_redeemed, required_wager, incomplete,
			duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.FaceValue, run.BetSize, run.WageringMultiplier, run.TargetRTP,
		run.PaytableJSON, run.NumTrials, run.TrialsRun, int64(run.Seed), run.Survived,
		run.SurvivalRate, run.AverageRedeemed, run.RequiredWager, boolToInt(run.Incomplete),
		run.DurationMs, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun loads one run by id.
func (s *SQLiteDB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, face_value, bet_size, wagering_multiplier, target_rtp,
			paytable_json, num_trials, trials_run, seed, survived,
			survival_rate, average_redeemed, required_wager, incomplete,
			duration_ms, created_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRecentRuns returns up to limit runs, newest first.
func (s *SQLiteDB) ListRecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, face_value, bet_size, wagering_multiplier, target_rtp,
			paytable_json, num_trials, trials_run, seed, survived,
			survival_rate, average_redeemed, required_wager, incomplete,
			duration_ms, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a run by id.
func (s *SQLiteDB) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrRunNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var seed int64
	var incomplete int

	err := row.Scan(
		&run.ID, &run.FaceValue, &run.BetSize, &run.WageringMultiplier, &run.TargetRTP,
		&run.PaytableJSON, &run.NumTrials, &run.TrialsRun, &seed, &run.Survived,
		&run.SurvivalRate, &run.AverageRedeemed, &run.RequiredWager, &incomplete,
		&run.DurationMs, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Seed = uint64(seed)
	run.Incomplete = incomplete != 0
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
