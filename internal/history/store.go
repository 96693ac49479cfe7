package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump when the schema changes;
// the history database is an audit log and can simply be deleted on mismatch.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different hopper
// version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

const timeLayout = time.RFC3339

// Store persists ingest runs and per-file outcomes in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// BeginRun records the start of an ingest run and returns its identifier.
func (s *Store) BeginRun(ctx context.Context, sourcePath, destinationRoot string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, source_path, destination_root, started_at) VALUES (?, ?, ?, ?)",
		id, sourcePath, destinationRoot, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return id, nil
}

// RecordMove appends one candidate outcome to a run.
func (s *Store) RecordMove(ctx context.Context, runID string, move Move) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO moves (run_id, source_path, dest_path, outcome, detail, bytes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		runID, move.SourcePath, move.DestPath, string(move.Outcome), move.Detail, move.Bytes,
		time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record move: %w", err)
	}
	return nil
}

// FinishRun stores the final counters for a run.
func (s *Store) FinishRun(ctx context.Context, runID string, successCount, failCount int, bytesMoved int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, success_count = ?, fail_count = ?, bytes_moved = ? WHERE id = ?",
		time.Now().UTC().Format(timeLayout), successCount, failCount, bytesMoved, runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT id, source_path, destination_root, started_at, finished_at, success_count, fail_count, bytes_moved FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.SourcePath, &run.DestinationRoot, &startedAt, &finishedAt,
			&run.SuccessCount, &run.FailCount, &run.BytesMoved); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parse run start time: %w", err)
		}
		if finishedAt.Valid {
			finished, err := time.Parse(timeLayout, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse run finish time: %w", err)
			}
			run.FinishedAt = &finished
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListMoves returns all recorded outcomes for a run in insertion order.
func (s *Store) ListMoves(ctx context.Context, runID string) ([]Move, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, source_path, dest_path, outcome, detail, bytes, created_at FROM moves WHERE run_id = ? ORDER BY id",
		runID)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer rows.Close()

	var moves []Move
	for rows.Next() {
		var (
			move      Move
			outcome   string
			createdAt string
		)
		if err := rows.Scan(&move.ID, &move.RunID, &move.SourcePath, &move.DestPath, &outcome,
			&move.Detail, &move.Bytes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		move.Outcome = Outcome(outcome)
		if move.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse move time: %w", err)
		}
		moves = append(moves, move)
	}
	return moves, rows.Err()
}
