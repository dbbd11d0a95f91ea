// Package sqlite persists triage run history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bkyoung/phototriage/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Stores metadata about each triage run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		source_dir TEXT NOT NULL,
		num_images INTEGER NOT NULL,
		selected INTEGER DEFAULT 0,
		flagged INTEGER DEFAULT 0,
		duplicate_groups INTEGER DEFAULT 0,
		total_cost REAL DEFAULT 0.0,
		duration_seconds REAL DEFAULT 0.0
	);

	-- Per-agent token usage and cost within each run
	CREATE TABLE IF NOT EXISTS agent_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		agent TEXT NOT NULL,
		calls INTEGER NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		cost_usd REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_agent_usage_run ON agent_usage(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new triage run.
func (s *Store) CreateRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, timestamp, source_dir, num_images, selected, flagged, duplicate_groups, total_cost, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.SourceDir,
		run.NumImages,
		run.Selected,
		run.Flagged,
		run.DuplicateGroups,
		run.TotalCost,
		run.DurationSeconds,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// UpdateRunCost updates the total cost for a run.
func (s *Store) UpdateRunCost(ctx context.Context, runID string, totalCost float64) error {
	query := `UPDATE runs SET total_cost = ? WHERE run_id = ?`

	result, err := s.db.ExecContext(ctx, query, totalCost, runID)
	if err != nil {
		return fmt.Errorf("failed to update run cost: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (store.Run, error) {
	query := `
		SELECT run_id, timestamp, source_dir, num_images, selected, flagged, duplicate_groups, total_cost, duration_seconds
		FROM runs
		WHERE run_id = ?
	`

	var run store.Run
	var timestamp int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.RunID,
		&timestamp,
		&run.SourceDir,
		&run.NumImages,
		&run.Selected,
		&run.Flagged,
		&run.DuplicateGroups,
		&run.TotalCost,
		&run.DurationSeconds,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return store.Run{}, fmt.Errorf("run not found: %s", runID)
		}
		return store.Run{}, fmt.Errorf("failed to get run: %w", err)
	}

	run.Timestamp = time.Unix(timestamp, 0)
	return run, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, timestamp, source_dir, num_images, selected, flagged, duplicate_groups, total_cost, duration_seconds
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		var timestamp int64

		if err := rows.Scan(
			&run.RunID,
			&timestamp,
			&run.SourceDir,
			&run.NumImages,
			&run.Selected,
			&run.Flagged,
			&run.DuplicateGroups,
			&run.TotalCost,
			&run.DurationSeconds,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = time.Unix(timestamp, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// SaveAgentUsage stores per-agent usage records in a single transaction.
func (s *Store) SaveAgentUsage(ctx context.Context, usages []store.AgentUsage) error {
	if len(usages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO agent_usage (run_id, agent, calls, prompt_tokens, completion_tokens, total_tokens, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, usage := range usages {
		if _, err := stmt.ExecContext(ctx,
			usage.RunID,
			usage.Agent,
			usage.Calls,
			usage.PromptTokens,
			usage.CompletionTokens,
			usage.TotalTokens,
			usage.CostUSD,
		); err != nil {
			return fmt.Errorf("failed to save usage for agent %s: %w", usage.Agent, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage: %w", err)
	}

	return nil
}

// GetAgentUsageByRun retrieves every agent's usage record for a run.
func (s *Store) GetAgentUsageByRun(ctx context.Context, runID string) ([]store.AgentUsage, error) {
	query := `
		SELECT id, run_id, agent, calls, prompt_tokens, completion_tokens, total_tokens, cost_usd
		FROM agent_usage
		WHERE run_id = ?
		ORDER BY agent
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	defer rows.Close()

	var usages []store.AgentUsage
	for rows.Next() {
		var usage store.AgentUsage
		if err := rows.Scan(
			&usage.ID,
			&usage.RunID,
			&usage.Agent,
			&usage.Calls,
			&usage.PromptTokens,
			&usage.CompletionTokens,
			&usage.TotalTokens,
			&usage.CostUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		usages = append(usages, usage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage: %w", err)
	}

	return usages, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
