package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
)

// SQLiteStore persists levels and runs in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteConfig holds SQLite store configuration
type SQLiteConfig struct {
	Path string
}

// DefaultSQLiteConfig returns default SQLite configuration
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{Path: "./data/lovelace.db"}
}

// NewSQLiteStore opens (and creates) the database at cfg.Path
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, dbError(err, "failed to create directory")
	}

	// WAL mode for concurrent readers during compile requests
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError(err, "failed to open database")
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema")
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS levels (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		expected TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		level_id TEXT NOT NULL DEFAULT '',
		success INTEGER NOT NULL,
		is_correct INTEGER NOT NULL,
		output TEXT NOT NULL,
		token_count INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_level ON runs(level_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func dbError(err error, message string) error {
	return mdwerror.Wrap(err, message).WithCode(mdwerror.CodeDatabaseError)
}

// SaveLevel inserts or replaces a level
func (s *SQLiteStore) SaveLevel(ctx context.Context, level *Level) error {
	if err := prepareLevel(level); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO levels (id, title, description, expected, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, level.ID, level.Title, level.Description, level.Expected, level.CreatedAt)
	if err != nil {
		return dbError(err, "failed to save level")
	}
	return nil
}

// GetLevel retrieves a level by ID
func (s *SQLiteStore) GetLevel(ctx context.Context, id string) (*Level, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, expected, created_at FROM levels WHERE id = ?
	`, id)

	var level Level
	err := row.Scan(&level.ID, &level.Title, &level.Description, &level.Expected, &level.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("level", id)
	}
	if err != nil {
		return nil, dbError(err, "failed to get level")
	}
	return &level, nil
}

// ListLevels returns all levels ordered by ID
func (s *SQLiteStore) ListLevels(ctx context.Context) ([]*Level, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, expected, created_at FROM levels ORDER BY id
	`)
	if err != nil {
		return nil, dbError(err, "failed to list levels")
	}
	defer rows.Close()

	var levels []*Level
	for rows.Next() {
		var level Level
		if err := rows.Scan(&level.ID, &level.Title, &level.Description, &level.Expected, &level.CreatedAt); err != nil {
			return nil, dbError(err, "failed to scan level")
		}
		levels = append(levels, &level)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to list levels")
	}
	return levels, nil
}

// DeleteLevel removes a level by ID
func (s *SQLiteStore) DeleteLevel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM levels WHERE id = ?`, id)
	if err != nil {
		return dbError(err, "failed to delete level")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("level", id)
	}
	return nil
}

// RecordRun stores a run
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	prepareRun(run)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, level_id, success, is_correct, output, token_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.LevelID, run.Success, run.IsCorrect, run.Output, run.TokenCount, run.DurationMs, run.CreatedAt)
	if err != nil {
		return dbError(err, "failed to record run")
	}
	return nil
}

// ListRuns returns the newest runs first, optionally for one level
func (s *SQLiteStore) ListRuns(ctx context.Context, levelID string, limit int) ([]*Run, error) {
	query := `SELECT id, level_id, success, is_correct, output, token_count, duration_ms, created_at FROM runs`
	var args []interface{}
	if levelID != "" {
		query += ` WHERE level_id = ?`
		args = append(args, levelID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var created time.Time
		if err := rows.Scan(&run.ID, &run.LevelID, &run.Success, &run.IsCorrect, &run.Output,
			&run.TokenCount, &run.DurationMs, &created); err != nil {
			return nil, dbError(err, "failed to scan run")
		}
		run.CreatedAt = created
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to list runs")
	}
	return runs, nil
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
