package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/h66840/graph-toucan-sub001/internal/pipeline"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at dbPath. It auto-creates the
// parent directory (e.g. ~/.toucan/) and runs schema migrations.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for WAL mode simplicity.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate runs schema migrations up to the current version.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var ver int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		ver = 0
	} else if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	if ver < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteStore) migrateV1() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			created_at  TEXT NOT NULL,
			input_path  TEXT NOT NULL,
			graph_path  TEXT NOT NULL,
			output_path TEXT NOT NULL,
			merge_probability           REAL NOT NULL,
			insert_probability          REAL NOT NULL,
			long_dependency_probability REAL NOT NULL,
			split_probability           REAL NOT NULL,
			seed        INTEGER NOT NULL,
			statistics  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`INSERT OR REPLACE INTO schema_version (version) VALUES (1)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return nil
}

// RecordRun persists a single generation run.
func (s *SQLiteStore) RecordRun(ctx context.Context, r Run) error {
	stats, err := json.Marshal(r.Statistics)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, input_path, graph_path, output_path,
			merge_probability, insert_probability, long_dependency_probability,
			split_probability, seed, statistics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.InputPath,
		r.GraphPath,
		r.OutputPath,
		r.Params.MergeProbability,
		r.Params.InsertProbability,
		r.Params.LongDependencyProbability,
		r.Params.SplitProbability,
		r.Params.Seed,
		string(stats),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns runs matching the given filter options, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOpts) ([]Run, error) {
	query := `SELECT id, created_at, input_path, graph_path, output_path,
		merge_probability, insert_probability, long_dependency_probability,
		split_probability, seed, statistics FROM runs WHERE 1=1`
	var args []any

	if !opts.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID, or nil if not found.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, input_path, graph_path, output_path,
			merge_probability, insert_probability, long_dependency_probability,
			split_probability, seed, statistics FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var createdAt, stats string
	if err := sc.Scan(&r.ID, &createdAt, &r.InputPath, &r.GraphPath, &r.OutputPath,
		&r.Params.MergeProbability, &r.Params.InsertProbability,
		&r.Params.LongDependencyProbability, &r.Params.SplitProbability,
		&r.Params.Seed, &stats); err != nil {
		if err == sql.ErrNoRows {
			return r, err
		}
		return r, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return r, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	r.CreatedAt = t
	var st pipeline.Statistics
	if err := json.Unmarshal([]byte(stats), &st); err != nil {
		return r, fmt.Errorf("parse statistics: %w", err)
	}
	r.Statistics = st
	return r, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
