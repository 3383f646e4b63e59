// Package store keeps a history of export runs in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/coco-export/internal/timeutil"
)

// ErrRunNotFound is returned by Run for an unknown id.
var ErrRunNotFound = errors.New("export run not found")

// Run is one recorded export.
type Run struct {
	ID          string
	StartedAt   time.Time
	Duration    time.Duration
	Labels      string
	Ontology    string
	Results     string
	Images      int
	Annotations int
	Categories  int
	// Error is empty for successful runs.
	Error string
	// CategoryCounts maps category name to its annotation count.
	CategoryCounts map[string]int
}

// Store is the run history database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp runs without a start time.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens or creates the database at path and migrates it to the latest
// schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// one connection keeps foreign keys and :memory: databases consistent
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores run and returns it with its id and start time filled in.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.clock.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO export_runs (
			run_id, started_at, duration_ms, labels_path, ontology_path, results_path,
			images, annotations, categories, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.Duration.Milliseconds(),
		run.Labels, run.Ontology, run.Results,
		run.Images, run.Annotations, run.Categories, run.Error,
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert export run: %w", err)
	}

	names := make([]string, 0, len(run.CategoryCounts))
	for name := range run.CategoryCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO export_run_categories (run_id, category_name, annotations) VALUES (?, ?, ?)`,
			run.ID, name, run.CategoryCounts[name])
		if err != nil {
			return Run{}, fmt.Errorf("failed to insert category count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("failed to commit export run: %w", err)
	}
	return run, nil
}

const runColumns = `run_id, started_at, duration_ms, labels_path, ontology_path, results_path,
	images, annotations, categories, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r          Run
		startedAt  int64
		durationMS int64
	)
	err := row.Scan(&r.ID, &startedAt, &durationMS, &r.Labels, &r.Ontology, &r.Results,
		&r.Images, &r.Annotations, &r.Categories, &r.Error)
	if err != nil {
		return Run{}, err
	}
	r.StartedAt = time.Unix(0, startedAt).UTC()
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, nil
}

// Run returns the run with the given id, including its category counts.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM export_runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to read export run: %w", err)
	}
	if r.CategoryCounts, err = s.categoryCounts(ctx, id); err != nil {
		return Run{}, err
	}
	return r, nil
}

// Runs returns up to limit runs, newest first. A limit of 0 or less
// returns every run. Category counts are not loaded.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM export_runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) categoryCounts(ctx context.Context, id string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category_name, annotations FROM export_run_categories WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}
