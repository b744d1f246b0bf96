package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/pkg/metrics"
	"github.com/paulmach/orb"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const jobsTable = `
CREATE TABLE IF NOT EXISTS grid_jobs (
	id          TEXT PRIMARY KEY,
	state       TEXT NOT NULL,
	minx        REAL NOT NULL,
	miny        REAL NOT NULL,
	maxx        REAL NOT NULL,
	maxy        REAL NOT NULL,
	spacing_m   REAL NOT NULL,
	result      BLOB,
	error       TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	started_at  INTEGER NOT NULL DEFAULT 0,
	finished_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_grid_jobs_finished ON grid_jobs(state, finished_at);
`

// SQLiteStore persists jobs in a SQLite database so results survive
// restarts.
type SQLiteStore struct {
	db  *sql.DB
	cfg settings
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, jobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	s := &SQLiteStore{db: db, cfg: defaults()}
	for _, opt := range opts {
		opt(&s.cfg)
	}
	return s, nil
}

// Put implements Store.Put.
func (s *SQLiteStore) Put(ctx context.Context, job model.Job) error {
	if job.ID == "" {
		return ErrInvalidID
	}
	b := job.Request.Bound
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO grid_jobs (id, state, minx, miny, maxx, maxy, spacing_m, result, error, created_at, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			result = excluded.result,
			error = excluded.error,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at`,
		job.ID, string(job.State), b.Min[0], b.Min[1], b.Max[0], b.Max[1], job.Request.SpacingM,
		job.Result, job.Error, unixNano(job.CreatedAt), unixNano(job.StartedAt), unixNano(job.FinishedAt),
	)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "sqlite_write")
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	metrics.UpdateStoredJobs(s.Count(ctx))
	return nil
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, state, minx, miny, maxx, maxy, spacing_m, result, error, created_at, started_at, finished_at
		FROM grid_jobs WHERE id = ?`, id)

	var (
		job                        model.Job
		state                      string
		minx, miny, maxx, maxy     float64
		created, started, finished int64
	)
	err := row.Scan(&job.ID, &state, &minx, &miny, &maxx, &maxy, &job.Request.SpacingM,
		&job.Result, &job.Error, &created, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordErrorByComponent("repository", "sqlite_read")
		return model.Job{}, fmt.Errorf("load job %s: %w", id, err)
	}
	job.State = model.JobState(state)
	job.Request.Bound = orb.Bound{Min: orb.Point{minx, miny}, Max: orb.Point{maxx, maxy}}
	job.CreatedAt = fromUnixNano(created)
	job.StartedAt = fromUnixNano(started)
	job.FinishedAt = fromUnixNano(finished)
	return job, nil
}

// Count implements Store.Count. Errors count as an empty store.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grid_jobs`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Prune deletes finished jobs older than the retention.
func (s *SQLiteStore) Prune(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM grid_jobs WHERE state IN (?, ?) AND finished_at < ?`,
		string(model.JobSucceeded), string(model.JobFailed), now.Add(-s.cfg.retention).UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
