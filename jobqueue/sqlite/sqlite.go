package sqlite

import (
	"context"
	_ "embed"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/aquilax/itemboard/jobqueue"
)

//go:embed schema.sql
var schema string

// Times are stored as REAL epoch seconds so ordering and comparison stay numeric.
type row struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	Data       string  `db:"data"`
	State      string  `db:"state"`
	StartAfter float64 `db:"start_after"`
}

func (r row) job() jobqueue.Job {
	return jobqueue.Job{
		ID:         r.ID,
		Kind:       jobqueue.Kind(r.Name),
		Data:       []byte(r.Data),
		State:      jobqueue.State(r.State),
		StartAfter: jobqueue.FromEpochSeconds(r.StartAfter),
	}
}

type SQLite struct {
	db  *sqlx.DB
	now func() time.Time
}

type Option func(*SQLite)

// WithClock sets the clock that stamps completed_on.
func WithClock(now func() time.Time) Option {
	return func(s *SQLite) { s.now = now }
}

func Open(DSN string, opts ...Option) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create job schema")
	}
	s := &SQLite{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLite) Submit(ctx context.Context, req jobqueue.Request) (jobqueue.Job, error) {
	job, err := jobqueue.NewJob(req)
	if err != nil {
		return jobqueue.Job{}, err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO job (id, name, data, start_after) VALUES (?, ?, ?, ?)",
		job.ID, string(job.Kind), string(job.Data), jobqueue.EpochSeconds(job.StartAfter))
	if err != nil {
		return jobqueue.Job{}, errors.Wrap(err, "submit job")
	}
	return job, nil
}

func (s *SQLite) Fetch(ctx context.Context, now time.Time, limit int) ([]jobqueue.Job, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `UPDATE job SET state = 'active'
		WHERE id IN (
			SELECT id FROM job
			WHERE state = 'created' AND start_after <= ?
			ORDER BY start_after
			LIMIT ?
		)
		RETURNING id, name, data, state, start_after`, jobqueue.EpochSeconds(now), limit)
	if err != nil {
		return nil, errors.Wrap(err, "fetch jobs")
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].StartAfter < rows[j].StartAfter })
	jobs := make([]jobqueue.Job, len(rows))
	for i, r := range rows {
		jobs[i] = r.job()
	}
	return jobs, nil
}

func (s *SQLite) finish(ctx context.Context, id string, state jobqueue.State, output *string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE job SET state = ?, output = ?, completed_on = ? WHERE id = ?",
		string(state), output, jobqueue.EpochSeconds(s.now()), id)
	if err != nil {
		return errors.Wrapf(err, "mark job %s", state)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return jobqueue.ErrNotFound
	}
	return nil
}

func (s *SQLite) Complete(ctx context.Context, id string) error {
	return s.finish(ctx, id, jobqueue.StateCompleted, nil)
}

func (s *SQLite) Fail(ctx context.Context, id string, cause error) error {
	out := jobqueue.FailureOutput(cause)
	return s.finish(ctx, id, jobqueue.StateFailed, &out)
}

// Get loads a single job, mostly for inspection.
func (s *SQLite) Get(ctx context.Context, id string) (jobqueue.Job, error) {
	var r row
	err := s.db.GetContext(ctx, &r, "SELECT id, name, data, state, start_after FROM job WHERE id = ?", id)
	if err != nil {
		return jobqueue.Job{}, errors.Wrap(err, "get job")
	}
	return r.job(), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
