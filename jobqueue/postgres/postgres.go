// Package postgres stores jobs in a pg-boss compatible pgboss.job table.
package postgres

import (
	"context"
	_ "embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/aquilax/itemboard/jobqueue"
)

//go:embed schema.sql
var schema string

const (
	submitQuery = `INSERT INTO pgboss.job (id, name, data, startafter) VALUES ($1, $2, $3, to_timestamp($4))`
	fetchQuery  = `UPDATE pgboss.job SET state = 'active'
		WHERE id IN (
			SELECT id FROM pgboss.job
			WHERE state = 'created' AND startafter <= to_timestamp($1)
			ORDER BY startafter
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, name, data, state, startafter`
	completeQuery = `UPDATE pgboss.job SET state = 'completed', completedon = now() WHERE id = $1`
	failQuery     = `UPDATE pgboss.job SET state = 'failed', completedon = now(), output = $2 WHERE id = $1`
)

type Postgres struct {
	db *sqlx.DB
}

func Open(DSN string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", DSN)
	if err != nil {
		return nil, err
	}
	p := NewWithDB(db)
	if err := p.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewWithDB wraps an already opened connection.
func NewWithDB(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "create job schema")
}

// Submit stores the job; the fire-at instant travels as epoch seconds and is
// converted by the server.
func (p *Postgres) Submit(ctx context.Context, req jobqueue.Request) (jobqueue.Job, error) {
	job, err := jobqueue.NewJob(req)
	if err != nil {
		return jobqueue.Job{}, err
	}
	_, err = p.db.ExecContext(ctx, submitQuery,
		job.ID, string(job.Kind), string(job.Data), jobqueue.EpochSeconds(job.StartAfter))
	if err != nil {
		return jobqueue.Job{}, errors.Wrap(err, "submit job")
	}
	return job, nil
}

func (p *Postgres) Fetch(ctx context.Context, now time.Time, limit int) ([]jobqueue.Job, error) {
	var jobs []jobqueue.Job
	if err := p.db.SelectContext(ctx, &jobs, fetchQuery, jobqueue.EpochSeconds(now), limit); err != nil {
		return nil, errors.Wrap(err, "fetch jobs")
	}
	for i := range jobs {
		jobs[i].StartAfter = jobs[i].StartAfter.UTC()
	}
	return jobs, nil
}

func (p *Postgres) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return jobqueue.ErrNotFound
	}
	return nil
}

func (p *Postgres) Complete(ctx context.Context, id string) error {
	return errors.Wrap(p.exec(ctx, completeQuery, id), "complete job")
}

func (p *Postgres) Fail(ctx context.Context, id string, cause error) error {
	return errors.Wrap(p.exec(ctx, failQuery, id, jobqueue.FailureOutput(cause)), "fail job")
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
