package jobqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	DefaultSchedule = "@every 1s"
	DefaultBatch    = 10
)

// Handler runs one job. A returned error marks the job failed.
type Handler func(ctx context.Context, job Job) error

// Runner polls a Queue on a cron schedule and dispatches due jobs by kind.
// Failed jobs are not retried.
type Runner struct {
	queue    Queue
	log      zerolog.Logger
	now      func() time.Time
	schedule string
	batch    int

	mu       sync.Mutex
	handlers map[Kind]Handler
	cron     *cron.Cron
	cancel   context.CancelFunc
}

type RunnerOption func(*Runner)

func WithSchedule(spec string) RunnerOption {
	return func(r *Runner) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

func WithBatch(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

func NewRunner(q Queue, log zerolog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		queue:    q,
		log:      log.With().Str("component", "jobqueue").Logger(),
		now:      time.Now,
		schedule: DefaultSchedule,
		batch:    DefaultBatch,
		handlers: make(map[Kind]Handler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Handle(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

func (r *Runner) handler(kind Kind) (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// RunOnce fetches one batch of due jobs and runs them in order. It returns the
// number of jobs fetched.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	jobs, err := r.queue.Fetch(ctx, r.now(), r.batch)
	if err != nil {
		return 0, err
	}
	for _, job := range jobs {
		r.dispatch(ctx, job)
	}
	return len(jobs), nil
}

func (r *Runner) dispatch(ctx context.Context, job Job) {
	log := r.log.With().Str("job", job.ID).Str("kind", string(job.Kind)).Logger()
	h, ok := r.handler(job.Kind)
	if !ok {
		log.Error().Msg("no handler for job kind")
		if err := r.queue.Fail(ctx, job.ID, fmt.Errorf("unknown job kind %q", job.Kind)); err != nil {
			log.Error().Err(err).Msg("mark job failed")
		}
		return
	}
	if err := h(ctx, job); err != nil {
		log.Error().Err(err).Msg("job failed")
		if err := r.queue.Fail(ctx, job.ID, err); err != nil {
			log.Error().Err(err).Msg("mark job failed")
		}
		return
	}
	if err := r.queue.Complete(ctx, job.ID); err != nil {
		log.Error().Err(err).Msg("mark job completed")
		return
	}
	log.Debug().Msg("job completed")
}

// Start begins polling. Ticks are skipped while the previous batch still runs.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{r.log}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	_, err := c.AddFunc(r.schedule, func() {
		n, err := r.RunOnce(ctx)
		if err != nil {
			r.log.Error().Err(err).Msg("fetch jobs")
			return
		}
		if n > 0 {
			r.log.Debug().Int("jobs", n).Msg("batch processed")
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("invalid job schedule %q: %w", r.schedule, err)
	}
	r.cron = c
	r.cancel = cancel
	c.Start()
	r.log.Info().Str("schedule", r.schedule).Int("batch", r.batch).Msg("job runner started")
	return nil
}

// Stop halts polling and waits for the running batch.
func (r *Runner) Stop() {
	r.mu.Lock()
	c, cancel := r.cron, r.cancel
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	cancel()
	r.log.Info().Msg("job runner stopped")
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
