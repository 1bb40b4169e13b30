package effects

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquilax/itemboard/directive"
	"github.com/aquilax/itemboard/item"
	"github.com/aquilax/itemboard/jobqueue"
)

// Enqueuer submits one job per recognised directive. Callers invoke it once,
// when the directive first appears; it does not deduplicate.
type Enqueuer struct {
	queue Submitter
	log   zerolog.Logger
	now   func() time.Time
}

func NewEnqueuer(queue Submitter, log zerolog.Logger, now func() time.Time) *Enqueuer {
	if now == nil {
		now = time.Now
	}
	return &Enqueuer{queue: queue, log: log, now: now}
}

// EnqueueDelete schedules redaction of it when its text carries a well formed
// @delete directive.
func (e *Enqueuer) EnqueueDelete(ctx context.Context, it *item.Item) (bool, error) {
	res := directive.ResolveDelete(it.Text, e.now())
	if !res.OK {
		return false, nil
	}
	return e.submit(ctx, jobqueue.KindDeleteItem, it.ID, res.At)
}

// EnqueueSchedulePublish schedules publication of it at its scheduled_at.
func (e *Enqueuer) EnqueueSchedulePublish(ctx context.Context, it *item.Item) (bool, error) {
	if it.ScheduledAt == nil {
		return false, nil
	}
	return e.submit(ctx, jobqueue.KindPostItem, it.ID, *it.ScheduledAt)
}

func (e *Enqueuer) submit(ctx context.Context, kind jobqueue.Kind, id item.ID, at time.Time) (bool, error) {
	job, err := e.queue.Submit(ctx, jobqueue.Request{Kind: kind, ItemID: id, StartAfter: at})
	if err != nil {
		return false, err
	}
	e.log.Info().
		Str("job", job.ID).
		Str("kind", string(kind)).
		Int64("item", id).
		Time("startAfter", at).
		Msg("job enqueued")
	return true, nil
}
