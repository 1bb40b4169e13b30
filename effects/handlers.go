package effects

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/item"
	"github.com/aquilax/itemboard/jobqueue"
)

// Handlers execute fired jobs against the store.
type Handlers struct {
	redactor  *Redactor
	publisher *Publisher
	log       zerolog.Logger
}

func NewHandlers(r *Redactor, p *Publisher, log zerolog.Logger) *Handlers {
	return &Handlers{redactor: r, publisher: p, log: log}
}

// Register installs the handlers on a runner.
func (h *Handlers) Register(r *jobqueue.Runner) {
	r.Handle(jobqueue.KindDeleteItem, h.DeleteItem)
	r.Handle(jobqueue.KindPostItem, h.PostItem)
}

func (h *Handlers) DeleteItem(ctx context.Context, job jobqueue.Job) error {
	return h.run(job, func(id item.ID) error {
		_, err := h.redactor.DeleteByAuthor(ctx, id, nil)
		return err
	})
}

func (h *Handlers) PostItem(ctx context.Context, job jobqueue.Job) error {
	return h.run(job, func(id item.ID) error {
		_, err := h.publisher.PostScheduledItem(ctx, id)
		return err
	})
}

// run decodes the payload and treats a vanished item as done.
func (h *Handlers) run(job jobqueue.Job, fn func(id item.ID) error) error {
	p, err := job.Payload()
	if err != nil {
		return err
	}
	err = fn(p.ID)
	if errors.Is(err, database.ErrNotFound) {
		h.log.Warn().Int64("item", p.ID).Str("kind", string(job.Kind)).Msg("item gone before job fired")
		return nil
	}
	return err
}
