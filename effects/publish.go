package effects

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquilax/itemboard/item"
)

type Publisher struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewPublisher(store Store, log zerolog.Logger, now func() time.Time) *Publisher {
	if now == nil {
		now = time.Now
	}
	return &Publisher{store: store, log: log, now: now}
}

// PostScheduledItem makes a scheduled item visible, dated at publication.
// Items already published, or rescheduled to a later instant, are returned
// unchanged.
func (p *Publisher) PostScheduledItem(ctx context.Context, id item.ID) (*item.Item, error) {
	it, err := p.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	now := p.now()
	if it.ScheduledAt == nil || it.ScheduledAt.After(now) {
		return it, nil
	}
	updated, err := p.store.UpdateItem(ctx, id, item.Fields{
		item.ColScheduledAt: nil,
		item.ColCreatedAt:   now,
		item.ColUpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().Int64("item", id).Msg("scheduled item published")
	return updated, nil
}
