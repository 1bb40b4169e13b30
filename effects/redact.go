package effects

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquilax/itemboard/item"
)

// RedactFields returns the update that deletes it on its author's behalf.
// Only fields the item actually carries are overwritten.
func RedactFields(it *item.Item, now time.Time) item.Fields {
	fields := item.Fields{item.ColDeletedAt: now}
	if it.Text != "" {
		fields[item.ColText] = DeletedText
	}
	if it.Title != nil && *it.Title != "" {
		fields[item.ColTitle] = DeletedTitle
	}
	if it.URL != nil {
		fields[item.ColURL] = nil
	}
	if it.PollCost != nil {
		fields[item.ColPollCost] = nil
	}
	return fields
}

type Redactor struct {
	store      Store
	log        zerolog.Logger
	now        func() time.Time
	depthLimit int
}

func NewRedactor(store Store, log zerolog.Logger, now func() time.Time, depthLimit int) *Redactor {
	if now == nil {
		now = time.Now
	}
	return &Redactor{store: store, log: log, now: now, depthLimit: depthLimit}
}

// DeleteByAuthor redacts the item with the given id. it may be passed when the
// caller already loaded the item. A missing id yields database.ErrNotFound and
// an already deleted item is returned unchanged.
func (r *Redactor) DeleteByAuthor(ctx context.Context, id item.ID, it *item.Item) (*item.Item, error) {
	if it == nil {
		var err error
		if it, err = r.store.GetItem(ctx, id); err != nil {
			return nil, err
		}
	}
	if it.Deleted() {
		return it, nil
	}
	updated, err := r.store.UpdateItem(ctx, id, RedactFields(it, r.now()))
	if err != nil {
		return nil, err
	}
	r.log.Info().Int64("item", id).Msg("item deleted by author")
	return updated, nil
}

// CommentSubTreeRootID returns the item whose page shows it.
func (r *Redactor) CommentSubTreeRootID(it *item.Item) (item.ID, error) {
	return item.CommentSubTreeRootID(it.Path, r.depthLimit)
}
