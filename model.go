package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/directive"
	"github.com/aquilax/itemboard/effects"
	"github.com/aquilax/itemboard/item"
)

type Model struct {
	db       database.Database
	enqueuer *effects.Enqueuer
	redactor *effects.Redactor
	items    ItemsConfig
	log      zerolog.Logger
	now      func() time.Time
}

// ItemEdit carries the author supplied replacement of an item's content.
type ItemEdit struct {
	Title *string
	Text  string
	URL   *string
}

func NewModel(db database.Database, enqueuer *effects.Enqueuer, redactor *effects.Redactor, items ItemsConfig, log zerolog.Logger, now func() time.Time) *Model {
	return &Model{
		db:       db,
		enqueuer: enqueuer,
		redactor: redactor,
		items:    items,
		log:      log,
		now:      now,
	}
}

// getChildItems returns one page (0 based) of children and their total.
func (m *Model) getChildItems(ctx context.Context, parentID *item.ID, mode item.SortMode, page int) (*item.List, int, error) {
	nl, err := m.db.GetChildItems(ctx, parentID, mode, m.items.PerPage, page*m.items.PerPage, m.now())
	if err != nil {
		return nil, 0, err
	}
	total, err := m.db.GetTotalChildItems(ctx, parentID)
	if err != nil {
		return nil, 0, err
	}
	return nl, total, nil
}

func (m *Model) getRecentItems(ctx context.Context, count int) (*item.List, error) {
	return m.db.GetRecentItems(ctx, count)
}

func (m *Model) getItem(ctx context.Context, id item.ID) (*item.Item, error) {
	return m.db.GetItem(ctx, id)
}

func (m *Model) commentSort(it *item.Item) item.SortMode {
	return item.DefaultCommentSort(it.Pinned, it.Bio, it.CreatedAt, m.now(), m.items.OldItemDays)
}

func (m *Model) subTreeRootID(it *item.Item) (item.ID, error) {
	return m.redactor.CommentSubTreeRootID(it)
}

// addItem freezes a relative schedule into the text, stores the item and
// enqueues the jobs its directives ask for.
func (m *Model) addItem(ctx context.Context, n *item.Item) (item.ID, error) {
	now := m.now()
	n.CreatedAt = now
	n.UpdatedAt = now
	if res := directive.ResolveSchedule(n.Text, now); res.OK {
		at := res.At
		n.Text = res.Text
		n.ScheduledAt = &at
	}
	id, err := m.db.AddItem(ctx, n)
	if err != nil {
		return 0, err
	}
	if _, err := m.enqueuer.EnqueueDelete(ctx, n); err != nil {
		return id, err
	}
	if _, err := m.enqueuer.EnqueueSchedulePublish(ctx, n); err != nil {
		return id, err
	}
	return id, nil
}

// editItem replaces the content of an item. Jobs are only enqueued for
// directives the previous text did not already carry.
func (m *Model) editItem(ctx context.Context, old *item.Item, edit ItemEdit) (*item.Item, error) {
	if old.Deleted() {
		return nil, database.ErrDeleted
	}
	now := m.now()
	fields := item.Fields{
		item.ColTitle:     edit.Title,
		item.ColText:      edit.Text,
		item.ColURL:       edit.URL,
		item.ColUpdatedAt: now,
	}
	publishJob := false
	if old.ScheduledAt != nil {
		res := directive.ResolveSchedule(edit.Text, now)
		switch {
		case !res.OK:
			// Dropping the directive publishes right away.
			fields[item.ColScheduledAt] = nil
			fields[item.ColCreatedAt] = now
		case !res.At.Equal(*old.ScheduledAt):
			fields[item.ColText] = res.Text
			fields[item.ColScheduledAt] = res.At
			publishJob = true
		default:
			fields[item.ColText] = res.Text
		}
	}
	updated, err := m.db.UpdateItem(ctx, old.ID, fields)
	if err != nil {
		return nil, err
	}
	if !directive.ResolveDelete(old.Text, now).OK {
		if _, err := m.enqueuer.EnqueueDelete(ctx, updated); err != nil {
			return updated, err
		}
	}
	if publishJob {
		if _, err := m.enqueuer.EnqueueSchedulePublish(ctx, updated); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

func (m *Model) deleteItem(ctx context.Context, it *item.Item) (*item.Item, error) {
	return m.redactor.DeleteByAuthor(ctx, it.ID, it)
}

func (m *Model) vote(ctx context.Context, id item.ID, vote int) error {
	return m.db.BumpVote(ctx, id, vote, m.now())
}

func (m *Model) getTopItems(ctx context.Context, count int) (*item.List, error) {
	return m.db.GetChildItems(ctx, nil, item.SortRecent, count, 0, m.now())
}
