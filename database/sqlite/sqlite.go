package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/item"
)

//go:embed schema.sql
var schema string

type SQLite struct {
	db *sqlx.DB
}

func New() *SQLite {
	return &SQLite{}
}

func (m *SQLite) Open(driver, DSN string) error {
	var err error
	m.db, err = sqlx.Open(driver, DSN)
	if err != nil {
		return err
	}
	// SQLite prefers a single writer.
	m.db.SetMaxOpenConns(1)
	_, _ = m.db.Exec("PRAGMA journal_mode = WAL")
	if _, err := m.db.Exec(schema); err != nil {
		_ = m.db.Close()
		return errors.Wrap(err, "create schema")
	}
	return nil
}

func (m *SQLite) GetChildItems(ctx context.Context, parentID *item.ID, mode item.SortMode, count, offset int, now time.Time) (*item.List, error) {
	var nl item.List
	err := m.db.SelectContext(ctx, &nl, "SELECT * FROM item WHERE parent_id IS ? AND scheduled_at IS NULL", parentID)
	if err != nil {
		return nil, errors.Wrap(err, "get child items")
	}
	item.Sort(nl, mode, now)
	if offset > len(nl) {
		offset = len(nl)
	}
	end := offset + count
	if end > len(nl) {
		end = len(nl)
	}
	page := nl[offset:end]
	return &page, nil
}

func (m *SQLite) GetTotalChildItems(ctx context.Context, parentID *item.ID) (int, error) {
	var total int
	err := m.db.GetContext(ctx, &total, "SELECT count(*) FROM item WHERE parent_id IS ? AND scheduled_at IS NULL", parentID)
	return total, errors.Wrap(err, "count child items")
}

func (m *SQLite) GetRecentItems(ctx context.Context, count int) (*item.List, error) {
	var nl item.List
	err := m.db.SelectContext(ctx, &nl, "SELECT * FROM item WHERE scheduled_at IS NULL AND deleted_at IS NULL ORDER BY created_at DESC LIMIT ?", count)
	if err != nil {
		return nil, errors.Wrap(err, "get recent items")
	}
	return &nl, nil
}

func (m *SQLite) GetItem(ctx context.Context, id item.ID) (*item.Item, error) {
	var n item.Item
	err := m.db.GetContext(ctx, &n, "SELECT * FROM item WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get item")
	}
	return &n, nil
}

func (m *SQLite) AddItem(ctx context.Context, n *item.Item) (item.ID, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	parentPath := ""
	if n.ParentID != nil {
		err = tx.GetContext(ctx, &parentPath, "SELECT path FROM item WHERE id = ?", *n.ParentID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, database.ErrNotFound
		}
		if err != nil {
			return 0, errors.Wrap(err, "get parent")
		}
	}

	res, err := tx.NamedExecContext(ctx, `INSERT INTO item (
			parent_id,
			title,
			text,
			url,
			poll_cost,
			max_bid,
			tripcode,
			score,
			pinned,
			bio,
			created_at,
			updated_at,
			scheduled_at
		) VALUES (
			:parent_id,
			:title,
			:text,
			:url,
			:poll_cost,
			:max_bid,
			:tripcode,
			:score,
			:pinned,
			:bio,
			:created_at,
			:updated_at,
			:scheduled_at
		)`, n)
	if err != nil {
		return 0, errors.Wrap(err, "insert item")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "insert item")
	}
	path := item.ChildPath(parentPath, id)
	if _, err := tx.ExecContext(ctx, "UPDATE item SET path = ? WHERE id = ?", path, id); err != nil {
		return 0, errors.Wrap(err, "set path")
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	n.ID = id
	n.Path = path
	return id, nil
}

func (m *SQLite) UpdateItem(ctx context.Context, id item.ID, fields item.Fields) (*item.Item, error) {
	if err := database.CheckFields(fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return m.GetItem(ctx, id)
	}
	set, args := database.SetClause(fields, func(int) string { return "?" })
	res, err := m.db.ExecContext(ctx, "UPDATE item SET "+set+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return nil, errors.Wrap(err, "update item")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, database.ErrNotFound
	}
	return m.GetItem(ctx, id)
}

func (m *SQLite) BumpVote(ctx context.Context, id item.ID, vote int, updatedAt time.Time) error {
	res, err := m.db.NamedExecContext(ctx, `UPDATE item SET score = score + :vote, updated_at = :updated WHERE id = :id`, map[string]interface{}{
		"vote":    vote,
		"id":      id,
		"updated": updatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "bump vote")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (m *SQLite) Close() error {
	return m.db.Close()
}
