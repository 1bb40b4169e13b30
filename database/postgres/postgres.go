package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/item"
)

//go:embed schema.sql
var schema string

var orderBy = map[item.SortMode]string{
	item.SortRecent: "created_at DESC",
	item.SortTop:    "score DESC, created_at DESC",
	item.SortHot:    "(score + 1) / POWER(GREATEST(EXTRACT(EPOCH FROM ($4::timestamptz - created_at)) / 3600, 0) + 2, 1.8) DESC, created_at DESC",
}

type Postgres struct {
	db *sqlx.DB
}

func New() *Postgres {
	return &Postgres{}
}

// NewWithDB wraps an already opened connection.
func NewWithDB(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (m *Postgres) Open(driver, DSN string) error {
	var err error
	m.db, err = sqlx.Open(driver, DSN)
	if err != nil {
		return err
	}
	if err := m.db.Ping(); err != nil {
		return err
	}
	return m.Migrate(context.Background())
}

func (m *Postgres) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "create schema")
}

func (m *Postgres) GetChildItems(ctx context.Context, parentID *item.ID, mode item.SortMode, count, offset int, now time.Time) (*item.List, error) {
	order, ok := orderBy[mode]
	if !ok {
		order = orderBy[item.SortRecent]
	}
	args := []interface{}{parentID, count, offset}
	if mode == item.SortHot {
		args = append(args, now)
	}
	nl := item.List{}
	err := m.db.SelectContext(ctx, &nl,
		"SELECT * FROM item WHERE parent_id IS NOT DISTINCT FROM $1 AND scheduled_at IS NULL ORDER BY "+order+" LIMIT $2 OFFSET $3",
		args...)
	if err != nil {
		return nil, errors.Wrap(err, "get child items")
	}
	return &nl, nil
}

func (m *Postgres) GetTotalChildItems(ctx context.Context, parentID *item.ID) (int, error) {
	var total int
	err := m.db.GetContext(ctx, &total, "SELECT count(*) FROM item WHERE parent_id IS NOT DISTINCT FROM $1 AND scheduled_at IS NULL", parentID)
	return total, errors.Wrap(err, "count child items")
}

func (m *Postgres) GetRecentItems(ctx context.Context, count int) (*item.List, error) {
	nl := item.List{}
	err := m.db.SelectContext(ctx, &nl, "SELECT * FROM item WHERE scheduled_at IS NULL AND deleted_at IS NULL ORDER BY created_at DESC LIMIT $1", count)
	if err != nil {
		return nil, errors.Wrap(err, "get recent items")
	}
	return &nl, nil
}

func (m *Postgres) GetItem(ctx context.Context, id item.ID) (*item.Item, error) {
	var n item.Item
	err := m.db.GetContext(ctx, &n, "SELECT * FROM item WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get item")
	}
	return &n, nil
}

func (m *Postgres) AddItem(ctx context.Context, n *item.Item) (item.ID, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	parentPath := ""
	if n.ParentID != nil {
		err = tx.GetContext(ctx, &parentPath, "SELECT path FROM item WHERE id = $1", *n.ParentID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, database.ErrNotFound
		}
		if err != nil {
			return 0, errors.Wrap(err, "get parent")
		}
	}

	var id item.ID
	err = tx.GetContext(ctx, &id, `INSERT INTO item (
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		n.ParentID, n.Title, n.Text, n.URL, n.PollCost, n.MaxBid, n.TripCode,
		n.Score, n.Pinned, n.Bio, n.CreatedAt, n.UpdatedAt, n.ScheduledAt)
	if err != nil {
		return 0, errors.Wrap(err, "insert item")
	}
	path := item.ChildPath(parentPath, id)
	if _, err := tx.ExecContext(ctx, "UPDATE item SET path = $1 WHERE id = $2", path, id); err != nil {
		return 0, errors.Wrap(err, "set path")
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	n.ID = id
	n.Path = path
	return id, nil
}

func (m *Postgres) UpdateItem(ctx context.Context, id item.ID, fields item.Fields) (*item.Item, error) {
	if err := database.CheckFields(fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return m.GetItem(ctx, id)
	}
	set, args := database.SetClause(fields, func(n int) string { return "$" + strconv.Itoa(n) })
	query := "UPDATE item SET " + set + " WHERE id = $" + strconv.Itoa(len(args)+1) + " RETURNING *"
	var n item.Item
	err := m.db.GetContext(ctx, &n, query, append(args, id)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update item")
	}
	return &n, nil
}

func (m *Postgres) BumpVote(ctx context.Context, id item.ID, vote int, updatedAt time.Time) error {
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

func (m *Postgres) Close() error {
	return m.db.Close()
}
