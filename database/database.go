package database

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/aquilax/itemboard/item"
)

var (
	ErrNotFound = errors.New("item not found")
	// ErrDeleted is returned when editing an item that was already redacted.
	ErrDeleted = errors.New("item deleted")
	// ErrBadField is returned for updates naming a column outside item.Updatable.
	ErrBadField = errors.New("field not updatable")
)

type Database interface {
	Open(driver, dsn string) error
	GetItem(ctx context.Context, id item.ID) (*item.Item, error)
	GetChildItems(ctx context.Context, parentID *item.ID, mode item.SortMode, count, offset int, now time.Time) (*item.List, error)
	GetTotalChildItems(ctx context.Context, parentID *item.ID) (int, error)
	GetRecentItems(ctx context.Context, count int) (*item.List, error)
	AddItem(ctx context.Context, it *item.Item) (item.ID, error)
	UpdateItem(ctx context.Context, id item.ID, fields item.Fields) (*item.Item, error)
	BumpVote(ctx context.Context, id item.ID, vote int, updatedAt time.Time) error
	Close() error
}

// CheckFields rejects updates naming columns that are not updatable.
func CheckFields(fields item.Fields) error {
	for k := range fields {
		if !item.Updatable(k) {
			return ErrBadField
		}
	}
	return nil
}

// SetClause renders fields as `col = <bindvar>` pairs in column order and
// returns the matching arguments. bindvar receives the 1-based position.
func SetClause(fields item.Fields, bindvar func(n int) string) (string, []interface{}) {
	cols := make([]string, 0, len(fields))
	for k := range fields {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		parts[i] = c + " = " + bindvar(i+1)
		args[i] = fields[c]
	}
	return strings.Join(parts, ", "), args
}
