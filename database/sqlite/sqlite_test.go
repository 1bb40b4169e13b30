package sqlite

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/item"
)

func TestImplementsDatabase(t *testing.T) {
	inter := reflect.TypeOf((*database.Database)(nil)).Elem()

	if !reflect.TypeOf(New()).Implements(inter) {
		t.Errorf("SQLite does not implement the database interface")
	}
}

func openTest(t *testing.T) *SQLite {
	t.Helper()
	db := New()
	require.NoError(t, db.Open("sqlite", "file::memory:?_time_format=sqlite"))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAddAndGetItem(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	title := "hello"
	root := &item.Item{Title: &title, Text: "root text", TripCode: "abc", CreatedAt: now, UpdatedAt: now}
	rootID, err := db.AddItem(ctx, root)
	require.NoError(t, err)
	child := &item.Item{ParentID: &rootID, Text: "child", CreatedAt: now, UpdatedAt: now}
	childID, err := db.AddItem(ctx, child)
	require.NoError(t, err)

	got, err := db.GetItem(ctx, childID)
	require.NoError(t, err)
	assert.Equal(t, "child", got.Text)
	assert.Equal(t, item.ChildPath(item.ChildPath("", rootID), childID), got.Path)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, rootID, *got.ParentID)
	assert.Nil(t, got.Title)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = db.GetItem(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	url := "http://x"
	cost := 5
	id, err := db.AddItem(ctx, &item.Item{Text: "hello", URL: &url, PollCost: &cost, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	got, err := db.UpdateItem(ctx, id, item.Fields{
		item.ColDeletedAt: now,
		item.ColText:      "*deleted by author*",
		item.ColURL:       nil,
		item.ColPollCost:  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "*deleted by author*", got.Text)
	assert.Nil(t, got.URL)
	assert.Nil(t, got.PollCost)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, now.Equal(*got.DeletedAt))

	_, err = db.UpdateItem(ctx, 999, item.Fields{item.ColText: "x"})
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = db.UpdateItem(ctx, id, item.Fields{"score": 100})
	assert.ErrorIs(t, err, database.ErrBadField)
}

func TestChildItemsOrderAndVisibility(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	a, _ := db.AddItem(ctx, &item.Item{Text: "a", CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now})
	b, _ := db.AddItem(ctx, &item.Item{Text: "b", CreatedAt: now.Add(-time.Hour), UpdatedAt: now})
	_, _ = db.AddItem(ctx, &item.Item{Text: "scheduled", CreatedAt: now, UpdatedAt: now, ScheduledAt: &later})
	require.NoError(t, db.BumpVote(ctx, a, 5, now))

	nl, err := db.GetChildItems(ctx, nil, item.SortTop, 10, 0, now)
	require.NoError(t, err)
	require.Len(t, *nl, 2)
	assert.Equal(t, a, (*nl)[0].ID)
	assert.Equal(t, b, (*nl)[1].ID)

	nl, err = db.GetChildItems(ctx, nil, item.SortRecent, 1, 1, now)
	require.NoError(t, err)
	require.Len(t, *nl, 1)
	assert.Equal(t, a, (*nl)[0].ID)

	total, err := db.GetTotalChildItems(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	recent, err := db.GetRecentItems(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, *recent, 2)

	assert.ErrorIs(t, db.BumpVote(ctx, 999, 1, now), database.ErrNotFound)
}
