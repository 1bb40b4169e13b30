package memory

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
		t.Errorf("Memory does not implement the database interface")
	}
}

func TestAddItemBuildsPath(t *testing.T) {
	ctx := context.Background()
	m := New()
	root := &item.Item{Text: "root"}
	rootID, err := m.AddItem(ctx, root)
	require.NoError(t, err)
	child := &item.Item{Text: "child", ParentID: &rootID}
	childID, err := m.AddItem(ctx, child)
	require.NoError(t, err)
	grandChild := &item.Item{Text: "grand child", ParentID: &childID}
	_, err = m.AddItem(ctx, grandChild)
	require.NoError(t, err)

	assert.Equal(t, "1", root.Path)
	assert.Equal(t, "1.2", child.Path)
	assert.Equal(t, "1.2.3", grandChild.Path)

	missing := item.ID(99)
	_, err = m.AddItem(ctx, &item.Item{ParentID: &missing})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	m := New()
	url := "http://x"
	id, err := m.AddItem(ctx, &item.Item{Text: "hello", URL: &url})
	require.NoError(t, err)

	now := time.Date(2024, time.February, 18, 0, 0, 0, 0, time.UTC)
	got, err := m.UpdateItem(ctx, id, item.Fields{item.ColURL: nil, item.ColDeletedAt: now})
	require.NoError(t, err)
	assert.Nil(t, got.URL)
	assert.Equal(t, "hello", got.Text)
	require.NotNil(t, got.DeletedAt)

	_, err = m.UpdateItem(ctx, 42, item.Fields{item.ColText: "x"})
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = m.UpdateItem(ctx, id, item.Fields{"tripcode": "x"})
	assert.ErrorIs(t, err, database.ErrBadField)
}

func TestGetChildItemsHidesScheduled(t *testing.T) {
	ctx := context.Background()
	m := New()
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	_, _ = m.AddItem(ctx, &item.Item{Text: "a", CreatedAt: now.Add(-2 * time.Hour)})
	_, _ = m.AddItem(ctx, &item.Item{Text: "b", CreatedAt: now.Add(-time.Hour)})
	_, _ = m.AddItem(ctx, &item.Item{Text: "c", CreatedAt: now, ScheduledAt: &later})

	nl, err := m.GetChildItems(ctx, nil, item.SortRecent, 10, 0, now)
	require.NoError(t, err)
	require.Len(t, *nl, 2)
	assert.Equal(t, "b", (*nl)[0].Text)

	total, err := m.GetTotalChildItems(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	nl, err = m.GetChildItems(ctx, nil, item.SortRecent, 10, 5, now)
	require.NoError(t, err)
	assert.Empty(t, *nl)
}

func TestBumpVote(t *testing.T) {
	ctx := context.Background()
	m := New()
	id, _ := m.AddItem(ctx, &item.Item{Text: "a"})
	now := time.Now()
	require.NoError(t, m.BumpVote(ctx, id, 1, now))
	require.NoError(t, m.BumpVote(ctx, id, 1, now))
	got, err := m.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Score)
	assert.ErrorIs(t, m.BumpVote(ctx, 77, 1, now), database.ErrNotFound)
}
