package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquilax/itemboard/jobqueue"
)

var _ jobqueue.Queue = (*Memory)(nil)

func TestMemory_FetchDue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	m := New()

	late, err := m.Submit(ctx, jobqueue.Request{Kind: jobqueue.KindPostItem, ItemID: 2, StartAfter: now.Add(time.Hour)})
	require.NoError(t, err)
	second, err := m.Submit(ctx, jobqueue.Request{Kind: jobqueue.KindDeleteItem, ItemID: 1, StartAfter: now.Add(-time.Minute)})
	require.NoError(t, err)
	first, err := m.Submit(ctx, jobqueue.Request{Kind: jobqueue.KindDeleteItem, ItemID: 3, StartAfter: now.Add(-time.Hour)})
	require.NoError(t, err)

	jobs, err := m.Fetch(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, first.ID, jobs[0].ID)
	assert.Equal(t, second.ID, jobs[1].ID)
	assert.Equal(t, jobqueue.StateActive, jobs[0].State)

	jobs, err = m.Fetch(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs, "active jobs are not fetched twice")

	jobs, err = m.Fetch(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, late.ID, jobs[0].ID)
}

func TestMemory_FetchLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	m := New()
	for i := 0; i < 5; i++ {
		_, err := m.Submit(ctx, jobqueue.Request{Kind: jobqueue.KindDeleteItem, ItemID: int64(i), StartAfter: now})
		require.NoError(t, err)
	}
	jobs, err := m.Fetch(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestMemory_CompleteAndFail(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	m := New()
	a, _ := m.Submit(ctx, jobqueue.Request{Kind: jobqueue.KindDeleteItem, ItemID: 1, StartAfter: now})
	b, _ := m.Submit(ctx, jobqueue.Request{Kind: jobqueue.KindPostItem, ItemID: 2, StartAfter: now})

	require.NoError(t, m.Complete(ctx, a.ID))
	require.NoError(t, m.Fail(ctx, b.ID, errors.New("boom")))
	assert.ErrorIs(t, m.Complete(ctx, "missing"), jobqueue.ErrNotFound)

	states := map[string]jobqueue.State{}
	for _, j := range m.Jobs() {
		states[j.ID] = j.State
	}
	assert.Equal(t, jobqueue.StateCompleted, states[a.ID])
	assert.Equal(t, jobqueue.StateFailed, states[b.ID])
	assert.JSONEq(t, `{"error":"boom"}`, m.Output(b.ID))
}
