package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/item"
)

type Memory struct {
	mu     sync.Mutex
	nl     item.List
	lastID item.ID
}

func New() *Memory {
	return &Memory{}
}

func min(value int, values ...int) int {
	for _, v := range values {
		if v < value {
			value = v
		}
	}
	return value
}

func find(nl item.List, filter func(n item.Item) bool) item.List {
	var result item.List
	for _, n := range nl {
		if filter(n) {
			result = append(result, n)
		}
	}
	return result
}

func sameParent(a, b *item.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func visible(n item.Item) bool {
	return n.ScheduledAt == nil
}

func (m *Memory) Open(driver, dsn string) error {
	return nil
}

func (m *Memory) GetChildItems(ctx context.Context, parentID *item.ID, mode item.SortMode, count, offset int, now time.Time) (*item.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := find(m.nl, func(n item.Item) bool {
		return visible(n) && sameParent(n.ParentID, parentID)
	})
	item.Sort(found, mode, now)
	if offset > len(found) {
		offset = len(found)
	}
	result := append(item.List(nil), found[offset:min(len(found), offset+count)]...)
	return &result, nil
}

func (m *Memory) GetTotalChildItems(ctx context.Context, parentID *item.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := find(m.nl, func(n item.Item) bool {
		return visible(n) && sameParent(n.ParentID, parentID)
	})
	return len(found), nil
}

func (m *Memory) GetRecentItems(ctx context.Context, count int) (*item.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := find(m.nl, func(n item.Item) bool {
		return visible(n) && !n.Deleted()
	})
	item.Sort(found, item.SortRecent, time.Time{})
	result := append(item.List(nil), found[:min(len(found), count)]...)
	return &result, nil
}

func (m *Memory) GetItem(ctx context.Context, id item.ID) (*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.nl {
		if m.nl[i].ID == id {
			n := m.nl[i]
			return &n, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *Memory) AddItem(ctx context.Context, n *item.Item) (item.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parentPath := ""
	if n.ParentID != nil {
		found := false
		for _, p := range m.nl {
			if p.ID == *n.ParentID {
				parentPath, found = p.Path, true
				break
			}
		}
		if !found {
			return 0, database.ErrNotFound
		}
	}
	m.lastID++
	n.ID = m.lastID
	n.Path = item.ChildPath(parentPath, n.ID)
	m.nl = append(m.nl, *n)
	return n.ID, nil
}

func (m *Memory) UpdateItem(ctx context.Context, id item.ID, fields item.Fields) (*item.Item, error) {
	if err := database.CheckFields(fields); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.nl {
		if m.nl[i].ID == id {
			m.nl[i].Apply(fields)
			n := m.nl[i]
			return &n, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *Memory) BumpVote(ctx context.Context, id item.ID, vote int, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.nl {
		if m.nl[i].ID == id {
			m.nl[i].Score = m.nl[i].Score + vote
			m.nl[i].UpdatedAt = updatedAt
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *Memory) Close() error {
	return nil
}
