package cached

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/item"
)

type GetTotalChildItemsCache map[string]int
type GetItemCache map[item.ID]*item.Item
type GetChildItemsCache map[string]*item.List

// Cached is a read-through cache in front of another Database. Every write
// drops all cached reads.
type Cached struct {
	db              database.Database
	mu              sync.RWMutex
	totalsCache     GetTotalChildItemsCache
	itemCache       GetItemCache
	childItemsCache GetChildItemsCache
}

func New(db database.Database) *Cached {
	return &Cached{
		db:              db,
		totalsCache:     make(GetTotalChildItemsCache),
		itemCache:       make(GetItemCache),
		childItemsCache: make(GetChildItemsCache),
	}
}

func parentKey(parentID *item.ID) string {
	if parentID == nil {
		return "root"
	}
	return fmt.Sprintf("%d", *parentID)
}

func (m *Cached) clear() {
	m.mu.Lock()
	m.totalsCache = make(GetTotalChildItemsCache)
	m.itemCache = make(GetItemCache)
	m.childItemsCache = make(GetChildItemsCache)
	m.mu.Unlock()
}

func (m *Cached) Open(driver, dsn string) error {
	return m.db.Open(driver, dsn)
}

func (m *Cached) GetChildItems(ctx context.Context, parentID *item.ID, mode item.SortMode, count, offset int, now time.Time) (*item.List, error) {
	// hot depends on the current time
	if mode == item.SortHot {
		return m.db.GetChildItems(ctx, parentID, mode, count, offset, now)
	}
	key := fmt.Sprintf("%s|%s|%d|%d", parentKey(parentID), mode, count, offset)
	m.mu.RLock()
	result, found := m.childItemsCache[key]
	m.mu.RUnlock()
	if found {
		return result, nil
	}
	result, err := m.db.GetChildItems(ctx, parentID, mode, count, offset, now)
	if err == nil {
		m.mu.Lock()
		m.childItemsCache[key] = result
		m.mu.Unlock()
	}
	return result, err
}

func (m *Cached) GetRecentItems(ctx context.Context, count int) (*item.List, error) {
	return m.db.GetRecentItems(ctx, count)
}

func (m *Cached) GetTotalChildItems(ctx context.Context, parentID *item.ID) (int, error) {
	key := parentKey(parentID)
	m.mu.RLock()
	result, found := m.totalsCache[key]
	m.mu.RUnlock()
	if found {
		return result, nil
	}
	result, err := m.db.GetTotalChildItems(ctx, parentID)
	if err == nil {
		m.mu.Lock()
		m.totalsCache[key] = result
		m.mu.Unlock()
	}
	return result, err
}

func (m *Cached) GetItem(ctx context.Context, id item.ID) (*item.Item, error) {
	m.mu.RLock()
	result, found := m.itemCache[id]
	m.mu.RUnlock()
	if found {
		n := *result
		return &n, nil
	}
	result, err := m.db.GetItem(ctx, id)
	if err == nil {
		n := *result
		m.mu.Lock()
		m.itemCache[id] = &n
		m.mu.Unlock()
	}
	return result, err
}

func (m *Cached) AddItem(ctx context.Context, n *item.Item) (item.ID, error) {
	result, err := m.db.AddItem(ctx, n)
	if err == nil {
		m.clear()
	}
	return result, err
}

func (m *Cached) UpdateItem(ctx context.Context, id item.ID, fields item.Fields) (*item.Item, error) {
	result, err := m.db.UpdateItem(ctx, id, fields)
	if err == nil {
		m.clear()
	}
	return result, err
}

func (m *Cached) BumpVote(ctx context.Context, id item.ID, vote int, updatedAt time.Time) error {
	err := m.db.BumpVote(ctx, id, vote, updatedAt)
	if err == nil {
		m.clear()
	}
	return err
}

func (m *Cached) Close() error {
	return m.db.Close()
}
