package item

import (
	"strconv"
	"strings"
	"time"
)

type ID = int64

// Column names accepted in Fields.
const (
	ColTitle       = "title"
	ColText        = "text"
	ColURL         = "url"
	ColPollCost    = "poll_cost"
	ColPinned      = "pinned"
	ColCreatedAt   = "created_at"
	ColUpdatedAt   = "updated_at"
	ColDeletedAt   = "deleted_at"
	ColScheduledAt = "scheduled_at"
)

var updatable = map[string]bool{
	ColTitle:       true,
	ColText:        true,
	ColURL:         true,
	ColPollCost:    true,
	ColPinned:      true,
	ColCreatedAt:   true,
	ColUpdatedAt:   true,
	ColDeletedAt:   true,
	ColScheduledAt: true,
}

// Updatable reports whether column may appear in Fields.
func Updatable(column string) bool {
	return updatable[column]
}

type Item struct {
	ID          ID         `db:"id" json:"id"`
	ParentID    *ID        `db:"parent_id" json:"parentId,omitempty"`
	Path        string     `db:"path" json:"path"`
	Title       *string    `db:"title" json:"title,omitempty"`
	Text        string     `db:"text" json:"text"`
	URL         *string    `db:"url" json:"url,omitempty"`
	PollCost    *int       `db:"poll_cost" json:"pollCost,omitempty"`
	MaxBid      *int       `db:"max_bid" json:"maxBid,omitempty"`
	TripCode    string     `db:"tripcode" json:"tripcode"`
	Score       int        `db:"score" json:"score"`
	Pinned      bool       `db:"pinned" json:"pinned"`
	Bio         bool       `db:"bio" json:"bio"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduledAt,omitempty"`
}

type List []Item

// IsJob reports whether the item is a job listing.
func (i *Item) IsJob() bool {
	return i.MaxBid != nil
}

func (i *Item) Deleted() bool {
	return i.DeletedAt != nil
}

func (i *Item) TitleString() string {
	if i.Title == nil {
		return ""
	}
	return *i.Title
}

// Fields is a partial update keyed by column name. A nil value stores NULL;
// a missing key leaves the column untouched.
type Fields map[string]interface{}

// Apply copies fields onto the item. Unknown columns are ignored; callers
// validate with Updatable first.
func (i *Item) Apply(f Fields) {
	for k, v := range f {
		switch k {
		case ColTitle:
			i.Title = stringPtr(v)
		case ColText:
			if s := stringPtr(v); s != nil {
				i.Text = *s
			} else {
				i.Text = ""
			}
		case ColURL:
			i.URL = stringPtr(v)
		case ColPollCost:
			i.PollCost = intPtr(v)
		case ColPinned:
			i.Pinned, _ = v.(bool)
		case ColCreatedAt:
			if t := timePtr(v); t != nil {
				i.CreatedAt = *t
			}
		case ColUpdatedAt:
			if t := timePtr(v); t != nil {
				i.UpdatedAt = *t
			}
		case ColDeletedAt:
			i.DeletedAt = timePtr(v)
		case ColScheduledAt:
			i.ScheduledAt = timePtr(v)
		}
	}
}

func stringPtr(v interface{}) *string {
	switch s := v.(type) {
	case string:
		return &s
	case *string:
		return s
	}
	return nil
}

func intPtr(v interface{}) *int {
	switch n := v.(type) {
	case int:
		return &n
	case *int:
		return n
	}
	return nil
}

func timePtr(v interface{}) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	}
	return nil
}

// ChildPath returns the path of a new child of the item with the given path.
func ChildPath(parentPath string, id ID) string {
	own := strconv.FormatInt(id, 10)
	if parentPath == "" {
		return own
	}
	return parentPath + "." + own
}

// CommentSubTreeRootID returns the ancestor that owns the rendering subtree of
// the item at path when threads are cut at depthLimit levels. Paths shorter than
// the limit resolve to their root.
func CommentSubTreeRootID(path string, depthLimit int) (ID, error) {
	ids := strings.Split(path, ".")
	keep := depthLimit - 1
	if keep < 1 {
		keep = 1
	}
	idx := len(ids) - keep
	if idx < 0 {
		idx = 0
	}
	return strconv.ParseInt(ids[idx], 10, 64)
}
