// Package effects turns resolved directives into deferred jobs and applies the
// jobs' effects to stored items when they fire.
package effects

import (
	"context"

	"github.com/aquilax/itemboard/item"
	"github.com/aquilax/itemboard/jobqueue"
)

// Redaction sentinels written over an item deleted by its author.
const (
	DeletedText  = "*deleted by author*"
	DeletedTitle = "deleted by author"
)

// Store is the part of the persistence layer effects need.
type Store interface {
	GetItem(ctx context.Context, id item.ID) (*item.Item, error)
	UpdateItem(ctx context.Context, id item.ID, fields item.Fields) (*item.Item, error)
}

// Submitter accepts deferred job requests.
type Submitter interface {
	Submit(ctx context.Context, req jobqueue.Request) (jobqueue.Job, error)
}
