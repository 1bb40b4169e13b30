// Package jobqueue stores one-shot deferred jobs and runs them once they are due.
//
// Backends live in subpackages (memory, sqlite, postgres); the Runner polls a
// Queue on a cron schedule and dispatches jobs to handlers by kind.
package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/aquilax/itemboard/item"
)

type Kind string

const (
	KindDeleteItem Kind = "deleteItem"
	KindPostItem   Kind = "postItem"
)

type State string

const (
	StateCreated   State = "created"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

var ErrNotFound = errors.New("job not found")

// Request asks for Kind to run against an item once StartAfter has passed.
type Request struct {
	Kind       Kind
	ItemID     item.ID
	StartAfter time.Time
}

// Payload is the JSON body stored with every job.
type Payload struct {
	ID item.ID `json:"id"`
}

type Job struct {
	ID         string    `db:"id" json:"id"`
	Kind       Kind      `db:"name" json:"name"`
	Data       []byte    `db:"data" json:"data"`
	State      State     `db:"state" json:"state"`
	StartAfter time.Time `db:"startafter" json:"startAfter"`
}

func (j Job) Payload() (Payload, error) {
	var p Payload
	err := json.Unmarshal(j.Data, &p)
	return p, err
}

type Queue interface {
	Submit(ctx context.Context, req Request) (Job, error)
	// Fetch claims up to limit jobs due at now and marks them active.
	Fetch(ctx context.Context, now time.Time, limit int) ([]Job, error)
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, cause error) error
	Close() error
}

// NewJob builds the job a backend stores for req.
func NewJob(req Request) (Job, error) {
	data, err := json.Marshal(Payload{ID: req.ItemID})
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:         uuid.New().String(),
		Kind:       req.Kind,
		Data:       data,
		State:      StateCreated,
		StartAfter: req.StartAfter.UTC(),
	}, nil
}

// FailureOutput is the JSON stored with a failed job.
func FailureOutput(cause error) string {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

// EpochSeconds encodes t as seconds since the Unix epoch with a fractional part.
func EpochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// FromEpochSeconds is the inverse of EpochSeconds, rounded to the microsecond.
func FromEpochSeconds(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC().Round(time.Microsecond)
}
