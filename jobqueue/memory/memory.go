package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aquilax/itemboard/jobqueue"
)

type Memory struct {
	mu   sync.Mutex
	jobs []jobqueue.Job
	errs map[string]string
}

func New() *Memory {
	return &Memory{errs: make(map[string]string)}
}

func (m *Memory) Submit(_ context.Context, req jobqueue.Request) (jobqueue.Job, error) {
	job, err := jobqueue.NewJob(req)
	if err != nil {
		return jobqueue.Job{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return job, nil
}

func (m *Memory) Fetch(_ context.Context, now time.Time, limit int) ([]jobqueue.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []int
	for i, j := range m.jobs {
		if j.State == jobqueue.StateCreated && !j.StartAfter.After(now) {
			due = append(due, i)
		}
	}
	sort.SliceStable(due, func(a, b int) bool {
		return m.jobs[due[a]].StartAfter.Before(m.jobs[due[b]].StartAfter)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	result := make([]jobqueue.Job, len(due))
	for k, i := range due {
		m.jobs[i].State = jobqueue.StateActive
		result[k] = m.jobs[i]
	}
	return result, nil
}

func (m *Memory) setState(id string, state jobqueue.State) error {
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			m.jobs[i].State = state
			return nil
		}
	}
	return jobqueue.ErrNotFound
}

func (m *Memory) Complete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setState(id, jobqueue.StateCompleted)
}

func (m *Memory) Fail(_ context.Context, id string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setState(id, jobqueue.StateFailed); err != nil {
		return err
	}
	m.errs[id] = jobqueue.FailureOutput(cause)
	return nil
}

// Jobs returns a snapshot of every stored job.
func (m *Memory) Jobs() []jobqueue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]jobqueue.Job(nil), m.jobs...)
}

// Output returns the failure output recorded for a job.
func (m *Memory) Output(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[id]
}

func (m *Memory) Close() error {
	return nil
}
