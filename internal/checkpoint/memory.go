package checkpoint

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is a process-local Store. It does not survive restarts and is
// meant for tests and single-shot terminal sessions.
type Memory struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: map[string]Record{}, now: time.Now}
}

func (m *Memory) Save(_ context.Context, attemptID string, state []byte, phase string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[attemptID] = Record{
		AttemptID: attemptID,
		State:     slices.Clone(state),
		Phase:     phase,
		UpdatedAt: m.now(),
	}
	return nil
}

func (m *Memory) Load(_ context.Context, attemptID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[attemptID]
	if !ok {
		return nil, nil
	}
	rec.State = slices.Clone(rec.State)
	return &rec, nil
}

func (m *Memory) MarkAbandoned(_ context.Context, cutoff time.Time, skip []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rec := range m.records {
		if rec.Abandoned || slices.Contains(skip, rec.Phase) || !rec.UpdatedAt.Before(cutoff) {
			continue
		}
		rec.Abandoned = true
		m.records[id] = rec
		n++
	}
	return n, nil
}
