// Package checkpoint stores attempt state between turns.
//
// Every backend is keyed by attempt identifier and holds the latest
// serialized state only. A save fully replaces the previous state.
package checkpoint

import (
	"context"
	"time"
)

// Record is one stored checkpoint.
type Record struct {
	AttemptID string
	State     []byte
	Phase     string
	UpdatedAt time.Time
	Abandoned bool
}

// Store is a durable checkpoint backend.
type Store interface {
	// Save replaces the checkpoint for attemptID and clears any
	// abandoned mark.
	Save(ctx context.Context, attemptID string, state []byte, phase string) error

	// Load returns nil, nil when no checkpoint exists.
	Load(ctx context.Context, attemptID string) (*Record, error)

	// MarkAbandoned flags checkpoints last saved before cutoff whose phase
	// is not in skip. It returns the number of newly flagged checkpoints.
	MarkAbandoned(ctx context.Context, cutoff time.Time, skip []string) (int, error)
}
