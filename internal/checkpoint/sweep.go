package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/adaptiq/internal/logger"
)

// Sweeper flags idle, unfinished checkpoints as abandoned. State is never
// rewritten, so an abandoned attempt can still be inspected.
type Sweeper struct {
	store    Store
	terminal []string
	log      *logger.Logger
}

// NewSweeper creates a Sweeper that leaves checkpoints in any of the
// terminal phases alone.
func NewSweeper(store Store, terminal []string, log *logger.Logger) *Sweeper {
	return &Sweeper{store: store, terminal: terminal, log: log}
}

// MarkAbandoned flags checkpoints last saved before the given time.
func (s *Sweeper) MarkAbandoned(ctx context.Context, before time.Time) (int, error) {
	n, err := s.store.MarkAbandoned(ctx, before, s.terminal)
	if err != nil {
		return 0, fmt.Errorf("sweep checkpoints: %w", err)
	}
	s.log.Info("checkpoint sweep finished", "before", before.Format(time.RFC3339), "abandoned", n)
	return n, nil
}

// Run sweeps every interval, marking checkpoints idle longer than idle,
// until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.MarkAbandoned(ctx, time.Now().Add(-idle)); err != nil {
				s.log.Warn("checkpoint sweep failed", "error", err)
			}
		}
	}
}
