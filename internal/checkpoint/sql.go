package checkpoint

import (
	"context"
	"time"

	"github.com/abhisek/adaptiq/internal/store"
)

// SQL is a Store backed by the checkpoints table.
type SQL struct {
	repo store.CheckpointRepo
}

// NewSQL wraps a checkpoint repository.
func NewSQL(repo store.CheckpointRepo) *SQL {
	return &SQL{repo: repo}
}

func (s *SQL) Save(ctx context.Context, attemptID string, state []byte, phase string) error {
	return s.repo.Save(ctx, attemptID, state, phase)
}

func (s *SQL) Load(ctx context.Context, attemptID string) (*Record, error) {
	rec, err := s.repo.Load(ctx, attemptID)
	if err != nil || rec == nil {
		return nil, err
	}
	return &Record{
		AttemptID: rec.AttemptID,
		State:     rec.State,
		Phase:     rec.Phase,
		UpdatedAt: rec.UpdatedAt,
		Abandoned: rec.Abandoned,
	}, nil
}

func (s *SQL) MarkAbandoned(ctx context.Context, cutoff time.Time, skip []string) (int, error) {
	return s.repo.MarkAbandoned(ctx, cutoff, skip)
}
