package checkpoint

import (
	"context"
	"fmt"
	"io"

	"github.com/abhisek/adaptiq/internal/store"
)

// Open selects a backend by name: "sql", "redis" or "memory". The returned
// closer releases backend resources and is never nil.
func Open(ctx context.Context, kind, redisURL string, st *store.Store) (Store, io.Closer, error) {
	switch kind {
	case "", "sql":
		if st == nil {
			return nil, nil, fmt.Errorf("sql checkpointer requires a store")
		}
		return NewSQL(st.CheckpointRepo()), nopCloser{}, nil
	case "redis":
		if redisURL == "" {
			return nil, nil, fmt.Errorf("redis checkpointer requires ADAPTIQ_REDIS_URL")
		}
		r, err := DialRedis(ctx, redisURL)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	case "memory":
		return NewMemory(), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown checkpointer %q", kind)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
