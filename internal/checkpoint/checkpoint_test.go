package checkpoint

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

func openSQL(t *testing.T) *SQL {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(context.Background(), "sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewSQL(st.CheckpointRepo())
}

func openRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("ADAPTIQ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ADAPTIQ_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() { client.Close() })
	return NewRedis(client)
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemory() },
		"sql":    func(t *testing.T) Store { return openSQL(t) },
		"redis":  func(t *testing.T) Store { return openRedis(t) },
	}
}

func TestStore_SaveLoad(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			rec, err := s.Load(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, rec)

			require.NoError(t, s.Save(ctx, "a1", []byte(`{"position":0}`), "awaiting_response"))
			require.NoError(t, s.Save(ctx, "a1", []byte(`{"position":1}`), "selecting_item"))

			rec, err = s.Load(ctx, "a1")
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, "a1", rec.AttemptID)
			assert.JSONEq(t, `{"position":1}`, string(rec.State))
			assert.Equal(t, "selecting_item", rec.Phase)
			assert.False(t, rec.Abandoned)
			assert.WithinDuration(t, time.Now(), rec.UpdatedAt, time.Minute)
		})
	}
}

func TestStore_MarkAbandoned(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, "open", []byte(`{}`), "awaiting_response"))
			require.NoError(t, s.Save(ctx, "done", []byte(`{}`), "terminated"))

			n, err := s.MarkAbandoned(ctx, time.Now().Add(-time.Hour), []string{"terminated"})
			require.NoError(t, err)
			assert.Equal(t, 0, n, "nothing is older than an hour")

			n, err = s.MarkAbandoned(ctx, time.Now().Add(time.Hour), []string{"terminated"})
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			rec, err := s.Load(ctx, "open")
			require.NoError(t, err)
			assert.True(t, rec.Abandoned)
			assert.Equal(t, "awaiting_response", rec.Phase, "state is left intact")

			done, err := s.Load(ctx, "done")
			require.NoError(t, err)
			assert.False(t, done.Abandoned)

			n, err = s.MarkAbandoned(ctx, time.Now().Add(time.Hour), []string{"terminated"})
			require.NoError(t, err)
			assert.Equal(t, 0, n, "already abandoned checkpoints are not counted again")

			require.NoError(t, s.Save(ctx, "open", []byte(`{}`), "awaiting_response"))
			rec, err = s.Load(ctx, "open")
			require.NoError(t, err)
			assert.False(t, rec.Abandoned, "a fresh save clears the mark")
		})
	}
}

func TestRedis_MarkAbandonedRechecksHash(t *testing.T) {
	s := openRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "resumed", []byte(`{}`), "awaiting_response"))
	require.NoError(t, s.Save(ctx, "finished", []byte(`{}`), "terminated"))
	// Leave the index behind the hashes, as when a Save lands between the
	// sweep's scan and its update.
	for _, id := range []string{"resumed", "finished"} {
		require.NoError(t, s.client.ZAdd(ctx, redisIndexKey, redis.Z{Score: 0, Member: id}).Err())
	}

	n, err := s.MarkAbandoned(ctx, time.Now().Add(-time.Minute), []string{"terminated"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	rec, err := s.Load(ctx, "resumed")
	require.NoError(t, err)
	assert.False(t, rec.Abandoned, "a checkpoint saved after the cutoff is not marked")

	require.NoError(t, s.client.HSet(ctx, redisKeyPrefix+"finished", "updated_at", 0).Err())
	n, err = s.MarkAbandoned(ctx, time.Now().Add(-time.Minute), []string{"terminated"})
	require.NoError(t, err)
	assert.Equal(t, 0, n, "terminal phases are skipped inside the script")
}

func TestMemory_LoadReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	state := []byte("abc")
	require.NoError(t, m.Save(ctx, "a", state, "p"))
	state[0] = 'x'

	rec, err := m.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(rec.State))
	rec.State[0] = 'y'

	again, _ := m.Load(ctx, "a")
	assert.Equal(t, "abc", string(again.State))
}

func TestSweeper(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, "a", []byte(`{}`), "awaiting_response"))
	require.NoError(t, m.Save(ctx, "b", []byte(`{}`), "blocked"))

	sw := NewSweeper(m, []string{"terminated", "blocked"}, logger.Nop())
	n, err := sw.MarkAbandoned(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, closer, err := Open(ctx, "memory", "", nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
	assert.NoError(t, closer.Close())

	_, _, err = Open(ctx, "sql", "", nil)
	assert.Error(t, err)

	_, _, err = Open(ctx, "redis", "", nil)
	assert.ErrorContains(t, err, "ADAPTIQ_REDIS_URL")

	_, _, err = Open(ctx, "etcd", "", nil)
	assert.ErrorContains(t, err, "unknown checkpointer")
}
