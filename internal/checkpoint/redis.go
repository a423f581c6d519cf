package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "adaptiq:checkpoint:"
	redisIndexKey  = "adaptiq:checkpoints"
)

// markAbandoned sets the abandoned flag on one checkpoint hash when it is
// still older than the cutoff (ARGV[1], unix millis), not already marked
// and not in one of the skipped phases (ARGV[2:]). It runs atomically, so
// a Save that lands after the index scan wins.
var markAbandoned = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'phase', 'abandoned', 'updated_at')
if not v[1] or v[2] == '1' or not v[3] or tonumber(v[3]) >= tonumber(ARGV[1]) then
	return 0
end
for i = 2, #ARGV do
	if v[1] == ARGV[i] then
		return 0
	end
end
redis.call('HSET', KEYS[1], 'abandoned', 1)
return 1
`)

// Redis is a Store that keeps each checkpoint in a hash and indexes
// attempts by last save time in a sorted set.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// DialRedis parses a redis:// URL and pings the server.
func DialRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client), nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Save(ctx context.Context, attemptID string, state []byte, phase string) error {
	now := time.Now()
	key := redisKeyPrefix + attemptID
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"state", state,
			"phase", phase,
			"updated_at", now.UnixMilli(),
			"abandoned", 0,
		)
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(now.UnixMilli()), Member: attemptID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", attemptID, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, attemptID string) (*Record, error) {
	vals, err := r.client.HGetAll(ctx, redisKeyPrefix+attemptID).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(vals) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", attemptID, err)
	}
	ms, err := strconv.ParseInt(vals["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: bad updated_at: %w", attemptID, err)
	}
	return &Record{
		AttemptID: attemptID,
		State:     []byte(vals["state"]),
		Phase:     vals["phase"],
		UpdatedAt: time.UnixMilli(ms),
		Abandoned: vals["abandoned"] == "1",
	}, nil
}

func (r *Redis) MarkAbandoned(ctx context.Context, cutoff time.Time, skip []string) (int, error) {
	ms := cutoff.UnixMilli()
	ids, err := r.client.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(ms, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan checkpoint index: %w", err)
	}

	args := make([]any, 0, len(skip)+1)
	args = append(args, ms)
	for _, p := range skip {
		args = append(args, p)
	}

	n := 0
	for _, id := range ids {
		marked, err := markAbandoned.Run(ctx, r.client, []string{redisKeyPrefix + id}, args...).Int()
		if err != nil {
			return n, fmt.Errorf("mark checkpoint %s: %w", id, err)
		}
		n += marked
	}
	return n, nil
}
