package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisAddr = "localhost:6379"

// RedisStore implements Store on top of go-redis. Pooling, cluster and
// sentinel topology and transport retries are the client's business.
type RedisStore struct {
	client redis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore builds a universal client from the given options.
func NewRedisStore(opts ...RedisOption) *RedisStore {
	o := &redis.UniversalOptions{
		Addrs: []string{defaultRedisAddr},
	}
	for _, opt := range opts {
		opt(o)
	}
	return NewRedisStoreWithClient(redis.NewUniversalClient(o))
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func unavailable(cmd, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, cmd, key, err)
}

// scoreFailure classifies a failed score write. A server reply rejecting the
// score, such as an increment resulting in NaN, is ErrInvalidScore like in
// MemoryStore; every other failure is ErrUnavailable.
func scoreFailure(cmd, key string, err error) error {
	var reply redis.Error
	if errors.As(err, &reply) {
		msg := reply.Error()
		if strings.Contains(msg, "NaN") || strings.Contains(msg, "not a valid float") {
			return fmt.Errorf("%w: %s %s: %w", ErrInvalidScore, cmd, key, err)
		}
	}
	return unavailable(cmd, key, err)
}

// formatBound renders a score bound the way ZCOUNT and ZREMRANGEBYSCORE expect.
func formatBound(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func toScoredMembers(zs []redis.Z) []ScoredMember {
	out := make([]ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprint(z.Member)
		}
		out = append(out, ScoredMember{Member: member, Score: z.Score})
	}
	return out
}

// ZAdd implements Store.ZAdd.
func (s *RedisStore) ZAdd(ctx context.Context, key, member string, score float64) (err error) {
	defer observe(BackendRedis, "zadd", time.Now(), &err)
	if math.IsNaN(score) {
		return fmt.Errorf("%w: zadd %s: NaN", ErrInvalidScore, key)
	}
	if err = s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return scoreFailure("zadd", key, err)
	}
	return nil
}

// ZAddBatch implements Store.ZAddBatch. It returns the number of new members.
func (s *RedisStore) ZAddBatch(ctx context.Context, key string, members []ScoredMember) (n int64, err error) {
	if len(members) == 0 {
		return 0, nil
	}
	defer observe(BackendRedis, "zadd", time.Now(), &err)
	zs := make([]redis.Z, len(members))
	for i, m := range members {
		if math.IsNaN(m.Score) {
			return 0, fmt.Errorf("%w: zadd %s: NaN for %q", ErrInvalidScore, key, m.Member)
		}
		zs[i] = redis.Z{Score: m.Score, Member: m.Member}
	}
	n, err = s.client.ZAdd(ctx, key, zs...).Result()
	if err != nil {
		return 0, scoreFailure("zadd", key, err)
	}
	return n, nil
}

// ZIncrBy implements Store.ZIncrBy.
func (s *RedisStore) ZIncrBy(ctx context.Context, key, member string, delta float64) (score float64, err error) {
	defer observe(BackendRedis, "zincrby", time.Now(), &err)
	if math.IsNaN(delta) {
		return 0, fmt.Errorf("%w: zincrby %s: NaN delta", ErrInvalidScore, key)
	}
	score, err = s.client.ZIncrBy(ctx, key, delta, member).Result()
	if err != nil {
		return 0, scoreFailure("zincrby", key, err)
	}
	return score, nil
}

// ZScore implements Store.ZScore.
func (s *RedisStore) ZScore(ctx context.Context, key, member string) (score float64, ok bool, err error) {
	defer observe(BackendRedis, "zscore", time.Now(), &err)
	score, err = s.client.ZScore(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable("zscore", key, err)
	}
	return score, true, nil
}

// ZRem implements Store.ZRem.
func (s *RedisStore) ZRem(ctx context.Context, key string, members ...string) (n int64, err error) {
	if len(members) == 0 {
		return 0, nil
	}
	defer observe(BackendRedis, "zrem", time.Now(), &err)
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	n, err = s.client.ZRem(ctx, key, args...).Result()
	if err != nil {
		return 0, unavailable("zrem", key, err)
	}
	return n, nil
}

// ZRemRangeByRank implements Store.ZRemRangeByRank.
func (s *RedisStore) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) (n int64, err error) {
	defer observe(BackendRedis, "zremrangebyrank", time.Now(), &err)
	n, err = s.client.ZRemRangeByRank(ctx, key, start, stop).Result()
	if err != nil {
		return 0, unavailable("zremrangebyrank", key, err)
	}
	return n, nil
}

// ZRemRangeByScore implements Store.ZRemRangeByScore.
func (s *RedisStore) ZRemRangeByScore(ctx context.Context, key string, min, max float64) (n int64, err error) {
	defer observe(BackendRedis, "zremrangebyscore", time.Now(), &err)
	n, err = s.client.ZRemRangeByScore(ctx, key, formatBound(min), formatBound(max)).Result()
	if err != nil {
		return 0, unavailable("zremrangebyscore", key, err)
	}
	return n, nil
}

// ZRank implements Store.ZRank.
func (s *RedisStore) ZRank(ctx context.Context, key, member string) (rank int64, ok bool, err error) {
	defer observe(BackendRedis, "zrank", time.Now(), &err)
	return rankResult("zrank", key, s.client.ZRank(ctx, key, member))
}

// ZRevRank implements Store.ZRevRank.
func (s *RedisStore) ZRevRank(ctx context.Context, key, member string) (rank int64, ok bool, err error) {
	defer observe(BackendRedis, "zrevrank", time.Now(), &err)
	return rankResult("zrevrank", key, s.client.ZRevRank(ctx, key, member))
}

func rankResult(cmd, key string, c *redis.IntCmd) (int64, bool, error) {
	rank, err := c.Result()
	if errors.Is(err, redis.Nil) {
		return -1, false, nil
	}
	if err != nil {
		return -1, false, unavailable(cmd, key, err)
	}
	return rank, true, nil
}

// ZRangeWithScores implements Store.ZRangeWithScores.
func (s *RedisStore) ZRangeWithScores(ctx context.Context, key string, start, stop int64) (out []ScoredMember, err error) {
	defer observe(BackendRedis, "zrange", time.Now(), &err)
	zs, err := s.client.ZRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, unavailable("zrange", key, err)
	}
	return toScoredMembers(zs), nil
}

// ZRevRangeWithScores implements Store.ZRevRangeWithScores.
func (s *RedisStore) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) (out []ScoredMember, err error) {
	defer observe(BackendRedis, "zrevrange", time.Now(), &err)
	zs, err := s.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, unavailable("zrevrange", key, err)
	}
	return toScoredMembers(zs), nil
}

// ZCard implements Store.ZCard.
func (s *RedisStore) ZCard(ctx context.Context, key string) (n int64, err error) {
	defer observe(BackendRedis, "zcard", time.Now(), &err)
	n, err = s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, unavailable("zcard", key, err)
	}
	return n, nil
}

// ZCount implements Store.ZCount.
func (s *RedisStore) ZCount(ctx context.Context, key string, min, max float64) (n int64, err error) {
	defer observe(BackendRedis, "zcount", time.Now(), &err)
	n, err = s.client.ZCount(ctx, key, formatBound(min), formatBound(max)).Result()
	if err != nil {
		return 0, unavailable("zcount", key, err)
	}
	return n, nil
}

// HGet implements Store.HGet.
func (s *RedisStore) HGet(ctx context.Context, key, field string) (v string, ok bool, err error) {
	defer observe(BackendRedis, "hget", time.Now(), &err)
	v, err = s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("hget", key, err)
	}
	return v, true, nil
}

// HSet implements Store.HSet.
func (s *RedisStore) HSet(ctx context.Context, key, field, value string) (err error) {
	defer observe(BackendRedis, "hset", time.Now(), &err)
	if err = s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return unavailable("hset", key, err)
	}
	return nil
}

// HDel implements Store.HDel.
func (s *RedisStore) HDel(ctx context.Context, key string, fields ...string) (n int64, err error) {
	if len(fields) == 0 {
		return 0, nil
	}
	defer observe(BackendRedis, "hdel", time.Now(), &err)
	n, err = s.client.HDel(ctx, key, fields...).Result()
	if err != nil {
		return 0, unavailable("hdel", key, err)
	}
	return n, nil
}

// HGetAll implements Store.HGetAll.
func (s *RedisStore) HGetAll(ctx context.Context, key string) (m map[string]string, err error) {
	defer observe(BackendRedis, "hgetall", time.Now(), &err)
	m, err = s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, unavailable("hgetall", key, err)
	}
	return m, nil
}

// SAdd implements Store.SAdd.
func (s *RedisStore) SAdd(ctx context.Context, key, member string) (err error) {
	defer observe(BackendRedis, "sadd", time.Now(), &err)
	if err = s.client.SAdd(ctx, key, member).Err(); err != nil {
		return unavailable("sadd", key, err)
	}
	return nil
}

// SRem implements Store.SRem.
func (s *RedisStore) SRem(ctx context.Context, key, member string) (err error) {
	defer observe(BackendRedis, "srem", time.Now(), &err)
	if err = s.client.SRem(ctx, key, member).Err(); err != nil {
		return unavailable("srem", key, err)
	}
	return nil
}

// SMembers implements Store.SMembers.
func (s *RedisStore) SMembers(ctx context.Context, key string) (members []string, err error) {
	defer observe(BackendRedis, "smembers", time.Now(), &err)
	members, err = s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, unavailable("smembers", key, err)
	}
	return members, nil
}

// Ping implements Store.Ping.
func (s *RedisStore) Ping(ctx context.Context) (err error) {
	defer observe(BackendRedis, "ping", time.Now(), &err)
	if err = s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", "", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
