// Package store defines the ordered score store consumed by the ranking core
// and ships two implementations: a Redis-backed one and an in-memory one.
//
// Both implementations follow Redis sorted-set semantics: members are ordered
// by score ascending and equal scores are ordered by member bytes ascending.
// The recency leaderboard relies on that tie-break.
package store

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks

import (
	"context"
	"time"

	"github.com/okian/rankd/pkg/metrics"
)

// ScoredMember is one sorted-set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// Store is the ordered score store contract. Every call is atomic at the
// single-key level; nothing here is atomic across keys.
//
// Lookups that miss report ok == false with a nil error. Transport failures
// are wrapped with ErrUnavailable.
type Store interface {
	// Sorted sets.
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZAddBatch(ctx context.Context, key string, members []ScoredMember) (int64, error)
	ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error)
	ZScore(ctx context.Context, key, member string) (float64, bool, error)
	ZRem(ctx context.Context, key string, members ...string) (int64, error)
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error)
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) (int64, error)
	ZRank(ctx context.Context, key, member string) (int64, bool, error)
	ZRevRank(ctx context.Context, key, member string) (int64, bool, error)
	ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	ZCard(ctx context.Context, key string) (int64, error)
	ZCount(ctx context.Context, key string, min, max float64) (int64, error)

	// Hashes.
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) (int64, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Sets.
	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying resources.
	Close() error
}

// Backend names used in metrics labels and configuration.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// observe records latency and failures for a single store command.
func observe(backend, cmd string, start time.Time, errp *error) {
	metrics.RecordStoreCommandLatency(backend, cmd, float64(time.Since(start).Microseconds())/1000)
	if errp != nil && *errp != nil {
		metrics.RecordStoreCommandError(backend, cmd)
	}
}
