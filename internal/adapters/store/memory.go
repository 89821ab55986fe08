package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It keeps Redis semantics (empty keys
// disappear, equal scores order by member) so the ranking core behaves the
// same on either backend. Useful for tests and single-node deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	zsets  map[string]*zset
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		zsets:  make(map[string]*zset),
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]struct{}),
	}
}

// errClosed is reported by every call after Close.
func errClosed(cmd, key string) error {
	return fmt.Errorf("%w: %s %s: store closed", ErrUnavailable, cmd, key)
}

func (s *MemoryStore) dropIfEmpty(key string) {
	if z, ok := s.zsets[key]; ok && z.card() == 0 {
		delete(s.zsets, key)
	}
}

// ZAdd implements Store.ZAdd.
func (s *MemoryStore) ZAdd(_ context.Context, key, member string, score float64) error {
	defer observe(BackendMemory, "zadd", time.Now(), nil)
	if math.IsNaN(score) {
		return fmt.Errorf("%w: zadd %s: NaN", ErrInvalidScore, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed("zadd", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		z = newZSet()
		s.zsets[key] = z
	}
	z.add(member, score)
	return nil
}

// ZAddBatch implements Store.ZAddBatch.
func (s *MemoryStore) ZAddBatch(_ context.Context, key string, members []ScoredMember) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	defer observe(BackendMemory, "zadd", time.Now(), nil)
	for _, m := range members {
		if math.IsNaN(m.Score) {
			return 0, fmt.Errorf("%w: zadd %s: NaN for %q", ErrInvalidScore, key, m.Member)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("zadd", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		z = newZSet()
		s.zsets[key] = z
	}
	var added int64
	for _, m := range members {
		if z.add(m.Member, m.Score) {
			added++
		}
	}
	return added, nil
}

// ZIncrBy implements Store.ZIncrBy.
func (s *MemoryStore) ZIncrBy(_ context.Context, key, member string, delta float64) (float64, error) {
	defer observe(BackendMemory, "zincrby", time.Now(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("zincrby", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		z = newZSet()
		s.zsets[key] = z
	}
	next := z.byMember[member] + delta
	if math.IsNaN(next) {
		s.dropIfEmpty(key)
		return 0, fmt.Errorf("%w: zincrby %s: result is NaN", ErrInvalidScore, key)
	}
	z.add(member, next)
	return next, nil
}

// ZScore implements Store.ZScore.
func (s *MemoryStore) ZScore(_ context.Context, key, member string) (float64, bool, error) {
	defer observe(BackendMemory, "zscore", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, false, errClosed("zscore", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		return 0, false, nil
	}
	score, ok := z.byMember[member]
	return score, ok, nil
}

// ZRem implements Store.ZRem.
func (s *MemoryStore) ZRem(_ context.Context, key string, members ...string) (int64, error) {
	defer observe(BackendMemory, "zrem", time.Now(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("zrem", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		return 0, nil
	}
	var n int64
	for _, m := range members {
		if z.remove(m) {
			n++
		}
	}
	s.dropIfEmpty(key)
	return n, nil
}

// ZRemRangeByRank implements Store.ZRemRangeByRank.
func (s *MemoryStore) ZRemRangeByRank(_ context.Context, key string, start, stop int64) (int64, error) {
	defer observe(BackendMemory, "zremrangebyrank", time.Now(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("zremrangebyrank", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		return 0, nil
	}
	n := z.removeMembers(z.rangeAsc(start, stop))
	s.dropIfEmpty(key)
	return n, nil
}

// ZRemRangeByScore implements Store.ZRemRangeByScore.
func (s *MemoryStore) ZRemRangeByScore(_ context.Context, key string, min, max float64) (int64, error) {
	defer observe(BackendMemory, "zremrangebyscore", time.Now(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("zremrangebyscore", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		return 0, nil
	}
	lo, hi := z.scoreSpan(min, max)
	if hi < lo {
		return 0, nil
	}
	n := z.removeMembers(z.rangeAsc(lo, hi))
	s.dropIfEmpty(key)
	return n, nil
}

// ZRank implements Store.ZRank.
func (s *MemoryStore) ZRank(_ context.Context, key, member string) (int64, bool, error) {
	defer observe(BackendMemory, "zrank", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return -1, false, errClosed("zrank", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		return -1, false, nil
	}
	r, ok := z.rank(member)
	return r, ok, nil
}

// ZRevRank implements Store.ZRevRank.
func (s *MemoryStore) ZRevRank(_ context.Context, key, member string) (int64, bool, error) {
	defer observe(BackendMemory, "zrevrank", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return -1, false, errClosed("zrevrank", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		return -1, false, nil
	}
	r, ok := z.rank(member)
	if !ok {
		return -1, false, nil
	}
	return z.card() - 1 - r, true, nil
}

// ZRangeWithScores implements Store.ZRangeWithScores.
func (s *MemoryStore) ZRangeWithScores(_ context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	defer observe(BackendMemory, "zrange", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed("zrange", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		return []ScoredMember{}, nil
	}
	return z.rangeAsc(start, stop), nil
}

// ZRevRangeWithScores implements Store.ZRevRangeWithScores.
func (s *MemoryStore) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	defer observe(BackendMemory, "zrevrange", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed("zrevrange", key)
	}
	z, ok := s.zsets[key]
	if !ok {
		return []ScoredMember{}, nil
	}
	return z.rangeDesc(start, stop), nil
}

// ZCard implements Store.ZCard.
func (s *MemoryStore) ZCard(_ context.Context, key string) (int64, error) {
	defer observe(BackendMemory, "zcard", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errClosed("zcard", key)
	}
	if z, ok := s.zsets[key]; ok {
		return z.card(), nil
	}
	return 0, nil
}

// ZCount implements Store.ZCount.
func (s *MemoryStore) ZCount(_ context.Context, key string, min, max float64) (int64, error) {
	defer observe(BackendMemory, "zcount", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errClosed("zcount", key)
	}
	if z, ok := s.zsets[key]; ok {
		return z.count(min, max), nil
	}
	return 0, nil
}

// HGet implements Store.HGet.
func (s *MemoryStore) HGet(_ context.Context, key, field string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, errClosed("hget", key)
	}
	v, ok := s.hashes[key][field]
	return v, ok, nil
}

// HSet implements Store.HSet.
func (s *MemoryStore) HSet(_ context.Context, key, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed("hset", key)
	}
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	h[field] = value
	return nil
}

// HDel implements Store.HDel.
func (s *MemoryStore) HDel(_ context.Context, key string, fields ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("hdel", key)
	}
	h, ok := s.hashes[key]
	if !ok {
		return 0, nil
	}
	var n int64
	for _, f := range fields {
		if _, ok := h[f]; ok {
			delete(h, f)
			n++
		}
	}
	if len(h) == 0 {
		delete(s.hashes, key)
	}
	return n, nil
}

// HGetAll implements Store.HGetAll. The returned map is a copy.
func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed("hgetall", key)
	}
	out := make(map[string]string, len(s.hashes[key]))
	for f, v := range s.hashes[key] {
		out[f] = v
	}
	return out, nil
}

// SAdd implements Store.SAdd.
func (s *MemoryStore) SAdd(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed("sadd", key)
	}
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

// SRem implements Store.SRem.
func (s *MemoryStore) SRem(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed("srem", key)
	}
	if set, ok := s.sets[key]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(s.sets, key)
		}
	}
	return nil
}

// SMembers implements Store.SMembers. Members are returned sorted.
func (s *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed("smembers", key)
	}
	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// Ping implements Store.Ping.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed("ping", "")
	}
	return nil
}

// Close marks the store closed. Subsequent calls fail with ErrUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Exists reports whether any structure lives under key. Test helper for
// checking that cleanup really removed store-side state.
func (s *MemoryStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, z := s.zsets[key]
	_, h := s.hashes[key]
	_, set := s.sets[key]
	return z || h || set
}
