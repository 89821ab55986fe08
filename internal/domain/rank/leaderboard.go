package rank

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/rankd/internal/adapters/store"
)

// Leaderboard ranks members by score. The store member is the caller's id.
type Leaderboard struct {
	mu   sync.RWMutex
	st   store.Store
	key  string
	name string
}

var (
	_ Board             = (*Leaderboard)(nil)
	_ AscendingRankable = (*Leaderboard)(nil)
)

// NewLeaderboard returns an unregistered plain leaderboard over st. Most
// callers want Registry.Register instead.
func NewLeaderboard(st store.Store, name string) (*Leaderboard, error) {
	key, short, err := VariantScore.namespace(name)
	if err != nil {
		return nil, err
	}
	return &Leaderboard{st: st, key: key, name: short}, nil
}

func newLeaderboardForKey(st store.Store, key string) *Leaderboard {
	l, err := NewLeaderboard(st, key)
	if err != nil {
		// Registry only passes keys it already namespaced.
		panic(err)
	}
	return l
}

func (l *Leaderboard) Name() string         { return l.name }
func (l *Leaderboard) Key() string          { return l.key }
func (l *Leaderboard) Variant() Variant     { return VariantScore }
func (l *Leaderboard) String() string       { return l.key }
func (l *Leaderboard) mutex() *sync.RWMutex { return &l.mu }

func (l *Leaderboard) wrap(op string, err error) error {
	return fmt.Errorf("rank: %s %s: %w", op, l.name, err)
}

// Upsert sets id's score, creating the member if needed.
func (l *Leaderboard) Upsert(ctx context.Context, id string, score float64) (err error) {
	defer instrument(VariantScore, "upsert", time.Now(), &err)
	if math.IsNaN(score) {
		return l.wrap("upsert", fmt.Errorf("%w: NaN score for %q", ErrInvalidArgument, id))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err = l.st.ZAdd(ctx, l.key, id, score); err != nil {
		return l.wrap("upsert", err)
	}
	return nil
}

// UpsertBatch sets every entry's score in one critical section and returns
// how many members were new. Later entries win on duplicate ids.
func (l *Leaderboard) UpsertBatch(ctx context.Context, entries []Entry) (added int64, err error) {
	defer instrument(VariantScore, "upsert_batch", time.Now(), &err)
	members := make([]store.ScoredMember, 0, len(entries))
	for _, e := range entries {
		if math.IsNaN(e.Score) {
			return 0, l.wrap("upsert batch", fmt.Errorf("%w: NaN score for %q", ErrInvalidArgument, e.MemberID))
		}
		members = append(members, store.ScoredMember{Member: e.MemberID, Score: e.Score})
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if added, err = l.st.ZAddBatch(ctx, l.key, members); err != nil {
		return 0, l.wrap("upsert batch", err)
	}
	return added, nil
}

// Increment adds delta to id's score, starting from 0 when id is absent.
func (l *Leaderboard) Increment(ctx context.Context, id string, delta float64) (score float64, err error) {
	defer instrument(VariantScore, "increment", time.Now(), &err)
	if math.IsNaN(delta) {
		return 0, l.wrap("increment", fmt.Errorf("%w: NaN delta for %q", ErrInvalidArgument, id))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if score, err = l.st.ZIncrBy(ctx, l.key, id, delta); err != nil {
		return 0, l.wrap("increment", err)
	}
	return score, nil
}

// Score returns id's score.
func (l *Leaderboard) Score(ctx context.Context, id string) (score float64, ok bool, err error) {
	defer instrument(VariantScore, "score", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	score, ok, err = l.st.ZScore(ctx, l.key, id)
	if err != nil {
		return 0, false, l.wrap("score", err)
	}
	return score, ok, nil
}

// Remove deletes ids and returns how many were present.
func (l *Leaderboard) Remove(ctx context.Context, ids ...string) (n int64, err error) {
	defer instrument(VariantScore, "remove", time.Now(), &err)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(ctx, ids...)
}

func (l *Leaderboard) removeLocked(ctx context.Context, ids ...string) (int64, error) {
	n, err := l.st.ZRem(ctx, l.key, ids...)
	if err != nil {
		return 0, l.wrap("remove", err)
	}
	return n, nil
}

// RemoveByRankRange deletes members with ascending rank in [start, end].
// Negative indexes count from the end.
func (l *Leaderboard) RemoveByRankRange(ctx context.Context, start, end int64) (n int64, err error) {
	defer instrument(VariantScore, "remove_by_rank", time.Now(), &err)
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, err = l.st.ZRemRangeByRank(ctx, l.key, start, end); err != nil {
		return 0, l.wrap("remove by rank", err)
	}
	return n, nil
}

// RemoveByScoreRange deletes members with min <= score <= max.
func (l *Leaderboard) RemoveByScoreRange(ctx context.Context, min, max float64) (n int64, err error) {
	defer instrument(VariantScore, "remove_by_score", time.Now(), &err)
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, err = l.st.ZRemRangeByScore(ctx, l.key, min, max); err != nil {
		return 0, l.wrap("remove by score", err)
	}
	return n, nil
}

// RemoveAll clears the leaderboard.
func (l *Leaderboard) RemoveAll(ctx context.Context) (n int64, err error) {
	defer instrument(VariantScore, "remove_all", time.Now(), &err)
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, err = l.st.ZRemRangeByRank(ctx, l.key, 0, -1); err != nil {
		return 0, l.wrap("remove all", err)
	}
	return n, nil
}

// RankAscending returns id's 0-based rank, lowest score first.
func (l *Leaderboard) RankAscending(ctx context.Context, id string) (rank int64, ok bool, err error) {
	defer instrument(VariantScore, "rank_asc", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	if rank, ok, err = l.st.ZRank(ctx, l.key, id); err != nil {
		return -1, false, l.wrap("rank asc", err)
	}
	return rank, ok, nil
}

// RankDescending returns id's 0-based rank, highest score first.
func (l *Leaderboard) RankDescending(ctx context.Context, id string) (rank int64, ok bool, err error) {
	defer instrument(VariantScore, "rank_desc", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	if rank, ok, err = l.st.ZRevRank(ctx, l.key, id); err != nil {
		return -1, false, l.wrap("rank desc", err)
	}
	return rank, ok, nil
}

// RangeAscendingWithScores returns members with ascending rank in
// [start, end]. end = -1 means the last member.
func (l *Leaderboard) RangeAscendingWithScores(ctx context.Context, start, end int64) (nodes []RankNode, err error) {
	defer instrument(VariantScore, "range_asc", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rangeLocked(ctx, start, end, l.st.ZRangeWithScores)
}

// RangeDescendingWithScores returns members with descending rank in
// [start, end]. end = -1 means the last member.
func (l *Leaderboard) RangeDescendingWithScores(ctx context.Context, start, end int64) (nodes []RankNode, err error) {
	defer instrument(VariantScore, "range_desc", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rangeLocked(ctx, start, end, l.st.ZRevRangeWithScores)
}

type rangeFunc func(ctx context.Context, key string, start, stop int64) ([]store.ScoredMember, error)

func (l *Leaderboard) rangeLocked(ctx context.Context, start, end int64, fetch rangeFunc) ([]RankNode, error) {
	members, err := fetch(ctx, l.key, start, end)
	if err != nil {
		return nil, l.wrap("range", err)
	}
	first, err := startRank(ctx, l.st, l.key, start)
	if err != nil {
		return nil, l.wrap("range", err)
	}
	nodes := make([]RankNode, len(members))
	for i, m := range members {
		nodes[i] = RankNode{MemberID: m.Member, Rank: first + int64(i), Score: m.Score}
	}
	return nodes, nil
}

// Count returns the number of members.
func (l *Leaderboard) Count(ctx context.Context) (n int64, err error) {
	defer instrument(VariantScore, "count", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n, err = l.st.ZCard(ctx, l.key); err != nil {
		return 0, l.wrap("count", err)
	}
	return n, nil
}

// CountByScoreRange returns the number of members with min <= score <= max.
func (l *Leaderboard) CountByScoreRange(ctx context.Context, min, max float64) (n int64, err error) {
	defer instrument(VariantScore, "count_by_score", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n, err = l.st.ZCount(ctx, l.key, min, max); err != nil {
		return 0, l.wrap("count by score", err)
	}
	return n, nil
}

func (l *Leaderboard) snapshotLocked(ctx context.Context, id string) (snapshot, bool, error) {
	score, ok, err := l.st.ZScore(ctx, l.key, id)
	if err != nil {
		return snapshot{}, false, l.wrap("score", err)
	}
	return snapshot{score: score}, ok, nil
}

func (l *Leaderboard) restoreLocked(ctx context.Context, id string, s snapshot) error {
	if err := l.st.ZAdd(ctx, l.key, id, s.score); err != nil {
		return l.wrap("upsert", err)
	}
	return nil
}
