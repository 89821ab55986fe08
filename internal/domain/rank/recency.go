package rank

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/rankd/internal/adapters/store"
)

// RecencyLeaderboard ranks members by score and, among equal scores, puts the
// most recently written member first.
//
// The store holds composite ids (see EncodeMemberID) in the sorted set and a
// hash at Key()+"-hash" mapping each original id to its live composite id.
// Every write re-keys the member inside one write critical section, so no
// reader ever sees two composite ids for one original id.
type RecencyLeaderboard struct {
	mu      sync.RWMutex
	st      store.Store
	key     string
	hashKey string
	name    string
}

var _ Board = (*RecencyLeaderboard)(nil)

// NewRecencyLeaderboard returns an unregistered recency leaderboard over st.
// Most callers want Registry.Register instead.
func NewRecencyLeaderboard(st store.Store, name string) (*RecencyLeaderboard, error) {
	key, short, err := VariantRecency.namespace(name)
	if err != nil {
		return nil, err
	}
	return &RecencyLeaderboard{st: st, key: key, hashKey: key + hashSuffix, name: short}, nil
}

func newRecencyForKey(st store.Store, key string) *RecencyLeaderboard {
	l, err := NewRecencyLeaderboard(st, key)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *RecencyLeaderboard) Name() string         { return l.name }
func (l *RecencyLeaderboard) Key() string          { return l.key }
func (l *RecencyLeaderboard) Variant() Variant     { return VariantRecency }
func (l *RecencyLeaderboard) String() string       { return l.key }
func (l *RecencyLeaderboard) mutex() *sync.RWMutex { return &l.mu }

// HashKey is the key of the original-id to composite-id map.
func (l *RecencyLeaderboard) HashKey() string { return l.hashKey }

func (l *RecencyLeaderboard) wrap(op string, err error) error {
	return fmt.Errorf("rank: %s %s: %w", op, l.name, err)
}

// Upsert sets id's score as written at ts.
func (l *RecencyLeaderboard) Upsert(ctx context.Context, id string, score float64, ts time.Time) (err error) {
	defer instrument(VariantRecency, "upsert", time.Now(), &err)
	if math.IsNaN(score) {
		return l.wrap("upsert", fmt.Errorf("%w: NaN score for %q", ErrInvalidArgument, id))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.upsertLocked(ctx, id, score, ts.UnixMilli())
	return err
}

// UpsertBatch applies entries in order inside one critical section and
// returns how many original ids were new. It stops at the first failure.
func (l *RecencyLeaderboard) UpsertBatch(ctx context.Context, entries []TimedEntry) (added int64, err error) {
	defer instrument(VariantRecency, "upsert_batch", time.Now(), &err)
	for _, e := range entries {
		if math.IsNaN(e.Score) {
			return 0, l.wrap("upsert batch", fmt.Errorf("%w: NaN score for %q", ErrInvalidArgument, e.MemberID))
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		isNew, err := l.upsertLocked(ctx, e.MemberID, e.Score, e.Timestamp.UnixMilli())
		if err != nil {
			return added, err
		}
		if isNew {
			added++
		}
	}
	return added, nil
}

// Increment adds delta to id's score, starting from 0 when id is absent, and
// re-keys id as written at ts.
func (l *RecencyLeaderboard) Increment(ctx context.Context, id string, delta float64, ts time.Time) (score float64, err error) {
	defer instrument(VariantRecency, "increment", time.Now(), &err)
	if math.IsNaN(delta) {
		return 0, l.wrap("increment", fmt.Errorf("%w: NaN delta for %q", ErrInvalidArgument, id))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	old, _, err := l.scoreLocked(ctx, id)
	if err != nil {
		return 0, err
	}
	score = old + delta
	if math.IsNaN(score) {
		return 0, l.wrap("increment", fmt.Errorf("%w: %q would become NaN", ErrInvalidArgument, id))
	}
	if _, err = l.upsertLocked(ctx, id, score, ts.UnixMilli()); err != nil {
		return 0, err
	}
	return score, nil
}

// upsertLocked retires id's old composite id, if any, and writes the new one
// to both the sorted set and the id map. Reports whether id was new.
func (l *RecencyLeaderboard) upsertLocked(ctx context.Context, id string, score float64, tsMillis int64) (bool, error) {
	composite, err := EncodeMemberID(id, tsMillis)
	if err != nil {
		return false, l.wrap("upsert", err)
	}
	old, had, err := l.st.HGet(ctx, l.hashKey, id)
	if err != nil {
		return false, l.wrap("upsert", err)
	}
	if had && old != composite {
		if _, err := l.st.ZRem(ctx, l.key, old); err != nil {
			return false, l.wrap("upsert", err)
		}
	}
	if err := l.st.ZAdd(ctx, l.key, composite, score); err != nil {
		return false, l.wrap("upsert", err)
	}
	if err := l.st.HSet(ctx, l.hashKey, id, composite); err != nil {
		return false, l.wrap("upsert", err)
	}
	return !had, nil
}

// compositeLocked returns id's live composite id. The caller holds mu.
func (l *RecencyLeaderboard) compositeLocked(ctx context.Context, id string) (string, bool, error) {
	composite, ok, err := l.st.HGet(ctx, l.hashKey, id)
	if err != nil {
		return "", false, l.wrap("lookup", err)
	}
	return composite, ok, nil
}

// Score returns id's score.
func (l *RecencyLeaderboard) Score(ctx context.Context, id string) (score float64, ok bool, err error) {
	defer instrument(VariantRecency, "score", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scoreLocked(ctx, id)
}

// scoreLocked reads id's score without taking mu. The caller holds it.
func (l *RecencyLeaderboard) scoreLocked(ctx context.Context, id string) (float64, bool, error) {
	composite, ok, err := l.compositeLocked(ctx, id)
	if err != nil || !ok {
		return 0, false, err
	}
	score, ok, err := l.st.ZScore(ctx, l.key, composite)
	if err != nil {
		return 0, false, l.wrap("score", err)
	}
	return score, ok, nil
}

// Remove deletes ids from the sorted set and the id map. Unknown ids are
// skipped. Returns how many members were removed.
func (l *RecencyLeaderboard) Remove(ctx context.Context, ids ...string) (n int64, err error) {
	defer instrument(VariantRecency, "remove", time.Now(), &err)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(ctx, ids...)
}

func (l *RecencyLeaderboard) removeLocked(ctx context.Context, ids ...string) (int64, error) {
	composites := make([]string, 0, len(ids))
	mapped := make([]string, 0, len(ids))
	for _, id := range ids {
		composite, ok, err := l.compositeLocked(ctx, id)
		if err != nil {
			return 0, err
		}
		if ok {
			composites = append(composites, composite)
			mapped = append(mapped, id)
		}
	}
	if len(composites) == 0 {
		return 0, nil
	}
	n, err := l.st.ZRem(ctx, l.key, composites...)
	if err != nil {
		return 0, l.wrap("remove", err)
	}
	if _, err := l.st.HDel(ctx, l.hashKey, mapped...); err != nil {
		return n, l.wrap("remove", err)
	}
	return n, nil
}

// RemoveAll clears the sorted set and the id map.
func (l *RecencyLeaderboard) RemoveAll(ctx context.Context) (n int64, err error) {
	defer instrument(VariantRecency, "remove_all", time.Now(), &err)
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, err = l.st.ZRemRangeByRank(ctx, l.key, 0, -1); err != nil {
		return 0, l.wrap("remove all", err)
	}
	ids, err := l.st.HGetAll(ctx, l.hashKey)
	if err != nil {
		return n, l.wrap("remove all", err)
	}
	if len(ids) == 0 {
		return n, nil
	}
	fields := make([]string, 0, len(ids))
	for id := range ids {
		fields = append(fields, id)
	}
	if _, err = l.st.HDel(ctx, l.hashKey, fields...); err != nil {
		return n, l.wrap("remove all", err)
	}
	return n, nil
}

// RankDescending returns id's 0-based rank, highest score first and most
// recent first among equal scores.
func (l *RecencyLeaderboard) RankDescending(ctx context.Context, id string) (rank int64, ok bool, err error) {
	defer instrument(VariantRecency, "rank_desc", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	composite, ok, err := l.compositeLocked(ctx, id)
	if err != nil || !ok {
		return -1, false, err
	}
	rank, _, ok, err = l.rankLocked(ctx, composite)
	if err != nil || !ok {
		return -1, false, wrapIf(l, "rank desc", err)
	}
	return rank, true, nil
}

// DescendingNode returns id's descending rank, score and write time together.
func (l *RecencyLeaderboard) DescendingNode(ctx context.Context, id string) (node TimedNode, ok bool, err error) {
	defer instrument(VariantRecency, "node", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	composite, ok, err := l.compositeLocked(ctx, id)
	if err != nil || !ok {
		return TimedNode{}, false, err
	}
	_, tsMillis, err := DecodeMemberID(composite)
	if err != nil {
		return TimedNode{}, false, l.wrap("node", err)
	}
	rank, score, ok, err := l.rankLocked(ctx, composite)
	if err != nil || !ok {
		return TimedNode{}, false, wrapIf(l, "node", err)
	}
	return TimedNode{
		RankNode:  RankNode{MemberID: id, Rank: rank, Score: score},
		Timestamp: fromMillis(tsMillis),
	}, true, nil
}

// rankLocked returns the descending rank and score of composite.
//
// ZREVRANK also reverses the member tie-break, which would put the oldest
// write first among equal scores. The rank is instead the number of members
// scoring strictly higher plus composite's ascending position inside its own
// score.
func (l *RecencyLeaderboard) rankLocked(ctx context.Context, composite string) (int64, float64, bool, error) {
	score, ok, err := l.st.ZScore(ctx, l.key, composite)
	if err != nil || !ok {
		return -1, 0, false, err
	}
	asc, ok, err := l.st.ZRank(ctx, l.key, composite)
	if err != nil || !ok {
		return -1, 0, false, err
	}
	card, err := l.st.ZCard(ctx, l.key)
	if err != nil {
		return -1, 0, false, err
	}
	above, ties, err := l.tieSpan(ctx, score)
	if err != nil {
		return -1, 0, false, err
	}
	below := card - above - ties
	return above + asc - below, score, true, nil
}

// tieSpan returns how many members score strictly above score and how many
// share it.
func (l *RecencyLeaderboard) tieSpan(ctx context.Context, score float64) (above, ties int64, err error) {
	if !math.IsInf(score, 1) {
		above, err = l.st.ZCount(ctx, l.key, math.Nextafter(score, math.Inf(1)), math.Inf(1))
		if err != nil {
			return 0, 0, err
		}
	}
	ties, err = l.st.ZCount(ctx, l.key, score, score)
	if err != nil {
		return 0, 0, err
	}
	return above, ties, nil
}

func wrapIf(l *RecencyLeaderboard, op string, err error) error {
	if err == nil {
		return nil
	}
	return l.wrap(op, err)
}

// RangeDescendingWithScores returns members with descending rank in
// [start, end], decoded back to original ids. end = -1 means the last member.
func (l *RecencyLeaderboard) RangeDescendingWithScores(ctx context.Context, start, end int64) (nodes []RankNode, err error) {
	defer instrument(VariantRecency, "range_desc", time.Now(), &err)
	timed, err := l.rangeTimed(ctx, start, end)
	if err != nil {
		return nil, err
	}
	nodes = make([]RankNode, len(timed))
	for i, t := range timed {
		nodes[i] = t.RankNode
	}
	return nodes, nil
}

// RangeDescendingTimed is RangeDescendingWithScores with write times.
func (l *RecencyLeaderboard) RangeDescendingTimed(ctx context.Context, start, end int64) (nodes []TimedNode, err error) {
	defer instrument(VariantRecency, "range_desc_timed", time.Now(), &err)
	return l.rangeTimed(ctx, start, end)
}

func (l *RecencyLeaderboard) rangeTimed(ctx context.Context, start, end int64) ([]TimedNode, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	card, err := l.st.ZCard(ctx, l.key)
	if err != nil {
		return nil, l.wrap("range", err)
	}
	lo, hi, ok := resolveWindow(start, end, card)
	if !ok {
		return []TimedNode{}, nil
	}

	// Widen the window to whole equal-score runs at both edges, since each
	// run comes back from the store in reverse write order.
	from, to := lo, hi
	edge, err := l.st.ZRevRangeWithScores(ctx, l.key, lo, lo)
	if err != nil {
		return nil, l.wrap("range", err)
	}
	if len(edge) == 1 {
		above, _, err := l.tieSpan(ctx, edge[0].Score)
		if err != nil {
			return nil, l.wrap("range", err)
		}
		from = above
	}
	edge, err = l.st.ZRevRangeWithScores(ctx, l.key, hi, hi)
	if err != nil {
		return nil, l.wrap("range", err)
	}
	if len(edge) == 1 {
		above, ties, err := l.tieSpan(ctx, edge[0].Score)
		if err != nil {
			return nil, l.wrap("range", err)
		}
		to = above + ties - 1
	}

	members, err := l.st.ZRevRangeWithScores(ctx, l.key, from, to)
	if err != nil {
		return nil, l.wrap("range", err)
	}
	reverseTies(members)

	skip := lo - from
	if skip > int64(len(members)) {
		skip = int64(len(members))
	}
	members = members[skip:]
	if want := hi - lo + 1; int64(len(members)) > want {
		members = members[:want]
	}
	nodes := make([]TimedNode, len(members))
	for i, m := range members {
		id, tsMillis, err := DecodeMemberID(m.Member)
		if err != nil {
			return nil, l.wrap("range", err)
		}
		nodes[i] = TimedNode{
			RankNode:  RankNode{MemberID: id, Rank: lo + int64(i), Score: m.Score},
			Timestamp: fromMillis(tsMillis),
		}
	}
	return nodes, nil
}

// reverseTies reverses every run of equal scores in place.
func reverseTies(ms []store.ScoredMember) {
	for i := 0; i < len(ms); {
		j := i + 1
		for j < len(ms) && ms[j].Score == ms[i].Score {
			j++
		}
		for a, b := i, j-1; a < b; a, b = a+1, b-1 {
			ms[a], ms[b] = ms[b], ms[a]
		}
		i = j
	}
}

// Count returns the number of members.
func (l *RecencyLeaderboard) Count(ctx context.Context) (n int64, err error) {
	defer instrument(VariantRecency, "count", time.Now(), &err)
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n, err = l.st.ZCard(ctx, l.key); err != nil {
		return 0, l.wrap("count", err)
	}
	return n, nil
}

func (l *RecencyLeaderboard) snapshotLocked(ctx context.Context, id string) (snapshot, bool, error) {
	composite, ok, err := l.compositeLocked(ctx, id)
	if err != nil || !ok {
		return snapshot{}, false, err
	}
	_, tsMillis, err := DecodeMemberID(composite)
	if err != nil {
		return snapshot{}, false, l.wrap("move", err)
	}
	score, ok, err := l.st.ZScore(ctx, l.key, composite)
	if err != nil {
		return snapshot{}, false, l.wrap("move", err)
	}
	return snapshot{score: score, tsMillis: tsMillis}, ok, nil
}

func (l *RecencyLeaderboard) restoreLocked(ctx context.Context, id string, s snapshot) error {
	_, err := l.upsertLocked(ctx, id, s.score, s.tsMillis)
	return err
}
