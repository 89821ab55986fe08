// Package rank implements named leaderboards on top of an ordered score store.
//
// Two variants exist. *Leaderboard ranks members by score. *RecencyLeaderboard
// also ranks by score but orders equal scores most-recent-first by folding the
// write time into the stored member id. The variants share RankedStore; only
// the plain variant implements AscendingRankable.
//
// Each leaderboard guards itself with one sync.RWMutex. Registry hands out a
// single instance per name and moves members between leaderboards.
package rank

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/rankd/internal/adapters/store"
	"github.com/okian/rankd/pkg/metrics"
)

// RankedStore is what every leaderboard variant supports.
type RankedStore interface {
	// Name is the caller-visible name, without the variant prefix.
	Name() string
	// Key is the namespaced name used as the store key.
	Key() string
	Variant() Variant

	Score(ctx context.Context, id string) (float64, bool, error)
	Remove(ctx context.Context, ids ...string) (int64, error)
	RankDescending(ctx context.Context, id string) (int64, bool, error)
	RangeDescendingWithScores(ctx context.Context, start, end int64) ([]RankNode, error)
	Count(ctx context.Context) (int64, error)
	RemoveAll(ctx context.Context) (int64, error)
}

// AscendingRankable is the extension only score-ordered leaderboards support.
// Once recency is folded into member identity, ascending ranks and raw score
// ranges stop meaning anything, so the recency variant does not implement it.
type AscendingRankable interface {
	RankAscending(ctx context.Context, id string) (int64, bool, error)
	RangeAscendingWithScores(ctx context.Context, start, end int64) ([]RankNode, error)
	RemoveByRankRange(ctx context.Context, start, end int64) (int64, error)
	RemoveByScoreRange(ctx context.Context, min, max float64) (int64, error)
	CountByScoreRange(ctx context.Context, min, max float64) (int64, error)
}

// Board is a leaderboard a Registry can manage. It is implemented only by
// *Leaderboard and *RecencyLeaderboard.
//
// The ...Locked methods assume the caller already holds mutex() for writing.
// Go mutexes are not reentrant, so Registry.Move uses these to act on two
// leaderboards inside one critical section.
type Board interface {
	RankedStore

	mutex() *sync.RWMutex
	snapshotLocked(ctx context.Context, id string) (snapshot, bool, error)
	restoreLocked(ctx context.Context, id string, s snapshot) error
	removeLocked(ctx context.Context, ids ...string) (int64, error)
}

// Ascending returns b's ascending capability, or ErrUnsupported.
func Ascending(b RankedStore) (AscendingRankable, error) {
	if a, ok := b.(AscendingRankable); ok {
		return a, nil
	}
	return nil, ErrUnsupported
}

// instrument records one leaderboard operation. Lock wait is included.
func instrument(v Variant, op string, start time.Time, errp *error) {
	status := "ok"
	if errp != nil && *errp != nil {
		status = "error"
		if errors.Is(*errp, store.ErrUnavailable) {
			status = "unavailable"
		}
	}
	metrics.RecordLeaderboardOperation(string(v), op, status, float64(time.Since(start).Microseconds())/1000)
}

// startRank resolves a possibly negative range start to the rank of the first
// returned element.
func startRank(ctx context.Context, st store.Store, key string, start int64) (int64, error) {
	if start >= 0 {
		return start, nil
	}
	card, err := st.ZCard(ctx, key)
	if err != nil {
		return 0, err
	}
	if start += card; start < 0 {
		start = 0
	}
	return start, nil
}

// resolveWindow clamps [start, end] to a set of card members the way ZRANGE
// does, negative indexes counting from the end. ok is false for an empty
// window.
func resolveWindow(start, end, card int64) (lo, hi int64, ok bool) {
	if start < 0 {
		start += card
		if start < 0 {
			start = 0
		}
	}
	if end < 0 {
		end += card
	}
	if end >= card {
		end = card - 1
	}
	if start > end || start >= card {
		return 0, 0, false
	}
	return start, end, true
}
