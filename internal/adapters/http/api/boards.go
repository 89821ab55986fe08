package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/rankd/internal/domain/rank"
)

// memberWrite is one member of a batch upsert.
type memberWrite struct {
	ID    string     `json:"id"`
	Score *float64   `json:"score"`
	TS    *time.Time `json:"ts,omitempty"`
}

// memberView is what GET .../members/{id} returns.
type memberView struct {
	ID       string     `json:"id"`
	Score    float64    `json:"score"`
	RankDesc int64      `json:"rank_desc"`
	RankAsc  *int64     `json:"rank_asc,omitempty"`
	TS       *time.Time `json:"ts,omitempty"`
}

// board hides the differences between the two variants' write signatures.
// Plain leaderboards ignore timestamps.
type board interface {
	rank.RankedStore
	upsert(ctx context.Context, id string, score float64, ts time.Time) error
	upsertBatch(ctx context.Context, entries []memberWrite, now time.Time) (int64, error)
	increment(ctx context.Context, id string, delta float64, ts time.Time) (float64, error)
	member(ctx context.Context, id string) (memberView, bool, error)
	rangeDescending(ctx context.Context, start, end int64) (any, error)
}

type plainBoard struct{ *rank.Leaderboard }

func (b plainBoard) upsert(ctx context.Context, id string, score float64, _ time.Time) error {
	return b.Upsert(ctx, id, score)
}

func (b plainBoard) upsertBatch(ctx context.Context, entries []memberWrite, _ time.Time) (int64, error) {
	batch := make([]rank.Entry, len(entries))
	for i, e := range entries {
		batch[i] = rank.Entry{MemberID: e.ID, Score: *e.Score}
	}
	return b.UpsertBatch(ctx, batch)
}

func (b plainBoard) increment(ctx context.Context, id string, delta float64, _ time.Time) (float64, error) {
	return b.Increment(ctx, id, delta)
}

func (b plainBoard) member(ctx context.Context, id string) (memberView, bool, error) {
	score, ok, err := b.Score(ctx, id)
	if err != nil || !ok {
		return memberView{}, false, err
	}
	desc, ok, err := b.RankDescending(ctx, id)
	if err != nil || !ok {
		return memberView{}, false, err
	}
	asc, ok, err := b.RankAscending(ctx, id)
	if err != nil || !ok {
		return memberView{}, false, err
	}
	return memberView{ID: id, Score: score, RankDesc: desc, RankAsc: &asc}, true, nil
}

func (b plainBoard) rangeDescending(ctx context.Context, start, end int64) (any, error) {
	return b.RangeDescendingWithScores(ctx, start, end)
}

type recencyBoard struct{ *rank.RecencyLeaderboard }

func (b recencyBoard) upsert(ctx context.Context, id string, score float64, ts time.Time) error {
	return b.Upsert(ctx, id, score, ts)
}

func (b recencyBoard) upsertBatch(ctx context.Context, entries []memberWrite, now time.Time) (int64, error) {
	batch := make([]rank.TimedEntry, len(entries))
	for i, e := range entries {
		ts := now
		if e.TS != nil {
			ts = *e.TS
		}
		batch[i] = rank.TimedEntry{MemberID: e.ID, Score: *e.Score, Timestamp: ts}
	}
	return b.UpsertBatch(ctx, batch)
}

func (b recencyBoard) increment(ctx context.Context, id string, delta float64, ts time.Time) (float64, error) {
	return b.Increment(ctx, id, delta, ts)
}

func (b recencyBoard) member(ctx context.Context, id string) (memberView, bool, error) {
	node, ok, err := b.DescendingNode(ctx, id)
	if err != nil || !ok {
		return memberView{}, false, err
	}
	ts := node.Timestamp
	return memberView{ID: id, Score: node.Score, RankDesc: node.Rank, TS: &ts}, true, nil
}

func (b recencyBoard) rangeDescending(ctx context.Context, start, end int64) (any, error) {
	return b.RangeDescendingTimed(ctx, start, end)
}

// lookup resolves {variant}/{name}. With create the leaderboard is
// registered on first use; otherwise an unknown name is ErrNotRegistered.
func (s *Server) lookup(ctx context.Context, r *http.Request, create bool) (board, error) {
	v, err := rank.ParseVariant(r.PathValue("variant"))
	if err != nil {
		return nil, err
	}
	name := r.PathValue("name")

	switch v {
	case rank.VariantRecency:
		reg, err := s.deps.Recency()
		if err != nil {
			return nil, err
		}
		lb, err := findOrRegister(ctx, reg, name, create)
		if err != nil {
			return nil, err
		}
		return recencyBoard{lb}, nil
	default:
		reg, err := s.deps.Plain()
		if err != nil {
			return nil, err
		}
		lb, err := findOrRegister(ctx, reg, name, create)
		if err != nil {
			return nil, err
		}
		return plainBoard{lb}, nil
	}
}

func findOrRegister[L rank.Board](ctx context.Context, reg *rank.Registry[L], name string, create bool) (L, error) {
	if create {
		return reg.Register(ctx, name)
	}
	lb, ok, err := reg.Find(name)
	if err != nil {
		return lb, err
	}
	if !ok {
		return lb, fmt.Errorf("%w: %s %q", rank.ErrNotRegistered, reg.Variant(), name)
	}
	return lb, nil
}
