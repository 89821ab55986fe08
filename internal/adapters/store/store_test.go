package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is a store under test plus a probe telling whether a key exists.
type backend struct {
	store  Store
	exists func(key string) bool
}

// runContract exercises the sorted-set contract shared by every Store.
func runContract(t *testing.T, newBackend func(t *testing.T) backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("OrdersByScoreThenMember", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.store.ZAdd(ctx, "z", "c", 2))
		require.NoError(t, b.store.ZAdd(ctx, "z", "b", 1))
		require.NoError(t, b.store.ZAdd(ctx, "z", "a", 1))
		require.NoError(t, b.store.ZAdd(ctx, "z", "d", -5))

		asc, err := b.store.ZRangeWithScores(ctx, "z", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []ScoredMember{{"d", -5}, {"a", 1}, {"b", 1}, {"c", 2}}, asc)

		desc, err := b.store.ZRevRangeWithScores(ctx, "z", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []ScoredMember{{"c", 2}, {"b", 1}, {"a", 1}, {"d", -5}}, desc)

		r, ok, err := b.store.ZRank(ctx, "z", "b")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(2), r)

		r, ok, err = b.store.ZRevRank(ctx, "z", "b")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(1), r)
	})

	t.Run("RangesFollowIndexRules", func(t *testing.T) {
		b := newBackend(t)
		n, err := b.store.ZAddBatch(ctx, "z", []ScoredMember{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"e", 5}})
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		got, err := b.store.ZRangeWithScores(ctx, "z", -2, -1)
		require.NoError(t, err)
		assert.Equal(t, []ScoredMember{{"d", 4}, {"e", 5}}, got)

		got, err = b.store.ZRevRangeWithScores(ctx, "z", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, []ScoredMember{{"d", 4}, {"c", 3}}, got)

		got, err = b.store.ZRangeWithScores(ctx, "z", 3, 100)
		require.NoError(t, err)
		assert.Equal(t, []ScoredMember{{"d", 4}, {"e", 5}}, got)

		got, err = b.store.ZRangeWithScores(ctx, "z", 4, 2)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = b.store.ZRangeWithScores(ctx, "missing", 0, -1)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("UpdatesAndIncrements", func(t *testing.T) {
		b := newBackend(t)
		n, err := b.store.ZAddBatch(ctx, "z", []ScoredMember{{"a", 1}, {"b", 2}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = b.store.ZAddBatch(ctx, "z", []ScoredMember{{"a", 10}, {"c", 3}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		s, ok, err := b.store.ZScore(ctx, "z", "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 10.0, s)

		s, err = b.store.ZIncrBy(ctx, "z", "b", 2.5)
		require.NoError(t, err)
		assert.Equal(t, 4.5, s)

		s, err = b.store.ZIncrBy(ctx, "z", "fresh", -1)
		require.NoError(t, err)
		assert.Equal(t, -1.0, s)

		card, err := b.store.ZCard(ctx, "z")
		require.NoError(t, err)
		assert.Equal(t, int64(4), card)
	})

	t.Run("MissesAreNotErrors", func(t *testing.T) {
		b := newBackend(t)
		_, ok, err := b.store.ZScore(ctx, "z", "nobody")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = b.store.ZRank(ctx, "z", "nobody")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = b.store.ZRevRank(ctx, "z", "nobody")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = b.store.HGet(ctx, "h", "nobody")
		require.NoError(t, err)
		assert.False(t, ok)

		card, err := b.store.ZCard(ctx, "nothing")
		require.NoError(t, err)
		assert.Zero(t, card)
	})

	t.Run("RemovalsAndEmptyKeys", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.store.ZAddBatch(ctx, "z", []ScoredMember{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"e", 5}})
		require.NoError(t, err)

		n, err := b.store.ZRemRangeByRank(ctx, "z", -2, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = b.store.ZRemRangeByScore(ctx, "z", math.Inf(-1), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = b.store.ZRem(ctx, "z", "b", "ghost")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.True(t, b.exists("z"))

		n, err = b.store.ZRem(ctx, "z", "c")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.False(t, b.exists("z"))

		n, err = b.store.ZRem(ctx, "z")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("CountsByScore", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.store.ZAddBatch(ctx, "z", []ScoredMember{{"a", 1}, {"b", 2}, {"c", 2}, {"d", 3}})
		require.NoError(t, err)

		n, err := b.store.ZCount(ctx, "z", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = b.store.ZCount(ctx, "z", math.Inf(-1), math.Inf(1))
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		n, err = b.store.ZCount(ctx, "z", 5, 1)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("HashesAndSets", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.store.HSet(ctx, "h", "u1", "v1"))
		require.NoError(t, b.store.HSet(ctx, "h", "u2", "v2"))

		v, ok, err := b.store.HGet(ctx, "h", "u1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v1", v)

		all, err := b.store.HGetAll(ctx, "h")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"u1": "v1", "u2": "v2"}, all)

		n, err := b.store.HDel(ctx, "h", "u1", "u2")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.False(t, b.exists("h"))

		require.NoError(t, b.store.SAdd(ctx, "s", "x"))
		require.NoError(t, b.store.SAdd(ctx, "s", "y"))
		require.NoError(t, b.store.SAdd(ctx, "s", "x"))
		members, err := b.store.SMembers(ctx, "s")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"x", "y"}, members)

		require.NoError(t, b.store.SRem(ctx, "s", "x"))
		require.NoError(t, b.store.SRem(ctx, "s", "y"))
		assert.False(t, b.exists("s"))

		members, err = b.store.SMembers(ctx, "s")
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("Ping", func(t *testing.T) {
		b := newBackend(t)
		assert.NoError(t, b.store.Ping(ctx))
	})
}
