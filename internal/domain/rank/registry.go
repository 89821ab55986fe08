package rank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/okian/rankd/internal/adapters/store"
	"github.com/okian/rankd/pkg/logger"
	"github.com/okian/rankd/pkg/metrics"
)

// Move outcomes as reported to metrics.
const (
	moveMoved   = "moved"
	moveSkipped = "skipped"
	moveFailed  = "error"
)

// Registry creates, caches, lists and destroys the leaderboards of one
// variant. It guarantees a single instance per namespaced name within the
// process and mirrors the live names into a persisted set in the store.
//
// Names are assumed unique across the whole store once namespaced; Move
// orders its locks by namespaced name and relies on that.
type Registry[L Board] struct {
	mu       sync.RWMutex
	boards   map[string]L
	st       store.Store
	variant  Variant
	newBoard func(st store.Store, key string) L
	log      logger.Logger
}

// NewScoreRegistry builds the registry of plain leaderboards. Names found in
// the persisted set are orphans of a previous run and are wiped first.
func NewScoreRegistry(ctx context.Context, st store.Store, opts ...Option) (*Registry[*Leaderboard], error) {
	return newRegistry(ctx, st, VariantScore, newLeaderboardForKey, opts)
}

// NewRecencyRegistry builds the registry of recency leaderboards. Names found
// in the persisted set are orphans of a previous run and are wiped first.
func NewRecencyRegistry(ctx context.Context, st store.Store, opts ...Option) (*Registry[*RecencyLeaderboard], error) {
	return newRegistry(ctx, st, VariantRecency, newRecencyForKey, opts)
}

func newRegistry[L Board](ctx context.Context, st store.Store, v Variant, factory func(store.Store, string) L, opts []Option) (*Registry[L], error) {
	o := options{log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Registry[L]{
		boards:   make(map[string]L),
		st:       st,
		variant:  v,
		newBoard: factory,
		log:      o.log.Named(string(v)),
	}
	if err := r.reconcile(ctx); err != nil {
		return nil, err
	}
	metrics.UpdateRegisteredLeaderboards(string(v), 0)
	return r, nil
}

// reconcile wipes every leaderboard named in the persisted set. A fresh
// registry owns nothing, so each of them belongs to a previous run.
func (r *Registry[L]) reconcile(ctx context.Context) error {
	setKey := r.variant.NameSetKey()
	names, err := r.st.SMembers(ctx, setKey)
	if err != nil {
		return fmt.Errorf("rank: reconcile %s: %w", r.variant, err)
	}
	for _, key := range names {
		if _, err := r.transient(key).RemoveAll(ctx); err != nil {
			return fmt.Errorf("rank: reconcile %s: %w", r.variant, err)
		}
		if err := r.st.SRem(ctx, setKey, key); err != nil {
			return fmt.Errorf("rank: reconcile %s: %w", r.variant, err)
		}
		r.log.Debug(ctx, "orphaned leaderboard wiped", logger.String("key", key))
	}
	if len(names) > 0 {
		metrics.RecordReconciledLeaderboards(string(r.variant), len(names))
		r.log.Info(ctx, "reconciled orphaned leaderboards", logger.Int("count", len(names)))
	}
	return nil
}

// transient builds a handle that is never registered. Used only to clear
// store-side state.
func (r *Registry[L]) transient(key string) L {
	if !strings.HasPrefix(key, r.variant.Prefix()) {
		key = r.variant.Prefix() + key
	}
	return r.newBoard(r.st, key)
}

// Variant returns the variant this registry manages.
func (r *Registry[L]) Variant() Variant { return r.variant }

// Register returns the leaderboard called name, creating it on first use.
// The name reaches the persisted set before the instance is published.
func (r *Registry[L]) Register(ctx context.Context, name string) (L, error) {
	var zero L
	key, _, err := r.variant.namespace(name)
	if err != nil {
		return zero, fmt.Errorf("rank: register: %w", err)
	}

	r.mu.RLock()
	b, ok := r.boards[key]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.boards[key]; ok {
		return b, nil
	}
	if err := r.st.SAdd(ctx, r.variant.NameSetKey(), key); err != nil {
		return zero, fmt.Errorf("rank: register %s: %w", name, err)
	}
	b = r.newBoard(r.st, key)
	r.boards[key] = b
	metrics.UpdateRegisteredLeaderboards(string(r.variant), len(r.boards))
	r.log.Info(ctx, "leaderboard registered", logger.String("name", b.Name()))
	return b, nil
}

// Ranks returns a snapshot of the registered leaderboards in no particular
// order.
func (r *Registry[L]) Ranks() []L {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]L, 0, len(r.boards))
	for _, b := range r.boards {
		out = append(out, b)
	}
	return out
}

// IsRegistered reports whether name is registered. Blank names are not.
func (r *Registry[L]) IsRegistered(name string) bool {
	_, ok, err := r.Find(name)
	return err == nil && ok
}

// Contains reports whether a leaderboard with b's name is registered.
func (r *Registry[L]) Contains(b L) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.boards[b.Key()]
	return ok
}

// Find returns the registered leaderboard called name.
func (r *Registry[L]) Find(name string) (L, bool, error) {
	var zero L
	key, _, err := r.variant.namespace(name)
	if err != nil {
		return zero, false, fmt.Errorf("rank: find: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[key]
	return b, ok, nil
}

// Remove clears the leaderboard called name and forgets it. A name unknown to
// this process is still cleared in the store through a throwaway handle.
func (r *Registry[L]) Remove(ctx context.Context, name string) error {
	key, _, err := r.variant.namespace(name)
	if err != nil {
		return fmt.Errorf("rank: remove: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeKeyLocked(ctx, key)
}

// RemoveBoard is Remove by instance.
func (r *Registry[L]) RemoveBoard(ctx context.Context, b L) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeKeyLocked(ctx, b.Key())
}

// RemoveAll removes every registered leaderboard. It keeps going after a
// failure and returns the joined errors.
func (r *Registry[L]) RemoveAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for key := range r.boards {
		if err := r.removeKeyLocked(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry[L]) removeKeyLocked(ctx context.Context, key string) error {
	b, registered := r.boards[key]
	if !registered {
		b = r.transient(key)
	}
	if _, err := b.RemoveAll(ctx); err != nil {
		return fmt.Errorf("rank: remove %s: %w", b.Name(), err)
	}
	if !registered {
		r.log.Debug(ctx, "cleared unregistered leaderboard", logger.String("name", b.Name()))
		return nil
	}
	if err := r.st.SRem(ctx, r.variant.NameSetKey(), key); err != nil {
		return fmt.Errorf("rank: remove %s: %w", b.Name(), err)
	}
	delete(r.boards, key)
	metrics.UpdateRegisteredLeaderboards(string(r.variant), len(r.boards))
	r.log.Info(ctx, "leaderboard removed", logger.String("name", b.Name()))
	return nil
}

// Move transfers id with its current score from src to tgt. It reports
// whether a member was moved. Moving within one leaderboard, between
// unregistered leaderboards, or a member src does not hold is a no-op.
//
// The registry read lock and both write locks are held for the whole
// transfer, board locks greater namespaced name first. A store failure half way may leave id on either side, both or
// neither; the error is returned.
func (r *Registry[L]) Move(ctx context.Context, src, tgt, id string) (moved bool, err error) {
	defer func() {
		result := moveSkipped
		switch {
		case err != nil:
			result = moveFailed
		case moved:
			result = moveMoved
		}
		metrics.RecordMove(string(r.variant), result)
	}()

	srcKey, _, err := r.variant.namespace(src)
	if err != nil {
		return false, fmt.Errorf("rank: move: %w", err)
	}
	tgtKey, _, err := r.variant.namespace(tgt)
	if err != nil {
		return false, fmt.Errorf("rank: move: %w", err)
	}
	if srcKey == tgtKey {
		return false, nil
	}

	// The registry read lock is held until the transfer ends so neither
	// leaderboard can be removed between lookup and write.
	r.mu.RLock()
	defer r.mu.RUnlock()
	from, okSrc := r.boards[srcKey]
	to, okTgt := r.boards[tgtKey]
	if !okSrc || !okTgt {
		return false, nil
	}

	first, second := from, to
	if tgtKey > srcKey {
		first, second = to, from
	}
	first.mutex().Lock()
	defer first.mutex().Unlock()
	second.mutex().Lock()
	defer second.mutex().Unlock()

	snap, ok, err := from.snapshotLocked(ctx, id)
	if err != nil {
		return false, fmt.Errorf("rank: move %s: %w", id, err)
	}
	if !ok {
		return false, nil
	}
	if err := to.restoreLocked(ctx, id, snap); err != nil {
		return false, fmt.Errorf("rank: move %s: %w", id, err)
	}
	if _, err := from.removeLocked(ctx, id); err != nil {
		return false, fmt.Errorf("rank: move %s: %w", id, err)
	}
	r.log.Debug(ctx, "member moved",
		logger.String("id", id),
		logger.String("from", from.Name()),
		logger.String("to", to.Name()),
		logger.Float64("score", snap.score),
	)
	return true, nil
}
