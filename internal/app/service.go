// Package service owns the ordered score store and both leaderboard
// registries, and feeds asynchronous score events into them.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/rankd/internal/adapters/mq/queue"
	workerpool "github.com/okian/rankd/internal/adapters/mq/worker"
	"github.com/okian/rankd/internal/adapters/store"
	"github.com/okian/rankd/internal/domain/dedupe"
	"github.com/okian/rankd/internal/domain/model"
	"github.com/okian/rankd/internal/domain/rank"
	"github.com/okian/rankd/pkg/logger"
	"github.com/okian/rankd/pkg/metrics"
)

// Receipt acknowledges an event submitted with Enqueue.
type Receipt struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started       bool             `json:"started"`
	Workers       int              `json:"workers"`
	QueueLength   int              `json:"queue_length"`
	QueueCapacity int              `json:"queue_capacity"`
	DedupeSize    int64            `json:"dedupe_size"`
	Processed     int64            `json:"processed"`
	Leaderboards  map[string]int   `json:"leaderboards"`
	Members       map[string]int64 `json:"members"`
}

// Service is the process-wide context: one store, one registry per variant,
// and the ingestion pipeline writing through them.
type Service struct {
	mu sync.RWMutex

	store   store.Store
	plain   *rank.Registry[*rank.Leaderboard]
	recency *rank.Registry[*rank.RecencyLeaderboard]

	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool

	workerCount int
	queueSize   int
	dedupeSize  int

	started  bool
	stopping bool
	now      func() time.Time
	logger   logger.Logger
}

// New constructs a Service. Without WithStore it runs on an in-memory store.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 4,
		queueSize:   100_000,
		dedupeSize:  500_000,
		now:         time.Now,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	return s
}

// Start reconciles both registries against the store and starts the worker
// pool. Calling Start on a running service does nothing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting leaderboard service")

	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("service: start: %w", err)
	}

	plain, err := rank.NewScoreRegistry(ctx, s.store, rank.WithLogger(s.logger.Named("registry")))
	if err != nil {
		return fmt.Errorf("service: start: %w", err)
	}
	recency, err := rank.NewRecencyRegistry(ctx, s.store, rank.WithLogger(s.logger.Named("registry")))
	if err != nil {
		return fmt.Errorf("service: start: %w", err)
	}
	s.plain, s.recency = plain, recency

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithLogger(s.logger.Named("ingest")),
		workerpool.WithFailureHandler(s.forget),
	)
	// Workers outlive the request that started them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop drains the event queue, waits for the workers and closes the store.
// Leaderboards are left in the store; the next process reconciles them.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	pool := s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping leaderboard service")

	// Workers still call Apply while draining, so the lock is not held here.
	var errs []error
	if err := pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("service: close store: %w", err))
	}
	s.started, s.stopping = false, false

	s.logger.Info(ctx, "leaderboard service stopped", logger.Int64("processed", pool.Processed()))
	return errors.Join(errs...)
}

// Plain returns the registry of plain leaderboards.
func (s *Service) Plain() (*rank.Registry[*rank.Leaderboard], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.plain, nil
}

// Recency returns the registry of recency leaderboards.
func (s *Service) Recency() (*rank.Registry[*rank.RecencyLeaderboard], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.recency, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }

// variantOf resolves an event's variant. Blank means plain.
func variantOf(e model.Event) (rank.Variant, error) {
	if e.Variant == "" {
		return rank.VariantScore, nil
	}
	return rank.ParseVariant(e.Variant)
}

// Apply writes one event to its leaderboard, registering it on first use.
func (s *Service) Apply(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: events travel by value
	if err := e.Validate(); err != nil {
		return err
	}
	v, err := variantOf(e)
	if err != nil {
		return err
	}

	switch v {
	case rank.VariantRecency:
		reg, err := s.Recency()
		if err != nil {
			return err
		}
		lb, err := reg.Register(ctx, e.Leaderboard)
		if err != nil {
			return err
		}
		ts := e.TS
		if ts.IsZero() {
			ts = s.now()
		}
		if e.Op == model.OpIncr {
			_, err = lb.Increment(ctx, e.MemberID, e.Value, ts)
			return err
		}
		return lb.Upsert(ctx, e.MemberID, e.Value, ts)

	default:
		reg, err := s.Plain()
		if err != nil {
			return err
		}
		lb, err := reg.Register(ctx, e.Leaderboard)
		if err != nil {
			return err
		}
		if e.Op == model.OpIncr {
			_, err = lb.Increment(ctx, e.MemberID, e.Value)
			return err
		}
		return lb.Upsert(ctx, e.MemberID, e.Value)
	}
}

// Enqueue submits an event for asynchronous processing. An event without an
// id gets a random one. An id seen before is acknowledged as a duplicate and
// not queued again. When the queue is full the id is forgotten so the caller
// can retry, and ErrBackpressure is returned.
func (s *Service) Enqueue(ctx context.Context, e model.Event) (Receipt, error) { //nolint:gocritic // hugeParam: events travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Receipt{}, ErrNotStarted
	}

	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return Receipt{}, err
	}
	if _, err := variantOf(e); err != nil {
		return Receipt{}, err
	}

	if s.deduper.SeenAndRecord(ctx, e.EventID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event", logger.String("event_id", e.EventID))
		return Receipt{EventID: e.EventID, Duplicate: true}, nil
	}

	if err := s.queue.Enqueue(ctx, e); err != nil {
		s.deduper.Unrecord(ctx, e.EventID)
		if errors.Is(err, eventqueue.ErrFull) {
			return Receipt{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return Receipt{}, fmt.Errorf("service: enqueue: %w", err)
	}
	metrics.RecordEventAccepted()
	return Receipt{EventID: e.EventID}, nil
}

// forget lets a failed event be submitted again.
func (s *Service) forget(ctx context.Context, e model.Event, _ error) { //nolint:gocritic // hugeParam: events travel by value
	s.deduper.Unrecord(ctx, e.EventID)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:      s.started,
		Workers:      s.workerCount,
		Leaderboards: map[string]int{},
		Members:      map[string]int64{},
	}
	if s.pool != nil {
		st.Processed = s.pool.Processed()
	}
	if !s.started {
		return st
	}

	st.Workers = s.pool.Size()
	st.QueueLength = s.queue.Len()
	st.QueueCapacity = s.queue.Cap()
	st.DedupeSize = s.deduper.Size()

	plain := s.plain.Ranks()
	st.Leaderboards[rank.VariantScore.String()] = len(plain)
	for _, lb := range plain {
		if n, err := lb.Count(ctx); err == nil {
			st.Members[rank.VariantScore.String()] += n
		}
	}
	recent := s.recency.Ranks()
	st.Leaderboards[rank.VariantRecency.String()] = len(recent)
	for _, lb := range recent {
		if n, err := lb.Count(ctx); err == nil {
			st.Members[rank.VariantRecency.String()] += n
		}
	}

	metrics.UpdateQueueSize(st.QueueLength)
	return st
}
