// Package worker drains the event queue and applies score events to
// leaderboards.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rankd/internal/domain/model"
	"github.com/okian/rankd/pkg/logger"
	"github.com/okian/rankd/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4
	metricsUpdateInterval   = 5 * time.Second
)

// Applier applies one score event.
type Applier interface {
	Apply(ctx context.Context, e model.Event) error
}

// Source is where workers read events from.
type Source interface {
	Dequeue(ctx context.Context) <-chan model.Event
}

// Worker processes events until stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker applies events read from a Source.
type InMemoryWorker struct {
	source    Source
	applier   Applier
	name      string
	onFailure FailureHandler
	processed *atomic.Int64

	shutdown chan struct{}
	once     sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(source Source, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:    source,
		applier:   applier,
		name:      "worker",
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run applies events until ctx is done, Shutdown is called or the source
// channel closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			// Failures are logged and counted inside process.
			_ = w.process(ctx, e)
		}
	}
}

// Shutdown stops the worker without draining and waits for it to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("worker: shutdown %s: %w", w.name, ctx.Err())
	}
}

func (w *InMemoryWorker) signal() {
	w.once.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: events travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.applier.Apply(ctx, e); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordEventFailed()
		metrics.RecordErrorByComponent("worker", "apply_error")
		w.logger.Error(ctx, "apply event failed",
			logger.String("event_id", e.EventID),
			logger.String("leaderboard", e.Leaderboard),
			logger.String("member_id", e.MemberID),
			logger.Error(err),
		)
		if w.onFailure != nil {
			w.onFailure(ctx, e, err)
		}
		return fmt.Errorf("worker: apply %s: %w", e.EventID, err)
	}

	metrics.RecordEventApplied()
	w.processed.Add(1)
	return nil
}

// Pool runs a fixed number of workers over one source.
type Pool struct {
	workers   []*InMemoryWorker
	source    Source
	processed *atomic.Int64
	started   atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates workerCount workers. A count below one defaults to a
// multiple of the CPU count.
func NewPool(workerCount int, source Source, applier Applier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		source:    source,
		processed: new(atomic.Int64),
		stop:      make(chan struct{}),
	}
	for i := range p.workers {
		wopts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		w := NewInMemoryWorker(source, applier, wopts...)
		w.processed = p.processed
		p.workers[i] = w
	}
	p.logger = p.workers[0].logger.Named("pool")

	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many events were applied successfully.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	go p.reportRate(ctx)
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

func (p *Pool) reportRate(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	last, lastAt := p.processed.Load(), time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case now := <-ticker.C:
			n := p.processed.Load()
			if secs := now.Sub(lastAt).Seconds(); secs > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(n-last) / secs)
			}
			last, lastAt = n, now
		}
	}
}

// Shutdown closes the source when it can be closed, lets the workers drain
// what is buffered, and waits for them. If ctx ends first the workers are
// stopped and the remaining events are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.started.Load() {
		return nil
	}
	defer p.stopOnce.Do(func() { close(p.stop) })
	defer metrics.UpdateWorkerActiveCount(0)

	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "close source", logger.Error(err))
		}
	}

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "drain timed out", logger.Int("worker_id", i))
			for _, rest := range p.workers {
				rest.signal()
			}
			return fmt.Errorf("worker: pool shutdown: %w", ctx.Err())
		}
	}
	p.logger.Info(ctx, "worker pool stopped", logger.Int64("processed", p.processed.Load()))
	return nil
}
