package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/rankd/internal/adapters/store"
	service "github.com/okian/rankd/internal/app"
	"github.com/okian/rankd/internal/domain/model"
	"github.com/okian/rankd/internal/domain/rank"
	. "github.com/smartystreets/goconvey/convey"
)

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithWorkerCount(2), service.WithQueueSize(1_000)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then registries and ingestion are unavailable", func() {
			_, err := svc.Plain()
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Recency()
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Enqueue(ctx, model.Event{Leaderboard: "d", MemberID: "m", Op: model.OpSet, Value: 1})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Stats(ctx).Started, ShouldBeFalse)
		})

		Convey("Then stopping it is a no-op", func() {
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})

	Convey("Given a store holding leaderboards from a previous run", t, func() {
		st := store.NewMemoryStore()
		key := rank.ScorePrefix + "stale"
		So(st.ZAdd(ctx, key, "ghost", 1), ShouldBeNil)
		So(st.SAdd(ctx, rank.ScoreNameSetKey, key), ShouldBeNil)

		svc := startService(service.WithStore(st))
		defer svc.Stop(ctx)

		Convey("Then starting wipes them", func() {
			So(st.Exists(key), ShouldBeFalse)
			So(st.Exists(rank.ScoreNameSetKey), ShouldBeFalse)
		})

		Convey("Then a second start is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stats(ctx).Started, ShouldBeTrue)
		})
	})

	Convey("Given a store that cannot be reached", t, func() {
		st := store.NewMemoryStore()
		So(st.Close(), ShouldBeNil)
		svc := service.New(service.WithStore(st))

		Convey("Then start fails with the store error", func() {
			err := svc.Start(ctx)
			So(errors.Is(err, store.ErrUnavailable), ShouldBeTrue)
		})
	})
}

func TestServiceApply(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with a fixed clock", t, func() {
		clock := time.UnixMilli(1_700_000_000_000)
		svc := startService(service.WithClock(func() time.Time { return clock }))
		defer svc.Stop(ctx)

		Convey("When set and incr events reach a plain leaderboard", func() {
			So(svc.Apply(ctx, model.Event{EventID: "1", Leaderboard: "daily", MemberID: "alice", Op: model.OpSet, Value: 10}), ShouldBeNil)
			So(svc.Apply(ctx, model.Event{EventID: "2", Leaderboard: "daily", MemberID: "alice", Op: model.OpIncr, Value: 5}), ShouldBeNil)

			Convey("Then the leaderboard was registered and holds the sum", func() {
				reg, err := svc.Plain()
				So(err, ShouldBeNil)
				lb, ok, err := reg.Find("daily")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				score, ok, err := lb.Score(ctx, "alice")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 15)
			})
		})

		Convey("When a recency event carries no timestamp", func() {
			So(svc.Apply(ctx, model.Event{EventID: "3", Variant: "recency", Leaderboard: "arena", MemberID: "x", Op: model.OpSet, Value: 7}), ShouldBeNil)

			Convey("Then the service clock stamps it", func() {
				reg, err := svc.Recency()
				So(err, ShouldBeNil)
				lb, ok, err := reg.Find("arena")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				node, ok, err := lb.DescendingNode(ctx, "x")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(node.Timestamp.UnixMilli(), ShouldEqual, clock.UnixMilli())
				So(node.Score, ShouldEqual, 7)
			})
		})

		Convey("When an event names an unknown variant", func() {
			err := svc.Apply(ctx, model.Event{EventID: "4", Variant: "bogus", Leaderboard: "d", MemberID: "m", Op: model.OpSet, Value: 1})

			Convey("Then it is an invalid argument", func() {
				So(errors.Is(err, rank.ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When an event is malformed", func() {
			err := svc.Apply(ctx, model.Event{EventID: "5", Leaderboard: "d", Op: model.OpSet, Value: 1})

			Convey("Then it is rejected by validation", func() {
				So(errors.Is(err, model.ErrInvalidEvent), ShouldBeTrue)
			})
		})
	})
}

func TestServiceEnqueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := startService()
		defer svc.Stop(ctx)

		Convey("When an event without an id is enqueued", func() {
			r, err := svc.Enqueue(ctx, model.Event{Leaderboard: "daily", MemberID: "bob", Op: model.OpSet, Value: 3})

			Convey("Then it gets an id and is applied by the workers", func() {
				So(err, ShouldBeNil)
				So(r.EventID, ShouldNotBeEmpty)
				So(r.Duplicate, ShouldBeFalse)
				So(eventually(func() bool { return svc.Stats(ctx).Processed == 1 }), ShouldBeTrue)

				reg, _ := svc.Plain()
				lb, ok, _ := reg.Find("daily")
				So(ok, ShouldBeTrue)
				score, ok, err := lb.Score(ctx, "bob")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 3)
			})
		})

		Convey("When the same event id is enqueued twice", func() {
			e := model.Event{EventID: "dup-1", Leaderboard: "daily", MemberID: "carol", Op: model.OpIncr, Value: 1}
			first, err := svc.Enqueue(ctx, e)
			So(err, ShouldBeNil)
			second, err := svc.Enqueue(ctx, e)
			So(err, ShouldBeNil)

			Convey("Then the second is acknowledged as a duplicate and applied once", func() {
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(eventually(func() bool { return svc.Stats(ctx).Processed == 1 }), ShouldBeTrue)

				reg, _ := svc.Plain()
				lb, _, _ := reg.Find("daily")
				score, _, err := lb.Score(ctx, "carol")
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 1)
			})
		})

		Convey("When an event is invalid", func() {
			_, err := svc.Enqueue(ctx, model.Event{Leaderboard: "daily", MemberID: "m", Op: "mul", Value: 1})

			Convey("Then nothing is queued", func() {
				So(errors.Is(err, model.ErrInvalidEvent), ShouldBeTrue)
				So(svc.Stats(ctx).QueueLength, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service whose store fails after start", t, func() {
		st := store.NewMemoryStore()
		svc := startService(service.WithStore(st))
		defer svc.Stop(ctx)
		So(st.Close(), ShouldBeNil)

		e := model.Event{EventID: "retry-me", Leaderboard: "daily", MemberID: "m", Op: model.OpSet, Value: 1}
		_, err := svc.Enqueue(ctx, e)
		So(err, ShouldBeNil)

		Convey("Then the failed event id is forgotten and can be resubmitted", func() {
			So(eventually(func() bool {
				r, err := svc.Enqueue(ctx, e)
				return err == nil && !r.Duplicate
			}), ShouldBeTrue)
		})
	})
}

func TestServiceStop(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with queued events", t, func() {
		svc := startService(service.WithWorkerCount(1))
		const total = 200
		for i := 0; i < total; i++ {
			_, err := svc.Enqueue(ctx, model.Event{
				EventID:     fmt.Sprintf("e-%d", i),
				Leaderboard: "drain",
				MemberID:    fmt.Sprintf("m-%d", i),
				Op:          model.OpSet,
				Value:       float64(i),
			})
			So(err, ShouldBeNil)
		}

		Convey("When it stops", func() {
			sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			err := svc.Stop(sctx)

			Convey("Then every queued event was applied first", func() {
				So(err, ShouldBeNil)
				stats := svc.Stats(ctx)
				So(stats.Started, ShouldBeFalse)
				So(stats.Processed, ShouldEqual, total)

				_, err := svc.Plain()
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestServiceStats(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with one leaderboard of each variant", t, func() {
		svc := startService()
		defer svc.Stop(ctx)

		So(svc.Apply(ctx, model.Event{EventID: "a", Leaderboard: "p", MemberID: "1", Op: model.OpSet, Value: 1}), ShouldBeNil)
		So(svc.Apply(ctx, model.Event{EventID: "b", Leaderboard: "p", MemberID: "2", Op: model.OpSet, Value: 2}), ShouldBeNil)
		So(svc.Apply(ctx, model.Event{EventID: "c", Variant: "recency", Leaderboard: "r", MemberID: "1", Op: model.OpSet, Value: 1}), ShouldBeNil)

		Convey("Then stats count leaderboards and members per variant", func() {
			stats := svc.Stats(ctx)
			So(stats.Started, ShouldBeTrue)
			So(stats.Workers, ShouldEqual, 2)
			So(stats.QueueCapacity, ShouldEqual, 1_000)
			So(stats.Leaderboards["score"], ShouldEqual, 1)
			So(stats.Leaderboards["recency"], ShouldEqual, 1)
			So(stats.Members["score"], ShouldEqual, 2)
			So(stats.Members["recency"], ShouldEqual, 1)
		})
	})
}
