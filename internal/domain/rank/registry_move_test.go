package rank_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/rankd/internal/adapters/store"
	"github.com/okian/rankd/internal/domain/rank"
	. "github.com/smartystreets/goconvey/convey"
)

// gatedStore parks the first ZAdd of member "blocker" on key until release is
// closed, so the writer keeps its leaderboard locked meanwhile.
type gatedStore struct {
	store.Store
	key     string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	if key == g.key && member == "blocker" {
		close(g.entered)
		<-g.release
	}
	return g.Store.ZAdd(ctx, key, member, score)
}

func TestRegistryMoveRacingRemove(t *testing.T) {
	ctx := context.Background()

	Convey("Given a move waiting on a busy source while the target is removed", t, func() {
		mem := store.NewMemoryStore()
		gs := &gatedStore{
			Store:   mem,
			key:     rank.ScorePrefix + "z",
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		reg, err := rank.NewScoreRegistry(ctx, gs)
		So(err, ShouldBeNil)
		z, err := reg.Register(ctx, "z")
		So(err, ShouldBeNil)
		_, err = reg.Register(ctx, "a")
		So(err, ShouldBeNil)
		So(z.Upsert(ctx, "id", 42), ShouldBeNil)

		go func() { _ = z.Upsert(ctx, "blocker", 1) }()
		<-gs.entered

		type moveResult struct {
			moved bool
			err   error
		}
		moveDone := make(chan moveResult, 1)
		go func() {
			moved, err := reg.Move(ctx, "z", "a", "id")
			moveDone <- moveResult{moved, err}
		}()
		time.Sleep(50 * time.Millisecond)

		removeDone := make(chan error, 1)
		go func() { removeDone <- reg.Remove(ctx, "a") }()

		removedEarly := false
		select {
		case <-removeDone:
			removedEarly = true
		case <-time.After(50 * time.Millisecond):
		}
		close(gs.release)

		res := <-moveDone
		if !removedEarly {
			So(<-removeDone, ShouldBeNil)
		}

		Convey("Then the removal waits for the move to finish", func() {
			So(removedEarly, ShouldBeFalse)
			So(res.err, ShouldBeNil)
			So(res.moved, ShouldBeTrue)
		})

		Convey("Then no data is left under the removed leaderboard", func() {
			So(reg.IsRegistered("a"), ShouldBeFalse)
			So(mem.Exists(rank.ScorePrefix+"a"), ShouldBeFalse)

			names, err := mem.SMembers(ctx, rank.ScoreNameSetKey)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{rank.ScorePrefix + "z"})
		})
	})
}
