package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/rankd/internal/adapters/http/api"
	"github.com/okian/rankd/internal/adapters/store"
	service "github.com/okian/rankd/internal/app"
	"github.com/okian/rankd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeDeps overrides the parts of a real service a test needs to fail.
type fakeDeps struct {
	*service.Service
	enqueueErr error
	pingErr    error
}

func (f *fakeDeps) Enqueue(ctx context.Context, e model.Event) (service.Receipt, error) {
	if f.enqueueErr != nil {
		return service.Receipt{}, f.enqueueErr
	}
	return f.Service.Enqueue(ctx, e)
}

func (f *fakeDeps) Ping(ctx context.Context) error {
	if f.pingErr != nil {
		return f.pingErr
	}
	return f.Service.Ping(ctx)
}

var fixedNow = time.UnixMilli(1_700_000_000_000).UTC()

func newService() *service.Service {
	svc := service.New(
		service.WithWorkerCount(1),
		service.WithClock(func() time.Time { return fixedNow }),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorCode(w *httptest.ResponseRecorder) string {
	var e errBody
	decodeBody(w, &e)
	return e.Code
}

type node struct {
	ID    string    `json:"id"`
	Rank  int64     `json:"rank"`
	Score float64   `json:"score"`
	TS    time.Time `json:"ts"`
}

type rangeBody struct {
	Leaderboard string `json:"leaderboard"`
	Order       string `json:"order"`
	Entries     []node `json:"entries"`
}

type memberBody struct {
	ID       string     `json:"id"`
	Score    float64    `json:"score"`
	RankDesc int64      `json:"rank_desc"`
	RankAsc  *int64     `json:"rank_asc"`
	TS       *time.Time `json:"ts"`
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given a server over a started service", t, func() {
		svc := newService()
		defer svc.Stop(context.Background())
		deps := &fakeDeps{Service: svc}
		h := api.NewServer(deps).Handler()

		Convey("When the store answers", func() {
			w := do(h, http.MethodGet, "/healthz", "")

			Convey("Then health is ok and a request id is assigned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
				So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
			})
		})

		Convey("When the store is down", func() {
			deps.pingErr = fmt.Errorf("ping: %w", store.ErrUnavailable)
			w := do(h, http.MethodGet, "/healthz", "")

			Convey("Then health answers 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, `"store":"down"`)
			})
		})

		Convey("When the caller supplies a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(api.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
			})
		})

		Convey("When metrics are scraped after a request", func() {
			_ = do(h, http.MethodGet, "/stats", "")
			w := do(h, http.MethodGet, "/metrics", "")

			Convey("Then the http metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "rankd_")
			})
		})

		Convey("When stats are requested", func() {
			w := do(h, http.MethodGet, "/stats", "")

			Convey("Then they describe the running service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var stats service.Stats
				decodeBody(w, &stats)
				So(stats.Started, ShouldBeTrue)
				So(stats.Workers, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a server over a stopped service", t, func() {
		h := api.NewServer(service.New()).Handler()

		Convey("Then leaderboard routes answer 503", func() {
			w := do(h, http.MethodGet, "/leaderboards/score", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(errorCode(w), ShouldEqual, "unavailable")
		})
	})
}

func TestPlainLeaderboardRoutes(t *testing.T) {
	Convey("Given a plain leaderboard daily with alice, bob and carol", t, func() {
		svc := newService()
		defer svc.Stop(context.Background())
		h := api.NewServer(svc, api.WithMaxRangeLimit(5)).Handler()

		So(do(h, http.MethodPut, "/leaderboards/score/daily", "").Code, ShouldEqual, http.StatusOK)
		So(do(h, http.MethodPut, "/leaderboards/score/daily/members/alice", `{"score":10}`).Code, ShouldEqual, http.StatusOK)
		So(do(h, http.MethodPut, "/leaderboards/score/daily/members/bob", `{"score":20}`).Code, ShouldEqual, http.StatusOK)
		So(do(h, http.MethodPut, "/leaderboards/score/daily/members/carol", `{"score":10}`).Code, ShouldEqual, http.StatusOK)

		Convey("When listing leaderboards", func() {
			w := do(h, http.MethodGet, "/leaderboards/score", "")

			Convey("Then daily is listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"name":"daily"`)
			})
		})

		Convey("When reading the descending range", func() {
			w := do(h, http.MethodGet, "/leaderboards/score/daily/range", "")

			Convey("Then bob leads", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body rangeBody
				decodeBody(w, &body)
				So(body.Order, ShouldEqual, "desc")
				So(len(body.Entries), ShouldEqual, 3)
				So(body.Entries[0].ID, ShouldEqual, "bob")
				So(body.Entries[0].Rank, ShouldEqual, 0)
			})
		})

		Convey("When reading the ascending range", func() {
			w := do(h, http.MethodGet, "/leaderboards/score/daily/range?order=asc&start=0&end=0", "")

			Convey("Then the lowest score comes first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body rangeBody
				decodeBody(w, &body)
				So(len(body.Entries), ShouldEqual, 1)
				So(body.Entries[0].Score, ShouldEqual, 10)
			})
		})

		Convey("When a window exceeds the limit", func() {
			w := do(h, http.MethodGet, "/leaderboards/score/daily/range?start=0&end=99", "")

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When a negative window spans the whole int64 range", func() {
			for i := 0; i < 10; i++ {
				So(do(h, http.MethodPut, fmt.Sprintf("/leaderboards/score/daily/members/extra%d", i), `{"score":1}`).Code, ShouldEqual, http.StatusOK)
			}
			w := do(h, http.MethodGet, "/leaderboards/score/daily/range?start=-9223372036854775808&end=-1", "")

			Convey("Then it is rejected instead of returning every member", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When only a negative start is given", func() {
			w := do(h, http.MethodGet, "/leaderboards/score/daily/range?start=-2", "")

			Convey("Then the window stops at the last member", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body rangeBody
				decodeBody(w, &body)
				So(len(body.Entries), ShouldEqual, 2)
				So(body.Entries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When a window mixes signs", func() {
			w := do(h, http.MethodGet, "/leaderboards/score/daily/range?start=0&end=-1", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When reading a member", func() {
			w := do(h, http.MethodGet, "/leaderboards/score/daily/members/bob", "")

			Convey("Then both ranks are reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var m memberBody
				decodeBody(w, &m)
				So(m.Score, ShouldEqual, 20)
				So(m.RankDesc, ShouldEqual, 0)
				So(m.RankAsc, ShouldNotBeNil)
				So(*m.RankAsc, ShouldEqual, 2)
				So(m.TS, ShouldBeNil)
			})
		})

		Convey("When reading an absent member or leaderboard", func() {
			missing := do(h, http.MethodGet, "/leaderboards/score/daily/members/dave", "")
			unknown := do(h, http.MethodGet, "/leaderboards/score/weekly/members/bob", "")

			Convey("Then both are 404", func() {
				So(missing.Code, ShouldEqual, http.StatusNotFound)
				So(unknown.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(unknown), ShouldEqual, "not_found")
			})
		})

		Convey("When counting", func() {
			all := do(h, http.MethodGet, "/leaderboards/score/daily/count", "")
			tens := do(h, http.MethodGet, "/leaderboards/score/daily/count?min=10&max=10", "")
			open := do(h, http.MethodGet, "/leaderboards/score/daily/count?min=15&max=inf", "")

			Convey("Then totals and score windows agree", func() {
				So(all.Body.String(), ShouldContainSubstring, `"count":3`)
				So(tens.Body.String(), ShouldContainSubstring, `"count":2`)
				So(open.Body.String(), ShouldContainSubstring, `"count":1`)
			})
		})

		Convey("When incrementing and batch upserting", func() {
			inc := do(h, http.MethodPost, "/leaderboards/score/daily/members/alice/increment", `{"delta":15}`)
			batch := do(h, http.MethodPost, "/leaderboards/score/daily/members", `[{"id":"dave","score":1},{"id":"bob","score":2}]`)

			Convey("Then scores change and only new members are counted as added", func() {
				So(inc.Code, ShouldEqual, http.StatusOK)
				So(inc.Body.String(), ShouldContainSubstring, `"score":25`)
				So(batch.Code, ShouldEqual, http.StatusOK)
				So(batch.Body.String(), ShouldContainSubstring, `"added":1`)

				w := do(h, http.MethodGet, "/leaderboards/score/daily/range?end=0", "")
				var body rangeBody
				decodeBody(w, &body)
				So(body.Entries[0].ID, ShouldEqual, "alice")
			})
		})

		Convey("When a write body is incomplete", func() {
			noScore := do(h, http.MethodPut, "/leaderboards/score/daily/members/eve", `{}`)
			noDelta := do(h, http.MethodPost, "/leaderboards/score/daily/members/eve/increment", `{}`)
			badBatch := do(h, http.MethodPost, "/leaderboards/score/daily/members", `[{"id":"eve"}]`)
			garbage := do(h, http.MethodPut, "/leaderboards/score/daily/members/eve", `{"score":`)

			Convey("Then each is a bad request", func() {
				So(noScore.Code, ShouldEqual, http.StatusBadRequest)
				So(noDelta.Code, ShouldEqual, http.StatusBadRequest)
				So(badBatch.Code, ShouldEqual, http.StatusBadRequest)
				So(garbage.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When removing by score and by rank", func() {
			byScore := do(h, http.MethodDelete, "/leaderboards/score/daily/range?by=score&min=10&max=10", "")
			byRank := do(h, http.MethodDelete, "/leaderboards/score/daily/range?by=rank&start=0&end=0", "")
			bad := do(h, http.MethodDelete, "/leaderboards/score/daily/range?by=name", "")

			Convey("Then the counts come back and bad selectors are rejected", func() {
				So(byScore.Body.String(), ShouldContainSubstring, `"removed":2`)
				So(byRank.Body.String(), ShouldContainSubstring, `"removed":1`)
				So(bad.Code, ShouldEqual, http.StatusBadRequest)

				all := do(h, http.MethodGet, "/leaderboards/score/daily/count", "")
				So(all.Body.String(), ShouldContainSubstring, `"count":0`)
			})
		})

		Convey("When bob is moved to weekly", func() {
			So(do(h, http.MethodPut, "/leaderboards/score/weekly", "").Code, ShouldEqual, http.StatusOK)
			w := do(h, http.MethodPost, "/leaderboards/score/move", `{"src":"daily","tgt":"weekly","id":"bob"}`)

			Convey("Then he leaves daily with his score", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"moved":true`)

				gone := do(h, http.MethodGet, "/leaderboards/score/daily/members/bob", "")
				So(gone.Code, ShouldEqual, http.StatusNotFound)

				there := do(h, http.MethodGet, "/leaderboards/score/weekly/members/bob", "")
				var m memberBody
				decodeBody(there, &m)
				So(m.Score, ShouldEqual, 20)
			})
		})

		Convey("When a member and then the leaderboard are deleted", func() {
			member := do(h, http.MethodDelete, "/leaderboards/score/daily/members/alice", "")
			board := do(h, http.MethodDelete, "/leaderboards/score/daily", "")

			Convey("Then both succeed and the leaderboard is gone", func() {
				So(member.Body.String(), ShouldContainSubstring, `"removed":1`)
				So(board.Code, ShouldEqual, http.StatusNoContent)

				w := do(h, http.MethodGet, "/leaderboards/score/daily/range", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the variant is unknown", func() {
			w := do(h, http.MethodGet, "/leaderboards/elo", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestRecencyLeaderboardRoutes(t *testing.T) {
	Convey("Given a recency leaderboard arena", t, func() {
		svc := newService()
		defer svc.Stop(context.Background())
		h := api.NewServer(svc).Handler()

		So(do(h, http.MethodPut, "/leaderboards/recency/arena/members/early", `{"score":10,"ts":"2024-01-01T00:00:00Z"}`).Code, ShouldEqual, http.StatusOK)
		So(do(h, http.MethodPut, "/leaderboards/recency/arena/members/late", `{"score":10,"ts":"2024-06-01T00:00:00Z"}`).Code, ShouldEqual, http.StatusOK)
		So(do(h, http.MethodPut, "/leaderboards/recency/arena/members/now", `{"score":5}`).Code, ShouldEqual, http.StatusOK)

		Convey("When reading the descending range", func() {
			w := do(h, http.MethodGet, "/leaderboards/recency/arena/range", "")

			Convey("Then ties are broken most recent first and times are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body rangeBody
				decodeBody(w, &body)
				So(len(body.Entries), ShouldEqual, 3)
				So(body.Entries[0].ID, ShouldEqual, "late")
				So(body.Entries[1].ID, ShouldEqual, "early")
				So(body.Entries[0].TS.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When a write carries no timestamp", func() {
			w := do(h, http.MethodGet, "/leaderboards/recency/arena/members/now", "")

			Convey("Then the service clock is used", func() {
				var m memberBody
				decodeBody(w, &m)
				So(m.TS, ShouldNotBeNil)
				So(m.TS.Equal(fixedNow), ShouldBeTrue)
				So(m.RankAsc, ShouldBeNil)
			})
		})

		Convey("When ascending operations are requested", func() {
			rng := do(h, http.MethodGet, "/leaderboards/recency/arena/range?order=asc", "")
			cnt := do(h, http.MethodGet, "/leaderboards/recency/arena/count?min=0&max=100", "")
			rm := do(h, http.MethodDelete, "/leaderboards/recency/arena/range?by=rank&start=0&end=0", "")

			Convey("Then each is unsupported", func() {
				So(rng.Code, ShouldEqual, http.StatusNotImplemented)
				So(errorCode(rng), ShouldEqual, "unsupported_operation")
				So(cnt.Code, ShouldEqual, http.StatusNotImplemented)
				So(rm.Code, ShouldEqual, http.StatusNotImplemented)
			})
		})

		Convey("When counting without bounds", func() {
			w := do(h, http.MethodGet, "/leaderboards/recency/arena/count", "")

			Convey("Then every member is counted", func() {
				So(w.Body.String(), ShouldContainSubstring, `"count":3`)
			})
		})

		Convey("When a member is moved between recency leaderboards", func() {
			So(do(h, http.MethodPut, "/leaderboards/recency/lobby", "").Code, ShouldEqual, http.StatusOK)
			w := do(h, http.MethodPost, "/leaderboards/recency/move", `{"src":"arena","tgt":"lobby","id":"early"}`)

			Convey("Then its timestamp travels with it", func() {
				So(w.Body.String(), ShouldContainSubstring, `"moved":true`)
				got := do(h, http.MethodGet, "/leaderboards/recency/lobby/members/early", "")
				var m memberBody
				decodeBody(got, &m)
				So(m.TS.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})
	})
}

func TestEventRoutes(t *testing.T) {
	Convey("Given a server accepting events", t, func() {
		svc := newService()
		defer svc.Stop(context.Background())
		deps := &fakeDeps{Service: svc}
		h := api.NewServer(deps).Handler()

		body := `{"event_id":"ev-1","leaderboard":"daily","member_id":"alice","op":"set","value":9}`

		Convey("When an event is posted twice", func() {
			first := do(h, http.MethodPost, "/events", body)
			second := do(h, http.MethodPost, "/events", body)

			Convey("Then it is accepted once and acknowledged as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(first.Body.String(), ShouldContainSubstring, `"event_id":"ev-1"`)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(second.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})
		})

		Convey("When an event has no id", func() {
			w := do(h, http.MethodPost, "/events", `{"leaderboard":"daily","member_id":"bob","op":"incr","value":1}`)

			Convey("Then one is generated", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var ack struct {
					EventID string `json:"event_id"`
				}
				decodeBody(w, &ack)
				So(ack.EventID, ShouldNotBeEmpty)
			})
		})

		Convey("When an event is invalid", func() {
			badOp := do(h, http.MethodPost, "/events", `{"event_id":"x","leaderboard":"daily","member_id":"a","op":"mul","value":1}`)
			badVariant := do(h, http.MethodPost, "/events", `{"event_id":"y","variant":"elo","leaderboard":"daily","member_id":"a","op":"set","value":1}`)
			unknownField := do(h, http.MethodPost, "/events", `{"event_id":"z","talent_id":"a"}`)

			Convey("Then each is a bad request", func() {
				So(badOp.Code, ShouldEqual, http.StatusBadRequest)
				So(badVariant.Code, ShouldEqual, http.StatusBadRequest)
				So(unknownField.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueueErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
			w := do(h, http.MethodPost, "/events", body)

			Convey("Then the client is told to back off", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(errorCode(w), ShouldEqual, "backpressure")
			})
		})

		Convey("When the store refuses the score", func() {
			deps.enqueueErr = fmt.Errorf("%w: zincrby daily: result is NaN", store.ErrInvalidScore)
			w := do(h, http.MethodPost, "/events", body)

			Convey("Then it is the client's fault on every backend", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})
		})

		Convey("When something unexpected fails", func() {
			deps.enqueueErr = errors.New("boom")
			w := do(h, http.MethodPost, "/events", body)

			Convey("Then it is an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(errorCode(w), ShouldEqual, "internal_error")
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("cause")

		Convey("Then errors.Is sees both the kind and the cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: cause")
		})

		Convey("Then NewKind and Wrap carry the op", func() {
			So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: cause")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
