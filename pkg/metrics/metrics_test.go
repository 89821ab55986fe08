package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func familyByName(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When applying them to a manager", func() {
			m := &Manager{}
			WithNamespace("ns")(m)
			WithSubsystem("sub")(m)
			WithHistogramBuckets([]float64{1, 2})(m)
			WithStoreBuckets([]float64{0.1})(m)
			WithConstLabels(map[string]string{"env": "test"})(m)
			registry := prometheus.NewRegistry()
			WithPrometheusRegistry(registry)(m)

			Convey("Then every field should be set", func() {
				So(m.namespace, ShouldEqual, "ns")
				So(m.subsystem, ShouldEqual, "sub")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 2})
				So(m.storeBuckets, ShouldResemble, []float64{0.1})
				So(m.constLabels, ShouldResemble, map[string]string{"env": "test"})
				So(m.registry, ShouldEqual, registry)
			})
		})

		Convey("When applying empty values", func() {
			m := &Manager{namespace: "keep", subsystem: "keep"}
			WithNamespace("")(m)
			WithSubsystem("")(m)
			WithHistogramBuckets(nil)(m)
			WithStoreBuckets(nil)(m)
			WithPrometheusRegistry(nil)(m)

			Convey("Then previous values should be kept", func() {
				So(m.namespace, ShouldEqual, "keep")
				So(m.subsystem, ShouldEqual, "keep")
				So(m.histogramBuckets, ShouldBeNil)
				So(m.storeBuckets, ShouldBeNil)
				So(m.registry, ShouldBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("lb"),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.moves.WithLabelValues("score", "moved").Inc()
			m.storeCommandLatency.WithLabelValues("memory", "zadd").Observe(0.02)

			Convey("Then collectors should be registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				f := familyByName(families, "test_lb_moves_total")
				So(f, ShouldNotBeNil)
				So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)

				var env string
				for _, lp := range f.GetMetric()[0].GetLabel() {
					if lp.GetName() == "env" {
						env = lp.GetValue()
					}
				}
				So(env, ShouldEqual, "test")
			})

			Convey("Then store latency uses the finer store buckets", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				f := familyByName(families, "test_lb_store_command_duration_milliseconds")
				So(f, ShouldNotBeNil)
				buckets := f.GetMetric()[0].GetHistogram().GetBucket()
				So(len(buckets), ShouldEqual, len(defaultStoreBuckets))
				So(buckets[0].GetUpperBound(), ShouldEqual, defaultStoreBuckets[0])
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording store and leaderboard metrics", func() {
			So(func() {
				RecordStoreCommandLatency("memory", "zadd", 0.2)
				RecordStoreCommandError("redis", "zrank")
				RecordLeaderboardOperation("score", "add", "ok", 1.5)
				RecordLeaderboardOperation("recency", "rank_desc", "error", 3)
				UpdateRegisteredLeaderboards("score", 3)
				RecordReconciledLeaderboards("recency", 2)
				RecordMove("score", "moved")
			}, ShouldNotPanic)

			Convey("Then they should be visible in the custom registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(familyByName(families, "rankd_leaderboard_store_command_duration_milliseconds"), ShouldNotBeNil)
				So(familyByName(families, "rankd_leaderboard_store_command_errors_total"), ShouldNotBeNil)
				So(familyByName(families, "rankd_leaderboard_operations_total"), ShouldNotBeNil)

				registered := familyByName(families, "rankd_leaderboard_registered")
				So(registered, ShouldNotBeNil)
				So(registered.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 3)
			})
		})

		Convey("When recording ingestion, HTTP, queue and worker metrics", func() {
			So(func() {
				RecordEventAccepted()
				RecordEventDuplicate()
				RecordEventApplied()
				RecordEventFailed()
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 5)
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.3)
				UpdateWorkerActiveCount(4)
				UpdateWorkerMessagesPerSecond(120)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording error and system metrics", func() {
			So(func() {
				RecordErrorByComponent("store", "unavailable")
				RecordErrorByType("validation_error", "warning")
				RecordErrorByEndpoint("/events", "POST", "queue_full")
				RecordErrorLatency("http", "not_found", 1)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.05)
			}, ShouldNotPanic)
		})
	})
}
