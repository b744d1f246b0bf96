package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "watershed")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled, ShouldBeFalse)
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
				So(manager.customLabels["env"], ShouldEqual, "test")
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "watershed")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording analyses", func() {
			before := testutil.ToFloat64(globalManager.analyses.WithLabelValues(KindWatershed, OutcomeOK))
			RecordAnalysis(KindWatershed, OutcomeOK, 12*time.Millisecond)
			RecordAnalysis(KindWatershed, OutcomeOK, 3*time.Millisecond)

			Convey("Then the counter should advance", func() {
				after := testutil.ToFloat64(globalManager.analyses.WithLabelValues(KindWatershed, OutcomeOK))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording job pipeline metrics", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(64)
			UpdateWorkerCount(4)
			UpdateStoredJobs(3)

			Convey("Then the gauges should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.storedJobs), ShouldEqual, 3)
			})
		})

		Convey("When recording the remaining collectors", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordFallback(KindWatershed, "no_basin")
					ObserveBasinCells(120)
					AddGridPoints("kept", 3)
					AddGridPoints("dropped", 1)
					AddContourFeatures(5)
					AddContourFeatures(0)
					RecordFlowGrid()
					RecordDEMFetch("synthetic", OutcomeOK, time.Millisecond)
					RecordQueueRejection()
					RecordJob("done", 40*time.Millisecond)
					RecordJob("failed", 0)
					RecordHTTPRequest("/health", "GET", "200")
					RecordHTTPRequestDuration("/health", "GET", "200", 1.5)
					RecordErrorByComponent("dem", "read_failed")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordFlowGrid()
		families, err := GetRegistry().Gather()

		Convey("Then it should expose namespaced families only", func() {
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
			for _, f := range families {
				So(f.GetName(), ShouldStartWith, "watershed_")
			}
		})
	})
}
