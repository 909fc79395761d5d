package metrics_test

import (
	"testing"

	"github.com/miyabi-lab/encore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When it is created", func() {
			m := metrics.NewManager(
				metrics.WithRegistry(registry),
				metrics.WithNamespace("test"),
			)

			Convey("Then all collectors register without panicking", func() {
				So(m, ShouldNotBeNil)
			})

			Convey("And the collectors are gatherable", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				// Gauges register eagerly; counters appear after first use.
				So(families, ShouldNotBeEmpty)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then the helpers do not panic", func() {
			So(func() {
				metrics.RecordEventCreated()
				metrics.RecordEventCompleted()
				metrics.RecordCreationDenied("monthly_quota_exceeded")
				metrics.RecordProjection("attendance")
				metrics.RecordExpAwarded(50, false)
				metrics.RecordExpAwarded(0, false)
				metrics.RecordExpAwarded(500, true)
				metrics.RecordAuditAppend()
				metrics.UpdateAuditQueueSize(3)
				metrics.RecordAuditQueueDrop()
				metrics.UpdateStoreShardCount(8)
				metrics.RecordStoreUpdateLatency(0.4)
				metrics.UpdateWorkerCount(2)
				metrics.RecordWorkerError()
				metrics.RecordWorkerProcessingLatency(1.2)
				metrics.RecordHTTPRequest("events", "POST", "201")
				metrics.RecordHTTPRequestDuration("events", "POST", "201", 3.5)
			}, ShouldNotPanic)
		})

		Convey("And the registry is exposed for the metrics endpoint", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})
	})
}
