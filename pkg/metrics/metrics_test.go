package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should register its collectors there", func() {
				So(manager, ShouldNotBeNil)

				// Counters without observations do not gather; force one.
				manager.cacheHits.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
			})
		})

		Convey("When creating with a custom namespace", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace("testing"), WithRegistry(registry))
			manager.cacheHits.Inc()

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			So(families, ShouldHaveLength, 1)
			So(families[0].GetName(), ShouldStartWith, "testing_")
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("The package helpers must not panic", func() {
			So(func() {
				RecordScoreComputed("intent")
				RecordScoringDuration("intent", 12.5)
				RecordScoringError("ghosting")
				RecordTierResult("intent", "hot")
				RecordCacheHit()
				RecordCacheMiss()
				RecordCacheStale()
				RecordStoreQueryDuration("messages_by_sender", 3)
				RecordStoreQueryError("presence")
				RecordStoreQueryTimeout("gifts_by_sender")
				RecordBatchSubjectScored()
				RecordBatchScanDuration(100)
				UpdateBatchWorkerCount(8)
				RecordHTTPRequest("intent", "GET", "200")
				RecordHTTPRequestDuration("intent", "GET", "200", 4.2)
			}, ShouldNotPanic)
		})

		Convey("The custom registry is exposed for the metrics endpoint", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
