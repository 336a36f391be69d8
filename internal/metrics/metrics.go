// Package metrics exposes Prometheus collectors for the harvester.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	harvestPagesTotal   *prometheus.CounterVec
	harvestProbesTotal  *prometheus.CounterVec
	harvestItemsTotal   *prometheus.CounterVec
	harvestBatchesTotal *prometheus.CounterVec
	storeWritesTotal    *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		harvestPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_pages_total",
				Help: "Total number of listing pages fetched, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		harvestProbesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_probes_total",
				Help: "Total number of existence probes issued, labeled by source.",
			},
			[]string{"source"},
		)

		harvestItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_items_total",
				Help: "Total number of items extracted, labeled by source.",
			},
			[]string{"source"},
		)

		harvestBatchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_batches_total",
				Help: "Total number of page batches processed, labeled by source and result.",
			},
			[]string{"source", "result"},
		)

		storeWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_writes_total",
				Help: "Total number of rows written, labeled by table.",
			},
			[]string{"table"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage counts one fetched page with its outcome ("ok", "missing", "empty", "error").
func ObservePage(source, outcome string) {
	if harvestPagesTotal == nil {
		return
	}
	harvestPagesTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveProbe counts one HEAD existence probe.
func ObserveProbe(source string) {
	if harvestProbesTotal == nil {
		return
	}
	harvestProbesTotal.WithLabelValues(source).Inc()
}

// ObserveItems adds extracted item counts for a source.
func ObserveItems(source string, n int) {
	if harvestItemsTotal == nil || n <= 0 {
		return
	}
	harvestItemsTotal.WithLabelValues(source).Add(float64(n))
}

// ObserveBatch counts one completed batch with its result ("ok", "empty", "failed").
func ObserveBatch(source, result string) {
	if harvestBatchesTotal == nil {
		return
	}
	harvestBatchesTotal.WithLabelValues(source, result).Inc()
}

// ObserveWrite counts one row write against a table.
func ObserveWrite(table string) {
	if storeWritesTotal == nil {
		return
	}
	storeWritesTotal.WithLabelValues(table).Inc()
}
