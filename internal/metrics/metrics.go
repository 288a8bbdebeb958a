package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	LoadDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cluster_load_duration_seconds",
		Help:    "Time spent building the cluster hierarchy.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	LoadedPoints = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cluster_loaded_points",
		Help: "Number of input points in the current hierarchy.",
	})

	LoadErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cluster_load_error_total",
		Help: "Loads rejected because of invalid input or storage errors.",
	})

	QueryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cluster_query_total",
		Help: "Queries served by endpoint.",
	}, []string{"endpoint"})

	QueryResultSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cluster_query_result_size",
		Help:    "Number of features returned per query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"endpoint"})
)

// Register registers cluster metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			LoadDurationSeconds,
			LoadedPoints,
			LoadErrorTotal,
			QueryTotal,
			QueryResultSize,
		)
	})
}

// ObserveQuery counts a query and its result size
func ObserveQuery(endpoint string, size int) {
	QueryTotal.WithLabelValues(endpoint).Inc()
	QueryResultSize.WithLabelValues(endpoint).Observe(float64(size))
}
