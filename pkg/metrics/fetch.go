package metrics

import (
	"time"

	"github.com/modelstage/modelstage/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// fetchMetrics is the Prometheus implementation of model.FetchMetrics.
type fetchMetrics struct {
	filesDownloaded prometheus.Counter
	bytesDownloaded prometheus.Counter
	filesSkipped    prometheus.Counter
	treeFetches     *prometheus.CounterVec
	treeDuration    prometheus.Histogram
}

// NewFetchMetrics creates a Prometheus-backed model.FetchMetrics.
//
// Returns nil when metrics are disabled (InitRegistry not called), which
// makes the fetcher use its no-op implementation.
func NewFetchMetrics() model.FetchMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &fetchMetrics{
		filesDownloaded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "modelstage_fetch_files_total",
			Help: "Total number of model files staged locally",
		}),
		bytesDownloaded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "modelstage_fetch_bytes_total",
			Help: "Total bytes downloaded into the staging area",
		}),
		filesSkipped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "modelstage_fetch_skipped_files_total",
			Help: "Total number of files excluded by the extension filter",
		}),
		treeFetches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "modelstage_fetch_trees_total",
			Help: "Total number of version tree fetches by status",
		}, []string{"status"}),
		treeDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "modelstage_fetch_tree_duration_seconds",
			Help: "Duration of version tree fetches in seconds",
			Buckets: []float64{
				0.05, // 50ms
				0.1,  // 100ms
				0.25, // 250ms
				0.5,  // 500ms
				1.0,  // 1s
				2.5,  // 2.5s
				5.0,  // 5s
				10.0, // 10s
				30.0, // 30s
				60.0, // 1m
				300,  // 5m
			},
		}),
	}
}

func (m *fetchMetrics) FileDownloaded(bytes int) {
	m.filesDownloaded.Inc()
	m.bytesDownloaded.Add(float64(bytes))
}

func (m *fetchMetrics) FileSkipped() {
	m.filesSkipped.Inc()
}

func (m *fetchMetrics) TreeFetched(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.treeFetches.WithLabelValues(status).Inc()
	m.treeDuration.Observe(duration.Seconds())
}
