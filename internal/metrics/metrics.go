// Package metrics exposes Prometheus counters and histograms for image downloads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vertextoedge/image-downloader/internal/domain"
)

const namespace = "image_downloader"

// Metrics records download outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	downloadsTotal  *prometheus.CounterVec
	bytesTotal      prometheus.Counter
	durationSeconds *prometheus.HistogramVec
	fileSizeBytes   prometheus.Histogram
	inProgress      prometheus.Gauge
}

// New creates the download metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		downloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_total",
				Help:      "Download attempts by outcome and failure kind",
			},
			[]string{"status", "kind"},
		),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Image bytes written to disk",
		}),
		durationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "download_duration_seconds",
				Help:      "Time spent per download attempt",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		fileSizeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_size_bytes",
			Help:      "Size of downloaded images",
			// 1KB .. 64MB
			Buckets: prometheus.ExponentialBuckets(1024, 4, 9),
		}),
		inProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads_in_progress",
			Help:      "Downloads currently running",
		}),
	}

	reg.MustRegister(m.downloadsTotal, m.bytesTotal, m.durationSeconds, m.fileSizeBytes, m.inProgress)
	return m
}

// Started marks a download as running
func (m *Metrics) Started() {
	if m == nil {
		return
	}
	m.inProgress.Inc()
}

// Observe records a finished download
func (m *Metrics) Observe(result domain.DownloadResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inProgress.Dec()

	status := "success"
	if !result.Success() {
		status = "failure"
	}
	m.downloadsTotal.WithLabelValues(status, result.Kind().String()).Inc()
	m.durationSeconds.WithLabelValues(status).Observe(elapsed.Seconds())

	if result.Success() {
		m.bytesTotal.Add(float64(result.BytesWritten()))
		m.fileSizeBytes.Observe(float64(result.BytesWritten()))
	}
}
