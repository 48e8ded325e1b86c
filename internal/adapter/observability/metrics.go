package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding requests by outcome",
		},
		[]string{"outcome"},
	)
	EmbeddingRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Embedding request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)
	EmbeddingCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"},
	)

	ScansEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scans_enqueued_total",
			Help: "Total number of scan jobs enqueued",
		},
	)
	ScansProcessing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scans_processing",
			Help: "Number of scan jobs currently processing",
		},
	)
	ScansCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scans_completed_total",
			Help: "Total number of scan jobs completed",
		},
	)
	ScansFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scans_failed_total",
			Help: "Total number of scan jobs failed",
		},
	)

	ResumeScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_resume_score",
			Help:    "Distribution of per-resume scores ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	ScanBatchSizeHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_batch_size",
			Help:    "Number of resumes per scan request",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingCacheHitsTotal)
	prometheus.MustRegister(ScansEnqueuedTotal)
	prometheus.MustRegister(ScansProcessing)
	prometheus.MustRegister(ScansCompletedTotal)
	prometheus.MustRegister(ScansFailedTotal)
	prometheus.MustRegister(ResumeScoreHistogram)
	prometheus.MustRegister(ScanBatchSizeHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

func EnqueueScan() {
	ScansEnqueuedTotal.Inc()
}

func StartProcessingScan() {
	ScansProcessing.Inc()
}

func CompleteScan() {
	ScansProcessing.Dec()
	ScansCompletedTotal.Inc()
}

func FailScan() {
	ScansProcessing.Dec()
	ScansFailedTotal.Inc()
}

// ObserveScanResult records the outcome distribution of a completed scan.
func ObserveScanResult(score float64) {
	if score >= 0 && score <= 100 {
		ResumeScoreHistogram.Observe(score)
	}
}

func ObserveScanBatchSize(n int) {
	ScanBatchSizeHistogram.Observe(float64(n))
}
