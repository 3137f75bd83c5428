package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "teamsync"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Transcript uploads, split by whether they replaced an existing file.",
	}, []string{"kind"})

	extractionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extraction_outcomes_total",
		Help:      "Extraction calls by kind (todos, events) and outcome.",
	}, []string{"kind", "status"})

	extractedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extracted_records_total",
		Help:      "Records persisted by extraction.",
	}, []string{"kind"})

	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Completion latency per provider.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})

	llmFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_failures_total",
		Help:      "Failed completion calls per provider.",
	}, []string{"provider"})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_total",
		Help:      "Background jobs by task type and result.",
	}, []string{"task", "result"})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transcript_processing_duration_seconds",
		Help:      "End-to-end extraction time per transcript.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	cleanupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_deleted_transcripts_total",
		Help:      "Transcripts removed by the retention job.",
	})
)

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncUpload counts an accepted upload.
func IncUpload(replaced bool) {
	kind := "new"
	if replaced {
		kind = "replace"
	}
	uploadsTotal.WithLabelValues(kind).Inc()
}

// IncExtraction counts one extraction call outcome.
func IncExtraction(kind, status string) {
	extractionOutcomes.WithLabelValues(kind, status).Inc()
}

// AddExtracted counts persisted todos or events.
func AddExtracted(kind string, n int) {
	if n <= 0 {
		return
	}
	extractedRecords.WithLabelValues(kind).Add(float64(n))
}

// ObserveLLM records a completion call.
func ObserveLLM(provider string, elapsed time.Duration, err error) {
	llmRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if err != nil {
		llmFailuresTotal.WithLabelValues(provider).Inc()
	}
}

// IncJob counts a finished job run; result is ok, retry or failed.
func IncJob(task, result string) {
	jobsTotal.WithLabelValues(task, result).Inc()
}

// ObserveProcessing records how long one transcript took to process.
func ObserveProcessing(elapsed time.Duration) {
	processingDuration.Observe(elapsed.Seconds())
}

// AddCleanupDeleted counts transcripts removed by retention.
func AddCleanupDeleted(n int) {
	if n <= 0 {
		return
	}
	cleanupDeletedTotal.Add(float64(n))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
