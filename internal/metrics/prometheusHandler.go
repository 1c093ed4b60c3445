package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "index_job_duration_seconds",
	Help:    "Total time spent processing an index job.",
	Buckets: []float64{.5, 1, 5, 15, 30, 60, 300, 900},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	//dependencyLatency.WithLabelValues(label).Observe(time.Since(timeElapsed).Seconds())
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

var ocrCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ocr_calls_total",
	Help: "Cloud OCR page calls labelled by final outcome",
}, []string{"outcome"})

var ocrRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ocr_rate_limited_total",
	Help: "Cloud OCR attempts rejected with a rate limit",
})

var pageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "page_cache_lookups_total",
	Help: "Page cache lookups labelled by hit or miss",
}, []string{"result"})

var documentsIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "documents_indexed_total",
	Help: "Indexed files labelled by outcome",
}, []string{"outcome"})

func CaptureOCRCall(outcome string) {
	ocrCallsTotal.WithLabelValues(outcome).Inc()
}

func IncrementOCRRateLimited() {
	ocrRateLimitedTotal.Inc()
}

func CapturePageCacheLookup(hit bool) {
	if hit {
		pageCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	pageCacheLookups.WithLabelValues("miss").Inc()
}

func CaptureDocumentIndexed(outcome string) {
	documentsIndexed.WithLabelValues(outcome).Inc()
}
