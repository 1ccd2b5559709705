// Package metrics exposes the agent's Prometheus instrumentation:
// scheduled jobs, published content, LLM traffic, and the market-data
// client.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels.
// These ensure metrics don't have unbounded label values which can cause memory issues.
const (
	// Job outcomes (bounded set)
	JobStatusSuccess = "success"
	JobStatusFailure = "failure"
	JobStatusSkipped = "skipped"

	// Upstream error categories (bounded set)
	ServiceErrorTimeout     = "timeout"
	ServiceErrorRateLimit   = "rate_limit"
	ServiceErrorAuth        = "authentication"
	ServiceErrorNetwork     = "network"
	ServiceErrorInvalidReq  = "invalid_request"
	ServiceErrorServerError = "server_error"
	ServiceErrorOther       = "other"
)

// NormalizeServiceError maps arbitrary upstream errors to a bounded set
func NormalizeServiceError(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ServiceErrorTimeout
	case strings.Contains(errStr, "rate") || strings.Contains(errStr, "429"):
		return ServiceErrorRateLimit
	case strings.Contains(errStr, "auth") || strings.Contains(errStr, "401") || strings.Contains(errStr, "403"):
		return ServiceErrorAuth
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection"):
		return ServiceErrorNetwork
	case strings.Contains(errStr, "400") || strings.Contains(errStr, "invalid"):
		return ServiceErrorInvalidReq
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") || strings.Contains(errStr, "503"):
		return ServiceErrorServerError
	default:
		return ServiceErrorOther
	}
}

// Scheduled Job Metrics
var (
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hfa_job_runs_total",
		Help: "Total scheduled job runs by job name and outcome",
	}, []string{"job", "status"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hfa_job_duration_seconds",
		Help:    "Scheduled job duration in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"job"})

	TweetsToday = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hfa_tweets_today",
		Help: "Tweets published since midnight, checked against the daily cap",
	})
)

// Content Metrics
var (
	ContentPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hfa_content_published_total",
		Help: "Published content by type and category",
	}, []string{"content_type", "category"})

	ThemeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hfa_theme_rejections_total",
		Help: "Candidates rejected as too similar, by content type",
	}, []string{"content_type"})

	HeadlinesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hfa_headlines_fetched_total",
		Help: "Headlines pulled from RSS feeds",
	})

	HeadlinesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hfa_headlines_stored_total",
		Help: "Headlines that cleared scoring and were stored",
	})
)

// LLM Metrics
var (
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hfa_llm_requests_total",
		Help: "LLM completions by operation and outcome",
	}, []string{"operation", "status"})

	LLMRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hfa_llm_request_duration_ms",
		Help:    "LLM request duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000},
	})
)

// Market-Data Client Metrics
var (
	MarketAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hfa_market_api_latency_ms",
		Help:    "Market-data service latency in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"endpoint"})

	MarketAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hfa_market_api_errors_total",
		Help: "Market-data service errors by category",
	}, []string{"error_type"})
)

// System Health Metrics
var (
	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hfa_database_connections_active",
		Help: "Number of active database connections",
	})

	DatabaseConnectionsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hfa_database_connections_idle",
		Help: "Number of idle database connections",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hfa_http_requests_total",
		Help: "Status API requests",
	}, []string{"method", "path", "status_code"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hfa_errors_total",
		Help: "Total number of errors by type and component",
	}, []string{"type", "component"})
)

// Helper functions to update metrics

// RecordJobRun records one scheduled job execution
func RecordJobRun(job, status string, durationSeconds float64) {
	JobRuns.WithLabelValues(job, status).Inc()
	if status != JobStatusSkipped {
		JobDuration.WithLabelValues(job).Observe(durationSeconds)
	}
}

// RecordContentPublished records one published piece
func RecordContentPublished(contentType, category string) {
	ContentPublished.WithLabelValues(contentType, category).Inc()
}

// RecordThemeRejection records a candidate dropped for similarity
func RecordThemeRejection(contentType string) {
	ThemeRejections.WithLabelValues(contentType).Inc()
}

// RecordLLMRequest records an LLM completion
func RecordLLMRequest(operation string, err error, durationMs float64) {
	status := JobStatusSuccess
	if err != nil {
		status = JobStatusFailure
	}
	LLMRequests.WithLabelValues(operation, status).Inc()
	LLMRequestDuration.Observe(durationMs)
}

// RecordMarketAPICall records a market-data call with normalized error category
func RecordMarketAPICall(endpoint string, durationMs float64, err error) {
	MarketAPILatency.WithLabelValues(endpoint).Observe(durationMs)
	if err != nil {
		MarketAPIErrors.WithLabelValues(NormalizeServiceError(err)).Inc()
	}
}

// RecordPipelineRun records one headline pipeline pass
func RecordPipelineRun(fetched, stored int) {
	HeadlinesFetched.Add(float64(fetched))
	HeadlinesStored.Add(float64(stored))
}

// UpdateDatabaseConnections updates database connection metrics
func UpdateDatabaseConnections(active, idle int32) {
	DatabaseConnectionsActive.Set(float64(active))
	DatabaseConnectionsIdle.Set(float64(idle))
}

// RecordHTTPRequest records a status API request
func RecordHTTPRequest(method, path, statusCode string) {
	HTTPRequests.WithLabelValues(method, path, statusCode).Inc()
}

// RecordError records an error
func RecordError(errorType, component string) {
	Errors.WithLabelValues(errorType, component).Inc()
}
