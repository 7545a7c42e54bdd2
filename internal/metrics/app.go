package metrics

import (
	"time"

	"github.com/vibecheck/vibecheck/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Analysis pipeline metrics
	AnalysesTotal      = "app_analyses_total"
	AnalysisDurationMs = "app_analysis_duration_ms"
	AnalysisCacheHits  = "app_analysis_cache_hits_total"

	// Upstream call metrics
	UpstreamRequestsTotal = "app_upstream_requests_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordAnalysis records a completed analysis with provider and outcome.
func RecordAnalysis(provider string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AnalysesTotal,
			1,
			map[string]string{
				"provider": provider,
				"status":   status,
			},
		)
		_ = observability.TelemetrySystem.Histogram(
			AnalysisDurationMs,
			duration,
			map[string]string{
				"provider": provider,
			},
		)
	}
}

// RecordCacheHit records an analysis served from the store.
func RecordCacheHit() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(AnalysisCacheHits, 1, nil)
	}
}

// RecordUpstreamRequest records a call to an external service (TMDB, AI provider).
func RecordUpstreamRequest(service string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamRequestsTotal,
			1,
			map[string]string{
				"service": service,
				"status":  status,
			},
		)
	}
}

// RecordHealthCheck records a health check execution.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp).
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
