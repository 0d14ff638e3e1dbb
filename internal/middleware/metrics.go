package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of currently active HTTP requests",
		},
	)

	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	editorCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editor_commands_total",
			Help: "Editor commands by command and whether the document or selection changed",
		},
		[]string{"command", "changed"},
	)

	editorSessionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "editor_sessions_open",
			Help: "Number of editor sessions open on this instance",
		},
	)

	editorSaveConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "editor_save_conflicts_total",
			Help: "Saves rejected because the page changed since the session opened",
		},
	)
)

// Metrics returns a gin middleware that collects Prometheus metrics
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint itself
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		activeRequests.Inc()

		c.Next()

		activeRequests.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		// route template (/api/v1/pages/:id) keeps cardinality low
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// SetDBConnectionsActive updates the DB connection gauge (call from main)
func SetDBConnectionsActive(count float64) {
	dbConnectionsActive.Set(count)
}

// RecordEditorCommand counts one editor command
func RecordEditorCommand(command string, changed bool) {
	if command == "" {
		command = "none"
	}
	editorCommandsTotal.WithLabelValues(command, strconv.FormatBool(changed)).Inc()
}

// SetEditorSessions updates the open session gauge
func SetEditorSessions(n int) {
	editorSessionsOpen.Set(float64(n))
}

// RecordSaveConflict counts a rejected save
func RecordSaveConflict() {
	editorSaveConflicts.Inc()
}
