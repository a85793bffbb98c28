package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the application's metrics registry, exposed on /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Custom histogram buckets for latencies ranging from milliseconds to
	// slow outbound Bot API uploads
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Business Metrics
	SubmissionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cupost_submissions_total",
			Help: "Total number of submission attempts by outcome",
		},
		[]string{"status"},
	)

	CaptchaVerifications = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cupost_captcha_verifications_total",
			Help: "Total number of captcha verification attempts",
		},
		[]string{"provider", "status"},
	)

	// Outbound messaging client metrics
	TelegramRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messaging_client_operation_duration_seconds",
			Help:    "Bot API operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"method", "status"},
	)

	TelegramRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_client_operation_total",
			Help: "Total number of Bot API operations",
		},
		[]string{"method", "status"},
	)

	// Infrastructure Metrics
	GoroutinesActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "go_app_goroutines",
			Help: "Number of active goroutines",
		},
	)
)

// Init registers the standard process and Go runtime collectors.
func Init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// RecordInfrastructureMetrics starts a background sampler for coarse runtime
// gauges not covered by the standard collectors.
func RecordInfrastructureMetrics() {
	go func() {
		for {
			GoroutinesActive.Set(float64(runtime.NumGoroutine()))
			time.Sleep(15 * time.Second)
		}
	}()
}

// MeasureDuration returns the elapsed time since start in seconds
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
