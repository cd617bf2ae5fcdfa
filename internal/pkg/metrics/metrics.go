package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// 业务与 HTTP 层指标。通过 /metrics 端点暴露给 Prometheus。
var (
	HTTPRequestDuration *prometheus.HistogramVec

	RegistrationsTotal        prometheus.Counter
	LoginsTotal               *prometheus.CounterVec
	ApplicationsCreatedTotal  prometheus.Counter
	ApplicationConflictsTotal prometheus.Counter
	LoginThrottledTotal       prometheus.Counter
)

var initOnce sync.Once

// InitMetrics 注册所有指标。重复调用只生效一次。
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobboard_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		RegistrationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_registrations_total",
			Help: "Successful user registrations.",
		})
		LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"})
		ApplicationsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_applications_created_total",
			Help: "Applications created.",
		})
		ApplicationConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_application_conflicts_total",
			Help: "Duplicate application attempts rejected by the unique constraint.",
		})
		LoginThrottledTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_login_throttled_total",
			Help: "Auth requests rejected by the rate limiter.",
		})

		prometheus.MustRegister(
			HTTPRequestDuration,
			RegistrationsTotal,
			LoginsTotal,
			ApplicationsCreatedTotal,
			ApplicationConflictsTotal,
			LoginThrottledTotal,
		)
	})
}
