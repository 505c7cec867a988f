package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Billing metrics
	PaymentsTotal          *prometheus.CounterVec
	PaymentAmountTotal     *prometheus.CounterVec
	StatusTransitionsTotal *prometheus.CounterVec
	UsageLogsTotal         *prometheus.CounterVec

	// Job metrics
	JobRunsTotal    *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	JobItemsTouched *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billing_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		PaymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_payments_total",
				Help: "Payments recorded, by status",
			},
			[]string{"status"},
		),
		PaymentAmountTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_payment_amount_total",
				Help: "Sum of completed payment amounts, by currency",
			},
			[]string{"currency"},
		),
		StatusTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_subscription_status_transitions_total",
				Help: "Subscription status transitions",
			},
			[]string{"from", "to"},
		),
		UsageLogsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_usage_logs_total",
				Help: "Usage log rows written, by feature",
			},
			[]string{"feature"},
		),

		JobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_job_runs_total",
				Help: "Scheduled job runs, by job and result",
			},
			[]string{"job", "result"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billing_job_duration_seconds",
				Help:    "Scheduled job duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		JobItemsTouched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_job_items_total",
				Help: "Subscriptions touched by scheduled jobs",
			},
			[]string{"job", "action"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PaymentsTotal,
		m.PaymentAmountTotal,
		m.StatusTransitionsTotal,
		m.UsageLogsTotal,
		m.JobRunsTotal,
		m.JobDuration,
		m.JobItemsTouched,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordPayment(status, currency string, amount float64) {
	if m == nil {
		return
	}
	m.PaymentsTotal.WithLabelValues(status).Inc()
	if status == "completed" {
		m.PaymentAmountTotal.WithLabelValues(currency).Add(amount)
	}
}

func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	if from == "" {
		from = "new"
	}
	m.StatusTransitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordUsageLog(feature string) {
	if m == nil {
		return
	}
	m.UsageLogsTotal.WithLabelValues(feature).Inc()
}

func (m *Metrics) RecordJob(job string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.JobRunsTotal.WithLabelValues(job, result).Inc()
	m.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordJobItems(job, action string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.JobItemsTouched.WithLabelValues(job, action).Add(float64(n))
}
