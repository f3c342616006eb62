package metrics

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

const (
	metricPrefix = "folio_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	operationTotal   *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec

	eventEmitTotal *prometheus.CounterVec

	documentRenderTotal   *prometheus.CounterVec
	documentRenderLatency *prometheus.HistogramVec

	httpRequestsTotal *prometheus.CounterVec
)

// Init registers the billing metrics with the default registry. db may be nil.
func Init(db *sql.DB) {
	registerOnce.Do(func() {
		operationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operations_total",
				Help: "Total ledger operations by operation and result",
			},
			[]string{"operation", "result"},
		)
		operationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "operation_latency_seconds",
				Help:    "Ledger operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)
		eventEmitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_emit_total",
				Help: "Domain events emitted after commit by type and result",
			},
			[]string{"type", "result"},
		)
		documentRenderTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "document_render_total",
				Help: "Invoice documents rendered by format and result",
			},
			[]string{"format", "result"},
		)
		documentRenderLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "document_render_latency_seconds",
				Help:    "Invoice document render latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)
		httpRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method and status class",
			},
			[]string{"method", "status"},
		)

		prometheus.MustRegister(
			operationTotal,
			operationLatency,
			eventEmitTotal,
			documentRenderTotal,
			documentRenderLatency,
			httpRequestsTotal,
		)

		if db != nil {
			registerDBMetrics(db)
		}
	})
}

func registerDBMetrics(db *sql.DB) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "db_open_connections",
			Help: "Open database connections",
		}, func() float64 { return float64(db.Stats().OpenConnections) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "db_in_use_connections",
			Help: "Database connections currently in use",
		}, func() float64 { return float64(db.Stats().InUse) }),
	)
}

// Result classifies an operation error into a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrCurrencyMismatch):
		return "validation"
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return "contention"
	default:
		return ResultError
	}
}

// ObserveOperation records one ledger operation.
func ObserveOperation(operation string, err error, duration time.Duration) {
	result := Result(err)
	if operationTotal != nil {
		operationTotal.WithLabelValues(operation, result).Inc()
	}
	if operationLatency != nil {
		operationLatency.WithLabelValues(operation, result).Observe(duration.Seconds())
	}
}

func IncEventEmit(eventType string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	if eventEmitTotal != nil {
		eventEmitTotal.WithLabelValues(eventType, result).Inc()
	}
}

func ObserveDocumentRender(format string, err error, duration time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	if documentRenderTotal != nil {
		documentRenderTotal.WithLabelValues(format, result).Inc()
	}
	if documentRenderLatency != nil {
		documentRenderLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

func IncHTTPRequest(method string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	class := "5xx"
	switch {
	case status < 300:
		class = "2xx"
	case status < 400:
		class = "3xx"
	case status < 500:
		class = "4xx"
	}
	httpRequestsTotal.WithLabelValues(method, class).Inc()
}
