package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several instances can coexist in tests.
// All methods are safe to call on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	batches          *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	rowOutcomes      *prometheus.CounterVec
	renderDuration   *prometheus.HistogramVec
	employeesCreated prometheus.Counter
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payslipgen_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payslipgen_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payslipgen_batches_total",
			Help: "Bulk generation batches by final outcome.",
		}, []string{"outcome"}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payslipgen_batch_duration_seconds",
			Help:    "Wall time of bulk generation batches.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		rowOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payslipgen_batch_rows_total",
			Help: "Processed batch rows by stage reached and outcome.",
		}, []string{"stage", "outcome"}),
		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payslipgen_render_duration_seconds",
			Help:    "Document render latency by page format and result.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"format", "result"}),
		employeesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "payslipgen_employees_reconciled_created_total",
			Help: "Employees created implicitly during reconciliation.",
		}),
	}
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveBatch records a finished batch. outcome is one of succeeded, partial, failed.
func (c *Collector) ObserveBatch(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.batches.WithLabelValues(outcome).Inc()
	c.batchDuration.Observe(duration.Seconds())
}

func (c *Collector) ObserveRow(stage string, ok bool) {
	if c == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "success"
	}
	c.rowOutcomes.WithLabelValues(stage, outcome).Inc()
}

func (c *Collector) ObserveRender(format string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.renderDuration.WithLabelValues(format, result).Observe(duration.Seconds())
}

func (c *Collector) EmployeeCreated() {
	if c == nil {
		return
	}
	c.employeesCreated.Inc()
}
