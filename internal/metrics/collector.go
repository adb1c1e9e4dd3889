// Package metrics exposes Prometheus instruments for tool registration and invocation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcp_openapi_hub"

// Outcome labels of an invocation
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector groups the hub's instruments. A nil *Collector is a valid no-op.
type Collector struct {
	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	toolsRegistered    prometheus.Gauge
	documentsLoaded    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewCollector registers the instruments with a fresh registry
func NewCollector() *Collector {
	return NewCollectorWith(prometheus.NewRegistry())
}

// NewCollectorWith registers the instruments with reg
func NewCollectorWith(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		invocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of tool invocations",
			},
			[]string{"operation", "outcome"},
		),
		invocationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Backend call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		toolsRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tools_registered",
			Help:      "Number of tools currently published",
		}),
		documentsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents_loaded",
			Help:      "Number of OpenAPI documents currently loaded",
		}),
		gatherer: reg,
	}
}

// RecordInvocation counts one tool call and observes its duration
func (c *Collector) RecordInvocation(operationID string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	c.invocationsTotal.WithLabelValues(operationID, outcome).Inc()
	c.invocationDuration.WithLabelValues(operationID).Observe(duration.Seconds())
}

// ToolPublished increments the published tool gauge
func (c *Collector) ToolPublished() {
	if c == nil {
		return
	}
	c.toolsRegistered.Inc()
}

// ToolRetracted decrements the published tool gauge
func (c *Collector) ToolRetracted() {
	if c == nil {
		return
	}
	c.toolsRegistered.Dec()
}

// SetDocuments sets the loaded document gauge
func (c *Collector) SetDocuments(n int) {
	if c == nil {
		return
	}
	c.documentsLoaded.Set(float64(n))
}

// Handler serves the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
