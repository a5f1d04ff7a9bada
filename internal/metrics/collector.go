// Package metrics provides internal metrics collection for the debate
// pipeline. This package is internal and should not be imported by external
// projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the pipeline's Prometheus metrics.
type Collector struct {
	stageDuration  *prometheus.HistogramVec
	invokesTotal   *prometheus.CounterVec
	parseFallbacks *prometheus.CounterVec
	debatesTotal   *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a metrics collector registered against reg. A nil
// registerer uses the default Prometheus registry; a nil logger is replaced
// with a no-op logger.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.stageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each debate stage in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	c.invokesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invokes_total",
			Help:      "Total number of participant invocations",
		},
		[]string{"stage", "participant", "status"},
	)

	c.parseFallbacks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_fallbacks_total",
			Help:      "Total number of fields that degraded to their default value",
		},
		[]string{"stage", "field"},
	)

	c.debatesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debates_total",
			Help:      "Total number of completed debates",
		},
		[]string{"status"},
	)

	return c
}

// ObserveStage records the duration of one stage. Safe on a nil Collector.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordInvoke counts one participant invocation with its outcome. Safe on
// a nil Collector.
func (c *Collector) RecordInvoke(stage, participant, status string) {
	if c == nil {
		return
	}
	c.invokesTotal.WithLabelValues(stage, participant, status).Inc()
}

// RecordParseFallback counts one field that fell back to its default. Safe
// on a nil Collector.
func (c *Collector) RecordParseFallback(stage, field string) {
	if c == nil {
		return
	}
	c.parseFallbacks.WithLabelValues(stage, field).Inc()
}

// RecordDebate counts one finished debate. Status is "completed" or
// "soft_failure" depending on the judgment. Safe on a nil Collector.
func (c *Collector) RecordDebate(status string) {
	if c == nil {
		return
	}
	c.debatesTotal.WithLabelValues(status).Inc()
}
