// Package metrics holds the Prometheus collectors shared by the services.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several services (or tests) can live
// in one process. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	generationsTotal  *prometheus.CounterVec
	samplesTotal      *prometheus.CounterVec
	llmDuration       prometheus.Histogram
	moderationTotal   *prometheus.CounterVec
	transitionsTotal  *prometheus.CounterVec
	scheduleConflicts prometheus.Counter
}

func New(serviceName string) *Collector {
	ns := strings.ReplaceAll(serviceName, "-", "_")
	c := &Collector{registry: prometheus.NewRegistry()}

	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	c.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	c.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "generations_total",
			Help:      "Generation requests by outcome",
		},
		[]string{"outcome"},
	)
	c.samplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "generation_samples_total",
			Help:      "Candidate samples by source",
		},
		[]string{"source"}, // "model", "fallback"
	)
	c.llmDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "llm_duration_seconds",
			Help:      "Duration of text generation calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
	c.moderationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "moderation_decisions_total",
			Help:      "Moderation decisions by stage",
		},
		[]string{"stage", "decision"},
	)
	c.transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "post_transitions_total",
			Help:      "Post lifecycle transitions by result",
		},
		[]string{"transition", "result"},
	)
	c.scheduleConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "schedule_conflicts_total",
			Help:      "Schedule requests rejected for overlapping windows",
		},
	)

	c.registry.MustRegister(
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.generationsTotal,
		c.samplesTotal,
		c.llmDuration,
		c.moderationTotal,
		c.transitionsTotal,
		c.scheduleConflicts,
	)
	return c
}

func (c *Collector) ObserveGeneration(outcome string) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveSample(fallback bool, took time.Duration) {
	if c == nil {
		return
	}
	source := "model"
	if fallback {
		source = "fallback"
	}
	c.samplesTotal.WithLabelValues(source).Inc()
	c.llmDuration.Observe(took.Seconds())
}

func (c *Collector) ObserveModeration(stage, decision string) {
	if c == nil {
		return
	}
	c.moderationTotal.WithLabelValues(stage, decision).Inc()
}

func (c *Collector) ObserveTransition(transition string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.transitionsTotal.WithLabelValues(transition, result).Inc()
}

func (c *Collector) ObserveScheduleConflict() {
	if c == nil {
		return
	}
	c.scheduleConflicts.Inc()
}

// Middleware records request counts and latencies per route.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		method := ctx.Request.Method
		c.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the collector's registry.
func (c *Collector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		handler.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
