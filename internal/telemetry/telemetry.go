// Package telemetry provides Prometheus metrics and OpenTelemetry spans for
// the engagement service.
package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "engagement"

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Predictions        *prometheus.CounterVec
	PredictionDuration *prometheus.HistogramVec
	PredictionScore    prometheus.Histogram
	ValidationFailures *prometheus.CounterVec

	Advice         *prometheus.CounterVec
	AdviceDuration prometheus.Histogram
	AdviceCache    *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ModelInfo *prometheus.GaugeVec
}

// Provider bundles the metrics registry and the tracer. A nil *Provider is
// valid and records nothing.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	registry *prometheus.Registry
}

// NewProvider creates metrics on a private registry, so several providers can
// coexist in one process.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		registry: reg,
	}
}

// Registry returns the registry the metrics are registered on.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry for GET /metrics.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func initMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		Predictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_predictions_total",
			Help: "Predictions by model kind and outcome (ok, invalid, error)",
		}, []string{"kind", "outcome"}),
		PredictionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engagement_prediction_duration_seconds",
			Help:    "Time to score one feature vector",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind"}),
		PredictionScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "engagement_prediction_score",
			Help:    "Distribution of predicted engagement rates",
			Buckets: []float64{0, 0.01, 0.025, 0.05, 0.075, 0.1, 0.15, 0.2, 0.3},
		}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_validation_failures_total",
			Help: "Rejected inputs by field",
		}, []string{"field"}),
		Advice: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_advice_total",
			Help: "Advice requests by status",
		}, []string{"status"}),
		AdviceDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "engagement_advice_duration_seconds",
			Help:    "Time to obtain advice, including cache lookups",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),
		AdviceCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_advice_cache_total",
			Help: "Advice cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engagement_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ModelInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "engagement_model_info",
			Help: "Loaded model, always 1",
		}, []string{"kind", "version", "schema_version"}),
	}
}

// RecordPrediction records one scored vector.
func (p *Provider) RecordPrediction(kind string, score float64, err error, duration time.Duration) {
	if p == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		p.Metrics.PredictionScore.Observe(score)
	}
	p.Metrics.Predictions.WithLabelValues(kind, outcome).Inc()
	p.Metrics.PredictionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordValidationFailure records a rejected input field.
func (p *Provider) RecordValidationFailure(kind string, fields []string) {
	if p == nil {
		return
	}
	p.Metrics.Predictions.WithLabelValues(kind, "invalid").Inc()
	for _, f := range fields {
		p.Metrics.ValidationFailures.WithLabelValues(f).Inc()
	}
}

// RecordAdvice records the outcome of an advice request.
func (p *Provider) RecordAdvice(status string, duration time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.Advice.WithLabelValues(status).Inc()
	p.Metrics.AdviceDuration.Observe(duration.Seconds())
}

// RecordAdviceCache records a cache lookup result: hit, miss or error.
func (p *Provider) RecordAdviceCache(result string) {
	if p == nil {
		return
	}
	p.Metrics.AdviceCache.WithLabelValues(result).Inc()
}

// SetModelInfo publishes the loaded model.
func (p *Provider) SetModelInfo(kind, version, schemaVersion string) {
	if p == nil {
		return
	}
	p.Metrics.ModelInfo.WithLabelValues(kind, version, schemaVersion).Set(1)
}

// GinMiddleware records request counts and latency by route template.
func (p *Provider) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if p == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		p.Metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		p.Metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// StartSpan starts a span. The caller must end it. A nil provider uses the
// global tracer.
//
//nolint:spancheck // caller ends the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(serviceName)
	if p != nil && p.Tracer != nil {
		tracer = p.Tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
