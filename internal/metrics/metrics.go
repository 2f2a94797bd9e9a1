package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	witnessTotal    *prometheus.CounterVec
	analysisTotal   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "accord_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "accord_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	witnessTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "accord_witness_requests_total",
		Help: "Witness requests by outcome",
	}, []string{"outcome"})

	analysisTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "accord_clause_analysis_total",
		Help: "Clause analyses by source",
	}, []string{"source"})

	registry.MustRegister(
		requestDuration, requestTotal, witnessTotal, analysisTotal,
		collectors.NewGoCollector(),
	)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		witnessTotal:    witnessTotal,
		analysisTotal:   analysisTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records duration and count per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

func (m *Metrics) ObserveWitness(outcome string) {
	if m == nil {
		return
	}
	m.witnessTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAnalysis(source string) {
	if m == nil {
		return
	}
	m.analysisTotal.WithLabelValues(source).Inc()
}
