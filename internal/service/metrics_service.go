package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	requestsSubmitted *prometheus.CounterVec
	reviews           *prometheus.CounterVec
	emails            *prometheus.CounterVec
	stockAdjustments  *prometheus.CounterVec
	extractions       *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
}

// MetricsSnapshot is a lightweight view of the counters for health output.
type MetricsSnapshot struct {
	RequestsTotal uint64  `json:"requestsTotal"`
	CacheHits     uint64  `json:"cacheHits"`
	CacheMisses   uint64  `json:"cacheMisses"`
	CacheHitRatio float64 `json:"cacheHitRatio"`
	Goroutines    int     `json:"goroutines"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	requestsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_requests_submitted_total",
		Help: "Uploaded request files by outcome",
	}, []string{"result"})

	reviews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_reviews_total",
		Help: "Admin review decisions",
	}, []string{"decision"})

	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_emails_total",
		Help: "Outbound emails by kind and outcome",
	}, []string{"kind", "result"})

	stockAdjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_stock_adjustments_total",
		Help: "Stock adjustment lines by mode and outcome",
	}, []string{"mode", "result"})

	extractions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_delivery_note_extractions_total",
		Help: "Delivery note text extractions by source and outcome",
	}, []string{"source", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		requestsSubmitted, reviews, emails, stockAdjustments, extractions, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		requestsSubmitted: requestsSubmitted,
		reviews:           reviews,
		emails:            emails,
		stockAdjustments:  stockAdjustments,
		extractions:       extractions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RequestSubmitted counts one processed upload.
func (m *MetricsService) RequestSubmitted(ok bool) {
	if m == nil {
		return
	}
	m.requestsSubmitted.WithLabelValues(outcome(ok)).Inc()
}

// ReviewDecided counts an approve/reject decision.
func (m *MetricsService) ReviewDecided(decision string) {
	if m == nil {
		return
	}
	m.reviews.WithLabelValues(decision).Inc()
}

// EmailSent counts an outbound email attempt.
func (m *MetricsService) EmailSent(kind string, ok bool) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(kind, outcome(ok)).Inc()
}

// StockAdjusted counts one adjustment line; matched=false means no item had that name.
func (m *MetricsService) StockAdjusted(mode string, matched bool) {
	if m == nil {
		return
	}
	result := "matched"
	if !matched {
		result = "unmatched"
	}
	m.stockAdjustments.WithLabelValues(mode, result).Inc()
}

// NoteExtracted counts one delivery note extraction.
func (m *MetricsService) NoteExtracted(source string, ok bool) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(source, outcome(ok)).Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return MetricsSnapshot{
		RequestsTotal: atomic.LoadUint64(&m.requestCount),
		CacheHits:     hits,
		CacheMisses:   misses,
		CacheHitRatio: ratio,
		Goroutines:    runtime.NumGoroutine(),
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
