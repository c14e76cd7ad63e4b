// Package stats provides request and capability statistics for VidCraft,
// exported as Prometheus metrics.
package stats

import (
	"net/http"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidcraft-ai/vidcraft/internal/planlib"
)

// Collector collects and tracks statistics. It is safe for concurrent use.
type Collector struct {
	startTime     time.Time
	requestCount  atomic.Int64
	errorCount    atomic.Int64
	fallbackCount atomic.Int64
	totalDuration atomic.Int64 // nanoseconds

	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	selections      *prometheus.CounterVec
	invocations     *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	modelCalls      *prometheus.CounterVec
	modelTokens     *prometheus.CounterVec
}

// NewCollector creates a collector with its own metric registry.
func NewCollector() *Collector {
	c := &Collector{
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidcraft",
			Name:      "requests_total",
			Help:      "Processed requests by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vidcraft",
			Name:      "request_duration_seconds",
			Help:      "End-to-end request latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidcraft",
			Name:      "plan_selections_total",
			Help:      "Plan selections by strategy and whether the selector degraded.",
		}, []string{"strategy", "degraded"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidcraft",
			Name:      "capability_invocations_total",
			Help:      "Capability invocations by outcome.",
		}, []string{"capability", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidcraft",
			Name:      "capability_duration_seconds",
			Help:      "Capability invocation latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"capability"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidcraft",
			Name:      "model_calls_total",
			Help:      "Model calls by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		modelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidcraft",
			Name:      "model_tokens_total",
			Help:      "Tokens reported by the model endpoint.",
		}, []string{"purpose"}),
	}
	c.registry.MustRegister(
		c.requests, c.requestDuration, c.selections, c.invocations, c.stepDuration,
		c.modelCalls, c.modelTokens,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Stats represents statistics at a point in time.
type Stats struct {
	MemoryStats MemoryStats `json:"memory"`
	Goroutines  int         `json:"goroutines"`
	Uptime      string      `json:"uptime"`

	RequestCount  int64   `json:"request_count"`
	ErrorCount    int64   `json:"error_count"`
	FallbackCount int64   `json:"fallback_count"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`

	JournalSize   int64   `json:"journal_size_bytes"`
	JournalSizeMB float64 `json:"journal_size_mb"`
	JournalPath   string  `json:"journal_path,omitempty"`
}

// MemoryStats represents memory usage statistics.
type MemoryStats struct {
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
	HeapInuseMB  float64 `json:"heap_inuse_mb"`
	StackInuseMB float64 `json:"stack_inuse_mb"`
	NumGC        uint32  `json:"num_gc"`
}

// Collect returns current statistics. journalPath may be empty.
func (c *Collector) Collect(journalPath string) *Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	requests := c.requestCount.Load()
	avgLatency := float64(0)
	if requests > 0 {
		avgLatency = float64(c.totalDuration.Load()) / float64(requests) / 1e6
	}

	var size int64
	if journalPath != "" {
		if fi, err := os.Stat(journalPath); err == nil {
			size = fi.Size()
		}
	}

	return &Stats{
		MemoryStats: MemoryStats{
			HeapAllocMB:  bytesToMB(int64(m.HeapAlloc)),
			HeapInuseMB:  bytesToMB(int64(m.HeapInuse)),
			StackInuseMB: bytesToMB(int64(m.StackInuse)),
			NumGC:        m.NumGC,
		},
		Goroutines:    runtime.NumGoroutine(),
		Uptime:        time.Since(c.startTime).Round(time.Second).String(),
		RequestCount:  requests,
		ErrorCount:    c.errorCount.Load(),
		FallbackCount: c.fallbackCount.Load(),
		AvgLatencyMs:  avgLatency,
		JournalSize:   size,
		JournalSizeMB: bytesToMB(size),
		JournalPath:   journalPath,
	}
}

// RecordRequest records a completed request.
func (c *Collector) RecordRequest(duration time.Duration, failed bool) {
	c.requestCount.Add(1)
	c.totalDuration.Add(duration.Nanoseconds())
	c.requestDuration.Observe(duration.Seconds())
	outcome := "success"
	if failed {
		c.errorCount.Add(1)
		outcome = "error"
	}
	c.requests.WithLabelValues(outcome).Inc()
}

// ObserveSelection records which strategy produced a plan.
func (c *Collector) ObserveSelection(strategy planlib.Strategy, degraded bool) {
	if degraded {
		c.fallbackCount.Add(1)
	}
	deg := "false"
	if degraded {
		deg = "true"
	}
	c.selections.WithLabelValues(string(strategy), deg).Inc()
}

// ObserveStep records one capability invocation.
func (c *Collector) ObserveStep(capability string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.invocations.WithLabelValues(capability, outcome).Inc()
	c.stepDuration.WithLabelValues(capability).Observe(duration.Seconds())
}

// ObserveTokens records one model call.
func (c *Collector) ObserveTokens(purpose string, tokens int, failed bool) {
	outcome := "success"
	if failed {
		outcome = "error"
	}
	c.modelCalls.WithLabelValues(purpose, outcome).Inc()
	c.modelTokens.WithLabelValues(purpose).Add(float64(tokens))
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func bytesToMB(b int64) float64 {
	return float64(b) / 1024 / 1024
}
