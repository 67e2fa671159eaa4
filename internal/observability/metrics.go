package observability

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

const namespace = "naw"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	webhooks *prometheus.CounterVec

	pipelineRuns     *prometheus.CounterVec
	pipelineLatency  *prometheus.HistogramVec
	pipelineInflight *prometheus.GaugeVec

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	fallbackBlocks    *prometheus.CounterVec
	droppedBlocks     *prometheus.CounterVec
	weeklySkippedPage prometheus.Counter

	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when Init was never called
// with metrics enabled. Every method is nil-safe.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(prometheus.NewRegistry())
	})
	return instance
}

// NewMetrics registers every collector on reg. Tests pass a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method/route/status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_inflight_requests",
			Help: "In-flight HTTP requests.",
		}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "webhooks_total",
			Help: "Inbound webhook triggers by automation/result.",
		}, []string{"automation", "result"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "pipeline_runs_total",
			Help: "Background pipeline runs by automation/outcome.",
		}, []string{"automation", "outcome"}),
		pipelineLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pipeline_duration_seconds",
			Help:    "Background pipeline duration in seconds by automation/outcome.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"automation", "outcome"}),
		pipelineInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pipeline_inflight",
			Help: "Background pipelines currently running by automation.",
		}, []string{"automation"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "upstream_requests_total",
			Help: "Calls to upstream APIs by service/operation/status.",
		}, []string{"service", "operation", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "upstream_request_duration_seconds",
			Help:    "Upstream API latency in seconds by service/operation.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"service", "operation"}),
		fallbackBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "generation_fallback_total",
			Help: "Generator outputs that failed to decode and were replaced by the fallback heading.",
		}, []string{"automation"}),
		droppedBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "generation_dropped_blocks_total",
			Help: "Generated blocks of unknown kind dropped before writing.",
		}, []string{"automation"}),
		weeklySkippedPage: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "weekly_skipped_pages_total",
			Help: "Diary pages skipped by the weekly report because their fetch failed.",
		}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "redis_up",
			Help: "1 when the last redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "redis_ping_seconds",
			Help: "Latency of the last redis ping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpLatency, m.httpInflight,
		m.webhooks,
		m.pipelineRuns, m.pipelineLatency, m.pipelineInflight,
		m.upstreamRequests, m.upstreamLatency,
		m.fallbackBlocks, m.droppedBlocks, m.weeklySkippedPage,
		m.redisUp, m.redisPing,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) HTTPInflightInc() {
	if m != nil {
		m.httpInflight.Inc()
	}
}

func (m *Metrics) HTTPInflightDec() {
	if m != nil {
		m.httpInflight.Dec()
	}
}

func (m *Metrics) IncWebhook(automation, result string) {
	if m != nil {
		m.webhooks.WithLabelValues(automation, result).Inc()
	}
}

func (m *Metrics) PipelineStarted(automation string) {
	if m != nil {
		m.pipelineInflight.WithLabelValues(automation).Inc()
	}
}

func (m *Metrics) PipelineFinished(automation, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.pipelineInflight.WithLabelValues(automation).Dec()
	m.pipelineRuns.WithLabelValues(automation, outcome).Inc()
	m.pipelineLatency.WithLabelValues(automation, outcome).Observe(dur.Seconds())
}

// ObserveUpstream records one call to Notion or Gemini. status 0 means the
// request never produced a response.
func (m *Metrics) ObserveUpstream(service, operation string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.upstreamRequests.WithLabelValues(service, operation, code).Inc()
	m.upstreamLatency.WithLabelValues(service, operation).Observe(dur.Seconds())
}

func (m *Metrics) IncFallback(automation string) {
	if m != nil {
		m.fallbackBlocks.WithLabelValues(automation).Inc()
	}
}

func (m *Metrics) AddDroppedBlocks(automation string, n int) {
	if m != nil && n > 0 {
		m.droppedBlocks.WithLabelValues(automation).Add(float64(n))
	}
}

func (m *Metrics) IncWeeklySkippedPage() {
	if m != nil {
		m.weeklySkippedPage.Inc()
	}
}

// RegisterDB exposes database/sql pool stats for the run ledger.
func (m *Metrics) RegisterDB(db *gorm.DB, name string) error {
	if m == nil || db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return m.registry.Register(collectors.NewDBStatsCollector(sqlDB, name))
}

// StartRedisCollector pings rdb every interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
