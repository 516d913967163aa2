// Package metrics exposes Prometheus metrics for the recommender service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"recipe-recommender/internal/core/recommender"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so several instances (tests, CLI) never clash
// on the global one.
type Collector struct {
	registry *prometheus.Registry

	// graph
	graphNodes        prometheus.Gauge
	graphEdges        prometheus.Gauge
	graphIngredients  prometheus.Gauge
	ratedRecipes      prometheus.Gauge
	buildDuration     prometheus.Gauge
	candidatePairs    prometheus.Gauge
	snapshotSwaps     prometheus.Counter
	reloadFailures    prometheus.Counter
	snapshotTimestamp prometheus.Gauge

	// queries
	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec

	// http
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// cache
	cacheLookups *prometheus.CounterVec
}

// New 建立 Collector 並註冊所有指標
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Recipes in the active similarity graph",
		}),
		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the active similarity graph",
		}),
		graphIngredients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_distinct_ingredients",
			Help:      "Distinct ingredients indexed by the active graph",
		}),
		ratedRecipes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rated_recipes",
			Help:      "Graph recipes with at least one rating",
		}),
		buildDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_build_seconds",
			Help:      "Duration of the last successful snapshot build",
		}),
		candidatePairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_candidate_pairs",
			Help:      "Recipe pairs enumerated while building the last graph",
		}),
		snapshotSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_swaps_total",
			Help:      "Snapshots activated, including the initial build",
		}),
		reloadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_failures_total",
			Help:      "Corpus reloads that failed and kept the previous snapshot",
		}),
		snapshotTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_activated_timestamp_seconds",
			Help:      "Unix time the active snapshot was activated",
		}),

		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Recommender queries by operation and outcome",
		}, []string{"op", "outcome"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Recommender query latency",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"op"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),

		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.graphNodes, c.graphEdges, c.graphIngredients, c.ratedRecipes,
		c.buildDuration, c.candidatePairs, c.snapshotSwaps, c.reloadFailures,
		c.snapshotTimestamp,
		c.queriesTotal, c.queryDuration,
		c.httpRequests, c.httpDuration,
		c.cacheLookups,
	)
	return c
}

var _ recommender.Observer = (*Collector)(nil)

// SnapshotSwapped 更新圖的指標
func (c *Collector) SnapshotSwapped(stats recommender.SnapshotStats) {
	c.graphNodes.Set(float64(stats.Graph.Nodes))
	c.graphEdges.Set(float64(stats.Graph.Edges))
	c.graphIngredients.Set(float64(stats.Graph.Ingredients))
	c.candidatePairs.Set(float64(stats.Graph.CandidatePairs))
	c.ratedRecipes.Set(float64(stats.RatedRecipes))
	c.buildDuration.Set(stats.Duration.Seconds())
	c.snapshotSwaps.Inc()
	c.snapshotTimestamp.SetToCurrentTime()
}

// ReloadFailed 記錄重新載入失敗
func (c *Collector) ReloadFailed(error) {
	c.reloadFailures.Inc()
}

// QueryServed 記錄查詢
func (c *Collector) QueryServed(op, outcome string, d time.Duration) {
	c.queriesTotal.WithLabelValues(op, outcome).Inc()
	c.queryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveHTTP 記錄 HTTP 請求；route 為路由樣板，避免高基數
func (c *Collector) ObserveHTTP(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// CacheLookup 記錄緩存命中或未命中
func (c *Collector) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Registry 底層 registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 提供 /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
