// Package metrics 定义推荐与行程编排的 Prometheus 指标。
//
// 指标注册在调用方传入的 Registerer 上，测试中可使用独立的 Registry。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/tripkit/pipeline"
)

const namespace = "tripkit"

// Metrics 汇总全部指标。nil *Metrics 的所有方法都是空操作。
type Metrics struct {
	TripBuilds        *prometheus.CounterVec
	TripBuildDuration prometheus.Histogram
	EmptyBlocks       *prometheus.CounterVec
	SoftDegradations  *prometheus.CounterVec
	ScoreCacheHits    prometheus.Counter
	ScoreCacheMisses  prometheus.Counter
	FitDuration       *prometheus.HistogramVec
	NodeDuration      *prometheus.HistogramVec
}

// New 在 reg 上注册全部指标；reg 为 nil 时使用一个新的私有 Registry。
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		TripBuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trip_builds_total",
			Help:      "Total number of itinerary builds by result",
		}, []string{"result"}),
		TripBuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trip_build_duration_seconds",
			Help:      "Duration of itinerary builds in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		EmptyBlocks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_blocks_total",
			Help:      "Enabled blocks that produced no items",
		}, []string{"block"}),
		SoftDegradations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_degradations_total",
			Help:      "Days that reused spots from previous days because the pool ran out",
		}, []string{"kind"}),
		ScoreCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_cache_hits_total",
			Help:      "Place score cache hits",
		}),
		ScoreCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_cache_misses_total",
			Help:      "Place score cache misses",
		}),
		FitDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommender_fit_duration_seconds",
			Help:      "Duration of recommender training by model",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
		NodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_node_duration_seconds",
			Help:      "Duration of pipeline nodes",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"pipeline", "node", "kind"}),
	}
}

// TripBuilt 记录一次行程构建。
func (m *Metrics) TripBuilt(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.TripBuilds.WithLabelValues(result).Inc()
	m.TripBuildDuration.Observe(elapsed.Seconds())
}

// EmptyBlock 记录一个已启用但为空的时间段。
func (m *Metrics) EmptyBlock(block string) {
	if m == nil {
		return
	}
	m.EmptyBlocks.WithLabelValues(block).Inc()
}

// SoftDegradation 记录一次跨天去重放宽。kind: visit / eat
func (m *Metrics) SoftDegradation(kind string) {
	if m == nil {
		return
	}
	m.SoftDegradations.WithLabelValues(kind).Inc()
}

// CacheLookup 记录分数缓存命中情况。
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ScoreCacheHits.Inc()
		return
	}
	m.ScoreCacheMisses.Inc()
}

// ModelFitted 记录模型训练耗时。model: content / collaborative / hybrid
func (m *Metrics) ModelFitted(model string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FitDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// ObserveNode 实现 pipeline.Observer。
func (m *Metrics) ObserveNode(name string, node pipeline.Node, _, _ int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.NodeDuration.WithLabelValues(name, node.Name(), string(node.Kind())).Observe(elapsed.Seconds())
}

var _ pipeline.Observer = (*Metrics)(nil)
