// Package metrics exposes the pipeline's runtime health as Prometheus
// collectors — the global slowdown factor, per-adapter poll tuning, and
// fusion/monitor latency — registered against client_golang the way the
// example pack's own Prometheus integration expects metrics to be shaped
// (see jhkimqd-chaos-utils's monitoring/prometheus client, which consumes
// exactly this kind of exported gauge/histogram).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SlowdownFactor = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quakewatch",
		Name:      "slowdown_factor",
		Help:      "Current global backoff multiplier applied to adapter poll periods.",
	})

	AdapterPeriodSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quakewatch",
		Name:      "adapter_period_seconds",
		Help:      "Current effective poll period for a named adapter.",
	}, []string{"adapter"})

	AdapterItemLimit = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quakewatch",
		Name:      "adapter_item_limit",
		Help:      "Current per-cycle item limit for a named adapter.",
	}, []string{"adapter"})

	FusionIngestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quakewatch",
		Name:      "fusion_ingest_seconds",
		Help:      "Time spent fusing a single report into the live event set.",
		Buckets:   prometheus.DefBuckets,
	})

	MonitorDispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quakewatch",
		Name:      "monitor_dispatch_seconds",
		Help:      "Time the monitor spends processing one notice, through subscriber dispatch.",
		Buckets:   prometheus.DefBuckets,
	})

	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quakewatch",
		Name:      "queue_depth",
		Help:      "Current depth of an internal pipeline channel.",
	}, []string{"queue"})

	FeaturesLearned = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quakewatch",
		Name:      "feature_learned_weight",
		Help:      "Current learned weight adjustment applied to a scoring feature.",
	}, []string{"feature"})
)
