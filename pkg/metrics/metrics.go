// Package metrics 提供保存管道的 prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SaveRequestsTotal 提交到保存队列的请求总数
	SaveRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docpersist",
		Subsystem: "storage",
		Name:      "save_requests_total",
		Help:      "Total save requests submitted to the queue.",
	})

	// FlushesTotal 实际落库的内容刷新次数
	FlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docpersist",
		Subsystem: "storage",
		Name:      "flushes_total",
		Help:      "Total content flushes written to the store.",
	})

	// PolicySkipsTotal 被保存策略跳过的请求数
	PolicySkipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docpersist",
		Subsystem: "storage",
		Name:      "policy_skips_total",
		Help:      "Save requests skipped by the save policy.",
	})

	// FlushFailuresTotal 刷新失败次数（请求被丢弃）
	FlushFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docpersist",
		Subsystem: "storage",
		Name:      "flush_failures_total",
		Help:      "Content flushes dropped because of store failures.",
	})

	// OperationsAppendedTotal 操作日志追加条数
	OperationsAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docpersist",
		Subsystem: "storage",
		Name:      "operations_appended_total",
		Help:      "Operation log rows appended.",
	})

	// QueueDepth 当前保存队列深度
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "docpersist",
		Subsystem: "storage",
		Name:      "queue_depth",
		Help:      "Current depth of the save request queue.",
	})

	// FlushDuration 单次刷新耗时
	FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docpersist",
		Subsystem: "storage",
		Name:      "flush_duration_seconds",
		Help:      "Duration of a single content flush.",
		Buckets:   prometheus.DefBuckets,
	})
)
