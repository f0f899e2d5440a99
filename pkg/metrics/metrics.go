// Package metrics exposes engine counters on a private prometheus registry
// Package metrics 在独立的 prometheus 注册表上暴露引擎计数器
package metrics

import (
	"github.com/haierkeys/folio-lifecycle-service/pkg/code"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "folio"

// Metrics engine counters, a nil *Metrics records nothing
// Metrics 引擎计数器，nil 的 *Metrics 不记录任何数据
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	conflicts  *prometheus.CounterVec
	slugProbes prometheus.Counter
}

// New 创建计数器并注册到新的注册表
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Engine operations by entity, operation and result kind.",
		}, []string{"entity", "operation", "result"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revision_conflicts_total",
			Help:      "Optimistic concurrency collisions by entity.",
		}, []string{"entity"}),
		slugProbes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slug_probes_total",
			Help:      "Slug candidates checked against the store.",
		}),
	}
	m.registry.MustRegister(
		m.operations,
		m.conflicts,
		m.slugProbes,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry 返回注册表，供外层 HTTP 处理器暴露
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveOperation counts one finished operation, labelled by the error kind
// ObserveOperation 统计一次完成的操作，按错误分类打标签
func (m *Metrics) ObserveOperation(entity, operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = code.KindOf(err).String()
	}
	m.operations.WithLabelValues(entity, operation, result).Inc()
}

// ObserveConflict 统计一次修订号冲突
func (m *Metrics) ObserveConflict(entity string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(entity).Inc()
}

// ObserveSlugProbe 统计一次别名探测
func (m *Metrics) ObserveSlugProbe() {
	if m == nil {
		return
	}
	m.slugProbes.Inc()
}

// Operations returns the counter for tests and dashboards
// Operations 返回操作计数器
func (m *Metrics) Operations() *prometheus.CounterVec {
	return m.operations
}

// Conflicts 返回冲突计数器
func (m *Metrics) Conflicts() *prometheus.CounterVec {
	return m.conflicts
}
