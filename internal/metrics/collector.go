package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector 协调回路指标收集器
type Collector struct {
	// 编排指标
	tasksTotal    *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	agentRunTotal *prometheus.CounterVec

	// 共识指标
	consensusSelections *prometheus.CounterVec

	// 控制回路指标
	curriculumTransitions *prometheus.CounterVec
	configMutations       prometheus.Counter

	// 记忆指标
	memoryEntries prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器。registerer 为 nil 时使用默认注册表，
// 测试可注入独立的 prometheus.NewRegistry() 避免重复注册冲突。
func NewCollector(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.tasksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total number of orchestrated tasks",
		},
		[]string{"strategy", "status"},
	)

	c.taskDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task wall-clock duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	c.agentRunTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_executions_total",
			Help:      "Total number of individual agent executions",
		},
		[]string{"agent", "status"},
	)

	c.consensusSelections = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consensus_selections_total",
			Help:      "Total number of winning proposals per agent",
		},
		[]string{"agent"},
	)

	c.curriculumTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "curriculum_transitions_total",
			Help:      "Total number of difficulty level transitions",
		},
		[]string{"from_level", "to_level"},
	)

	c.configMutations = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_mutations_total",
			Help:      "Total number of agent config mutations",
		},
	)

	c.memoryEntries = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_entries",
			Help:      "Current number of adaptive memory entries",
		},
	)

	return c
}

// RecordTask 记录一次编排任务
func (c *Collector) RecordTask(strategy, status string, duration time.Duration) {
	c.tasksTotal.WithLabelValues(strategy, status).Inc()
	c.taskDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordAgentRun 记录一次智能体执行
func (c *Collector) RecordAgentRun(agentID, status string) {
	c.agentRunTotal.WithLabelValues(agentID, status).Inc()
}

// RecordConsensusSelection 记录一次共识胜出
func (c *Collector) RecordConsensusSelection(agentID string) {
	c.consensusSelections.WithLabelValues(agentID).Inc()
}

// RecordCurriculumTransition 记录一次难度级别变更
func (c *Collector) RecordCurriculumTransition(fromLevel, toLevel string) {
	c.curriculumTransitions.WithLabelValues(fromLevel, toLevel).Inc()
}

// RecordConfigMutation 记录一次配置变异
func (c *Collector) RecordConfigMutation() {
	c.configMutations.Inc()
}

// SetMemoryEntries 更新记忆条目数
func (c *Collector) SetMemoryEntries(n int) {
	c.memoryEntries.Set(float64(n))
}
