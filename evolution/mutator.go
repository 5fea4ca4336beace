package evolution

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/agent"
	"github.com/BaSui01/swarmflow/types"
)

// 变异节奏与触发阈值的默认值
const (
	DefaultInterval = 5
	DefaultMinScore = 0.5

	// EventConfigMutation 是配置变异时写入记忆的事件类型
	EventConfigMutation = "config_mutation"
)

// 识别键的硬边界，变异结果不会越界
const (
	LearningRateMin = 1e-5
	LearningRateMax = 0.1
	MemorySizeMin   = 32
	MemorySizeMax   = 2048
	MaxRetriesMin   = 0
	MaxRetriesMax   = 10
)

// PerformanceSource 提供按智能体名聚合的平均分，通常由自适应记忆实现
type PerformanceSource interface {
	AgentPerformance() map[string]float64
}

// EventSink 接收变异事件
type EventSink interface {
	LogEvent(ctx context.Context, eventType string, payload map[string]any, tags ...string) (string, error)
}

// MutationRecord 单次配置变异的记录
type MutationRecord struct {
	AgentName     string            `json:"agent_name"`
	PreviousScore float64           `json:"previous_score"`
	NewConfig     types.AgentConfig `json:"new_config"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Config 变异器配置
type Config struct {
	// Interval 每第 N 次 Evolve 调用才真正执行变异
	Interval int
	// MinScore 平均分低于该值的智能体才会被变异
	MinScore float64
	// Rand 随机源，nil 时使用全局源
	Rand *rand.Rand
	// Now 取当前时间，便于测试注入
	Now func() time.Time
}

// DefaultConfig 返回默认变异器配置
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		MinScore: DefaultMinScore,
	}
}

// Mutator 对低分智能体的超参做有界随机扰动
type Mutator struct {
	mu      sync.Mutex
	config  Config
	counter int
	history []MutationRecord
	sink    EventSink
	logger  *zap.Logger
}

// New 创建配置变异器
func New(config Config, logger *zap.Logger) *Mutator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.MinScore <= 0 {
		config.MinScore = DefaultMinScore
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Mutator{
		config: config,
		logger: logger.With(zap.String("component", "evolution")),
	}
}

// SetEventSink 设置变异事件的接收方，nil 表示不记录
func (m *Mutator) SetEventSink(sink EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// Mutate 返回带有界扰动的新配置，不修改入参：
// 学习率乘以 U(0.8,1.2)，记忆容量加 U_int(-32,64)，重试数加 {-1,0,+1}，
// 三者各自截断到硬边界内。未识别的键原样保留。
func (m *Mutator) Mutate(cfg types.AgentConfig) types.AgentConfig {
	out := cfg.FillDefaults()

	lr := out[types.ConfigKeyLearningRate] * (0.8 + m.randFloat()*0.4)
	out[types.ConfigKeyLearningRate] = types.ClampFloat(lr, LearningRateMin, LearningRateMax)

	mem := int(out[types.ConfigKeyMemorySize]) + m.randIntn(97) - 32
	out[types.ConfigKeyMemorySize] = float64(types.ClampInt(mem, MemorySizeMin, MemorySizeMax))

	retries := int(out[types.ConfigKeyMaxRetries]) + m.randIntn(3) - 1
	out[types.ConfigKeyMaxRetries] = float64(types.ClampInt(retries, MaxRetriesMin, MaxRetriesMax))

	return out
}

// Evolve 推进内部计数器，每第 Interval 次调用对低分智能体执行变异，
// 返回本次是否发生了任何变异。没有历史分数的智能体不做处理。
func (m *Mutator) Evolve(ctx context.Context, agents []agent.Agent, source PerformanceSource) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	if m.counter%m.config.Interval != 0 {
		return false
	}
	if source == nil {
		return false
	}

	perf := source.AgentPerformance()
	mutated := false
	for _, a := range agents {
		score, measured := perf[a.ID()]
		if !measured || score >= m.config.MinScore {
			continue
		}
		configurable, ok := a.(agent.Configurable)
		if !ok {
			continue
		}

		newConfig := m.Mutate(configurable.Config())
		configurable.SetConfig(newConfig)

		record := MutationRecord{
			AgentName:     a.ID(),
			PreviousScore: score,
			NewConfig:     newConfig.Clone(),
			Timestamp:     m.config.Now(),
		}
		m.history = append(m.history, record)
		mutated = true

		m.logger.Info("agent config mutated",
			zap.String("agent", a.ID()),
			zap.Float64("previous_score", score))

		if m.sink != nil {
			if _, err := m.sink.LogEvent(ctx, EventConfigMutation, map[string]any{
				"agent_name":     a.ID(),
				"previous_score": score,
				"new_config":     map[string]float64(newConfig),
			}); err != nil {
				m.logger.Warn("failed to record mutation event", zap.Error(err))
			}
		}
	}
	return mutated
}

// History 返回变异记录的副本，按发生顺序排列
func (m *Mutator) History() []MutationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MutationRecord, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Mutator) randFloat() float64 {
	if m.config.Rand != nil {
		return m.config.Rand.Float64()
	}
	return rand.Float64()
}

func (m *Mutator) randIntn(n int) int {
	if m.config.Rand != nil {
		return m.config.Rand.Intn(n)
	}
	return rand.Intn(n)
}
