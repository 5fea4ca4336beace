package types

// AgentConfig 是 Agent 的超参配置。
// 核心只识别下面三个键，其余键原样保留（对核心不透明）。
type AgentConfig map[string]float64

// 识别的配置键
const (
	ConfigKeyLearningRate = "learning_rate"
	ConfigKeyMemorySize   = "memory_size"
	ConfigKeyMaxRetries   = "max_retries"
)

// 识别键的默认值
const (
	DefaultLearningRate = 0.001
	DefaultMemorySize   = 256
	DefaultMaxRetries   = 3
)

// DefaultAgentConfig 返回包含全部识别键默认值的配置。
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		ConfigKeyLearningRate: DefaultLearningRate,
		ConfigKeyMemorySize:   DefaultMemorySize,
		ConfigKeyMaxRetries:   DefaultMaxRetries,
	}
}

// Clone 返回配置的深拷贝；nil 配置返回空配置。
func (c AgentConfig) Clone() AgentConfig {
	out := make(AgentConfig, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// FillDefaults 为缺失的识别键补默认值，返回补全后的新配置。
func (c AgentConfig) FillDefaults() AgentConfig {
	out := c.Clone()
	for k, v := range DefaultAgentConfig() {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}
