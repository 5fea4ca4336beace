package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/swarmflow/curriculum"
	"github.com/BaSui01/swarmflow/evolution"
	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/orchestrator"
	"github.com/BaSui01/swarmflow/stigmergy"
	"github.com/BaSui01/swarmflow/swarm"
)

// Config 是 SwarmFlow 的完整配置结构
type Config struct {
	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Orchestrator 编排器配置
	Orchestrator OrchestratorConfig `yaml:"orchestrator" env:"ORCHESTRATOR"`

	// Memory 自适应记忆配置
	Memory MemoryConfig `yaml:"memory" env:"MEMORY"`

	// Redis 记忆快照的 Redis 存储配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Stigmergy 痕迹板配置
	Stigmergy StigmergyConfig `yaml:"stigmergy" env:"STIGMERGY"`

	// Swarm 群体共识配置
	Swarm SwarmConfig `yaml:"swarm" env:"SWARM"`

	// Curriculum 课程控制配置
	Curriculum CurriculumConfig `yaml:"curriculum" env:"CURRICULUM"`

	// Evolution 配置变异配置
	Evolution EvolutionConfig `yaml:"evolution" env:"EVOLUTION"`

	// Embedding 嵌入提供方配置
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// OrchestratorConfig 编排器配置
type OrchestratorConfig struct {
	// 有序 Agent 名列表
	AgentNames []string `yaml:"agent_names" env:"AGENT_NAMES"`
	// Agent 数上限
	MaxAgents int `yaml:"max_agents" env:"MAX_AGENTS"`
	// 策略: sequential, parallel, collaborative
	Strategy string `yaml:"strategy" env:"STRATEGY"`
	// 并行模式并发上限
	MaxConcurrency int `yaml:"max_concurrency" env:"MAX_CONCURRENCY"`
	// 成功后追加自省
	ReflectOnSuccess bool `yaml:"reflect_on_success" env:"REFLECT_ON_SUCCESS"`
}

// MemoryConfig 记忆配置
type MemoryConfig struct {
	// 存储类型: none, file, redis
	Store string `yaml:"store" env:"STORE"`
	// 文件存储路径
	Path string `yaml:"path" env:"PATH"`
	// 条目上限
	Limit int `yaml:"limit" env:"LIMIT"`
	// 相关度半衰期
	HalfLife time.Duration `yaml:"half_life" env:"HALF_LIFE"`
	// 压缩阈值
	CompressThreshold float64 `yaml:"compress_threshold" env:"COMPRESS_THRESHOLD"`
	// 检索默认条数
	DefaultTopK int `yaml:"default_top_k" env:"DEFAULT_TOP_K"`
	// 检索默认最低分
	DefaultMinScore float64 `yaml:"default_min_score" env:"DEFAULT_MIN_SCORE"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 快照键名
	Key string `yaml:"key" env:"KEY"`
}

// StigmergyConfig 痕迹板配置
type StigmergyConfig struct {
	// 默认每秒衰减率
	DefaultDecayRate float64 `yaml:"default_decay_rate" env:"DEFAULT_DECAY_RATE"`
	// 最低存活强度
	MinStrength float64 `yaml:"min_strength" env:"MIN_STRENGTH"`
}

// SwarmConfig 群体共识配置
type SwarmConfig struct {
	// 共识痕迹位置
	Location string `yaml:"location" env:"LOCATION"`
	// 痕迹类型
	TraceType string `yaml:"trace_type" env:"TRACE_TYPE"`
	// 文本重叠分权重
	ConsensusWeight float64 `yaml:"consensus_weight" env:"CONSENSUS_WEIGHT"`
	// 评估分权重
	EvaluationWeight float64 `yaml:"evaluation_weight" env:"EVALUATION_WEIGHT"`
}

// CurriculumConfig 课程控制配置
type CurriculumConfig struct {
	// 有序难度级别
	Levels []string `yaml:"levels" env:"LEVELS"`
	// 初始级别
	StartLevel string `yaml:"start_level" env:"START_LEVEL"`
	// 探索概率
	Epsilon float64 `yaml:"epsilon" env:"EPSILON"`
	// 升级阈值
	PromoteThreshold float64 `yaml:"promote_threshold" env:"PROMOTE_THRESHOLD"`
	// 降级阈值
	DemoteThreshold float64 `yaml:"demote_threshold" env:"DEMOTE_THRESHOLD"`
}

// EvolutionConfig 配置变异配置
type EvolutionConfig struct {
	// 每第 N 次调用执行变异
	Interval int `yaml:"interval" env:"INTERVAL"`
	// 触发变异的分数下限
	MinScore float64 `yaml:"min_score" env:"MIN_SCORE"`
}

// EmbeddingConfig 嵌入提供方配置
type EmbeddingConfig struct {
	// 模型名，空串或 hash 使用内置散列提供方
	Model string `yaml:"model" env:"MODEL"`
	// 向量维度
	Dimensions int `yaml:"dimensions" env:"DIMENSIONS"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// DefaultConfig 返回完整默认配置
func DefaultConfig() *Config {
	memDef := memory.DefaultConfig()
	boardDef := stigmergy.DefaultBoardConfig()
	swarmDef := swarm.DefaultConfig()
	curDef := curriculum.DefaultConfig()
	evoDef := evolution.DefaultConfig()

	return &Config{
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stdout"},
		},
		Orchestrator: OrchestratorConfig{
			MaxAgents: orchestrator.DefaultMaxAgents,
			Strategy:  string(orchestrator.StrategySequential),
		},
		Memory: MemoryConfig{
			Store:             "file",
			Path:              "swarmflow_memory.json",
			Limit:             memDef.Limit,
			HalfLife:          memDef.HalfLife,
			CompressThreshold: memDef.CompressThreshold,
			DefaultTopK:       memDef.DefaultTopK,
			DefaultMinScore:   memDef.DefaultMinScore,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			Key:  "swarmflow:memory",
		},
		Stigmergy: StigmergyConfig{
			DefaultDecayRate: boardDef.DefaultDecayRate,
			MinStrength:      boardDef.MinStrength,
		},
		Swarm: SwarmConfig{
			Location:         swarmDef.Location,
			TraceType:        swarmDef.TraceType,
			ConsensusWeight:  swarmDef.ConsensusWeight,
			EvaluationWeight: swarmDef.EvaluationWeight,
		},
		Curriculum: CurriculumConfig{
			Levels:           curDef.Levels,
			Epsilon:          curDef.Epsilon,
			PromoteThreshold: curDef.PromoteThreshold,
			DemoteThreshold:  curDef.DemoteThreshold,
		},
		Evolution: EvolutionConfig{
			Interval: evoDef.Interval,
			MinScore: evoDef.MinScore,
		},
		Embedding: EmbeddingConfig{
			Model:      "hash",
			Dimensions: 128,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "swarmflow",
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	switch c.Orchestrator.Strategy {
	case string(orchestrator.StrategySequential),
		string(orchestrator.StrategyParallel),
		string(orchestrator.StrategyCollaborative):
	default:
		errs = append(errs, fmt.Sprintf("unknown orchestrator strategy: %s", c.Orchestrator.Strategy))
	}
	if c.Orchestrator.MaxAgents <= 0 {
		errs = append(errs, "orchestrator max_agents must be positive")
	}
	switch c.Memory.Store {
	case "none", "file", "redis":
	default:
		errs = append(errs, fmt.Sprintf("unknown memory store: %s", c.Memory.Store))
	}
	if c.Memory.Store == "file" && c.Memory.Path == "" {
		errs = append(errs, "memory path required for file store")
	}
	if c.Curriculum.Epsilon < 0 || c.Curriculum.Epsilon > 1 {
		errs = append(errs, "curriculum epsilon must be in [0, 1]")
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, "embedding dimensions must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// MemoryComponent 返回记忆组件配置
func (c *Config) MemoryComponent() memory.Config {
	return memory.Config{
		Limit:             c.Memory.Limit,
		HalfLife:          c.Memory.HalfLife,
		CompressThreshold: c.Memory.CompressThreshold,
		DefaultTopK:       c.Memory.DefaultTopK,
		DefaultMinScore:   c.Memory.DefaultMinScore,
	}
}

// RedisStoreComponent 返回 Redis 快照存储配置
func (c *Config) RedisStoreComponent() memory.RedisStoreConfig {
	return memory.RedisStoreConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Key:      c.Redis.Key,
	}
}

// BoardComponent 返回痕迹板配置
func (c *Config) BoardComponent() stigmergy.BoardConfig {
	return stigmergy.BoardConfig{
		DefaultDecayRate: c.Stigmergy.DefaultDecayRate,
		MinStrength:      c.Stigmergy.MinStrength,
	}
}

// SwarmComponent 返回群体共识配置
func (c *Config) SwarmComponent() swarm.Config {
	return swarm.Config{
		Location:         c.Swarm.Location,
		TraceType:        c.Swarm.TraceType,
		ConsensusWeight:  c.Swarm.ConsensusWeight,
		EvaluationWeight: c.Swarm.EvaluationWeight,
	}
}

// CurriculumComponent 返回课程控制配置
func (c *Config) CurriculumComponent() curriculum.Config {
	return curriculum.Config{
		Levels:           c.Curriculum.Levels,
		StartLevel:       c.Curriculum.StartLevel,
		Epsilon:          c.Curriculum.Epsilon,
		PromoteThreshold: c.Curriculum.PromoteThreshold,
		DemoteThreshold:  c.Curriculum.DemoteThreshold,
	}
}

// EvolutionComponent 返回配置变异配置
func (c *Config) EvolutionComponent() evolution.Config {
	return evolution.Config{
		Interval: c.Evolution.Interval,
		MinScore: c.Evolution.MinScore,
	}
}

// OrchestratorComponent 返回编排器配置
func (c *Config) OrchestratorComponent() orchestrator.Config {
	return orchestrator.Config{
		AgentNames:       c.Orchestrator.AgentNames,
		MaxAgents:        c.Orchestrator.MaxAgents,
		Strategy:         orchestrator.Strategy(c.Orchestrator.Strategy),
		MaxConcurrency:   c.Orchestrator.MaxConcurrency,
		ReflectOnSuccess: c.Orchestrator.ReflectOnSuccess,
	}
}
