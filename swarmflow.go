// Package swarmflow provides a top-level convenience entry point that wires
// the full coordination core from a single config.
//
// Usage:
//
//	import "github.com/BaSui01/swarmflow"
//
//	registry := agent.NewRegistry(logger)
//	registry.Register(myAgent)
//	sys, err := swarmflow.NewSystem(config.DefaultConfig(), registry, logger)
//	summary, err := sys.RunRound(ctx, "rank the proposals")
//
// 各组件也可以单独构造，本包只是把默认装配固化下来。
package swarmflow

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/agent"
	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/curriculum"
	"github.com/BaSui01/swarmflow/embedding"
	"github.com/BaSui01/swarmflow/evaluation"
	"github.com/BaSui01/swarmflow/evolution"
	"github.com/BaSui01/swarmflow/internal/metrics"
	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/orchestrator"
	"github.com/BaSui01/swarmflow/stigmergy"
	"github.com/BaSui01/swarmflow/swarm"
)

// System 把编排器、共识、记忆和两条控制回路装配成一个协调核心。
type System struct {
	Registry     *agent.Registry
	Orchestrator *orchestrator.Orchestrator
	Memory       *memory.AdaptiveMemory
	Board        *stigmergy.Board
	Consensus    *swarm.Consensus
	Curriculum   *curriculum.Controller
	Mutator      *evolution.Mutator
	Evaluator    evaluation.Evaluator

	collector *metrics.Collector
	logger    *zap.Logger
}

// RoundSummary 一轮协调回路的结果摘要
type RoundSummary struct {
	Result     *orchestrator.Result
	Level      string
	Mutated    bool
	MemorySize int
}

// NewSystem 按配置装配协调核心。注册表由调用方提供并预先注册好 Agent。
func NewSystem(cfg *config.Config, registry *agent.Registry, logger *zap.Logger) (*System, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, ok := embedding.NewProvider(cfg.Embedding.Model)
	if !ok {
		logger.Warn("unknown embedding model, falling back to hash provider",
			zap.String("model", cfg.Embedding.Model))
		provider = embedding.NewHashProvider(cfg.Embedding.Dimensions)
	}

	var store memory.Store
	switch cfg.Memory.Store {
	case "file":
		store = memory.NewFileStore(cfg.Memory.Path, logger)
	case "redis":
		redisStore, err := memory.NewRedisStore(cfg.RedisStoreComponent(), logger)
		if err != nil {
			logger.Warn("redis store unavailable, running in-memory only", zap.Error(err))
		} else {
			store = redisStore
		}
	}
	mem := memory.New(cfg.MemoryComponent(), provider, store, logger)

	board := stigmergy.NewBoard(cfg.BoardComponent(), logger)
	evaluator := evaluation.NewHeuristicEvaluator(evaluation.DefaultHeuristicConfig(), logger)
	consensus := swarm.NewConsensus(cfg.SwarmComponent(), board, evaluator, logger)

	orch, err := orchestrator.New(cfg.OrchestratorComponent(), registry, logger)
	if err != nil {
		return nil, err
	}
	orch.UseSwarm(consensus)

	controller, err := curriculum.New(cfg.CurriculumComponent(), logger)
	if err != nil {
		return nil, err
	}
	controller.SetEventSink(mem)

	mutator := evolution.New(cfg.EvolutionComponent(), logger)
	mutator.SetEventSink(mem)

	sys := &System{
		Registry:     registry,
		Orchestrator: orch,
		Memory:       mem,
		Board:        board,
		Consensus:    consensus,
		Curriculum:   controller,
		Mutator:      mutator,
		Evaluator:    evaluator,
		logger:       logger.With(zap.String("component", "system")),
	}

	if cfg.Metrics.Enabled {
		sys.collector = metrics.NewCollector(cfg.Metrics.Namespace, prometheus.DefaultRegisterer, logger)
		orch.UseMetrics(sys.collector)
	}
	return sys, nil
}

// RunRound 执行一轮完整协调回路：
// 编排执行 → 产出连同评估写入记忆 → 课程调整 → 配置变异 → 记忆整理。
func (s *System) RunRound(ctx context.Context, task string) (*RoundSummary, error) {
	result := s.Orchestrator.Run(ctx, task, nil)

	for _, out := range result.Outputs {
		if out.Failed() {
			continue
		}
		output := fmt.Sprint(out.Output)
		opts := memory.AddOptions{
			Tags:       []string{"agent_output"},
			Metadata:   map[string]any{memory.MetadataKeyAgentName: out.Agent},
			Reflection: out.Reflection,
		}
		if score, err := s.Evaluator.Evaluate(ctx, output, result.State); err == nil {
			opts.Evaluation = &score
		}
		if _, err := s.Memory.Add(ctx, output, opts); err != nil {
			s.logger.Warn("failed to record agent output", zap.Error(err))
		}
	}

	success := result.Failures() == 0
	previous := s.Curriculum.CurrentLevel()
	level := s.Curriculum.Process(ctx, task, curriculum.ProcessOptions{Success: &success})
	if s.collector != nil && level != previous {
		s.collector.RecordCurriculumTransition(previous, level)
	}

	mutated := s.Mutator.Evolve(ctx, s.Orchestrator.Agents(), s.Memory)
	if mutated && s.collector != nil {
		s.collector.RecordConfigMutation()
	}

	size, err := s.Memory.Optimize(ctx, task)
	if err != nil {
		return nil, err
	}
	if s.collector != nil {
		s.collector.SetMemoryEntries(size)
	}

	return &RoundSummary{
		Result:     result,
		Level:      level,
		Mutated:    mutated,
		MemorySize: size,
	}, nil
}
