package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/swarmflow/agent"
	"github.com/BaSui01/swarmflow/internal/metrics"
	"github.com/BaSui01/swarmflow/swarm"
	"github.com/BaSui01/swarmflow/types"
)

// Strategy 编排策略
type Strategy string

const (
	StrategySequential    Strategy = "sequential"    // 按列表顺序依次执行
	StrategyParallel      Strategy = "parallel"      // 有界并发扇出
	StrategyCollaborative Strategy = "collaborative" // 群体共识协议
)

// DefaultMaxAgents 单个编排器允许的最大 Agent 数
const DefaultMaxAgents = 10

// ConsensusOutputName 协作模式下共识结果条目的名字
const ConsensusOutputName = "consensus"

// Config 编排器配置
type Config struct {
	// AgentNames 有序的 Agent 名列表，构造时逐个在注册表解析
	AgentNames []string
	// MaxAgents 列表长度上限，<=0 时取 DefaultMaxAgents
	MaxAgents int
	// Strategy 编排策略，空则顺序执行
	Strategy Strategy
	// MaxConcurrency 并行模式的并发上限，<=0 时等于 Agent 数
	MaxConcurrency int
	// ReflectOnSuccess 成功执行后追加一次自省调用
	ReflectOnSuccess bool
}

// AgentOutput 单个 Agent 的执行结果，Output 与 Err 互斥
type AgentOutput struct {
	Agent      string `json:"agent"`
	Output     any    `json:"output,omitempty"`
	Err        error  `json:"-"`
	Reflection string `json:"reflection,omitempty"`
}

// Failed 报告该条目是否以错误收场
func (o AgentOutput) Failed() bool { return o.Err != nil }

// Result 一次编排运行的聚合结果。无论多少 Agent 失败都会返回，
// 调用方按条目检查每个 Agent 的状态。
type Result struct {
	Task    string            `json:"task"`
	Outputs []AgentOutput     `json:"outputs"`
	State   types.TaskContext `json:"state"`
}

// Failures 返回失败条目数
func (r *Result) Failures() int {
	n := 0
	for _, o := range r.Outputs {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Orchestrator 多智能体编排器。构造时即解析全部 Agent，
// 配置错误在任何任务执行之前暴露。
type Orchestrator struct {
	config    Config
	agents    []agent.Agent
	swarm     *swarm.Consensus
	collector *metrics.Collector
	logger    *zap.Logger
}

// New 创建编排器。Agent 数超过上限或名字无法解析都返回配置错误。
func New(config Config, registry *agent.Registry, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxAgents <= 0 {
		config.MaxAgents = DefaultMaxAgents
	}
	if config.Strategy == "" {
		config.Strategy = StrategySequential
	}
	switch config.Strategy {
	case StrategySequential, StrategyParallel, StrategyCollaborative:
	default:
		return nil, types.NewError(types.ErrConfiguration, fmt.Sprintf("unknown strategy: %s", config.Strategy))
	}
	if len(config.AgentNames) > config.MaxAgents {
		return nil, types.NewError(types.ErrConfiguration,
			fmt.Sprintf("agent count %d exceeds limit %d", len(config.AgentNames), config.MaxAgents))
	}

	agents := make([]agent.Agent, 0, len(config.AgentNames))
	for _, name := range config.AgentNames {
		a, err := registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	return &Orchestrator{
		config: config,
		agents: agents,
		logger: logger.With(zap.String("component", "orchestrator")),
	}, nil
}

// UseSwarm 挂接群体共识设施，协作模式在多 Agent 时使用它
func (o *Orchestrator) UseSwarm(s *swarm.Consensus) { o.swarm = s }

// UseMetrics 挂接指标收集器
func (o *Orchestrator) UseMetrics(c *metrics.Collector) { o.collector = c }

// Agents 返回已解析的 Agent 列表（按配置顺序）
func (o *Orchestrator) Agents() []agent.Agent {
	out := make([]agent.Agent, len(o.agents))
	copy(out, o.agents)
	return out
}

// Run 按配置策略执行任务并返回聚合结果。
// 单个 Agent 失败只产生错误条目，从不中断兄弟 Agent 或整个任务。
func (o *Orchestrator) Run(ctx context.Context, task string, state types.TaskContext) *Result {
	start := time.Now()
	if state == nil {
		state = types.TaskContext{}
	}
	state[types.ContextKeyTask] = task

	var outputs []AgentOutput
	switch o.config.Strategy {
	case StrategyParallel:
		outputs = o.runParallel(ctx, state)
	case StrategyCollaborative:
		outputs = o.runCollaborative(ctx, task, state)
	default:
		outputs = o.runSequential(ctx, state)
	}

	result := &Result{Task: task, Outputs: outputs, State: state}

	status := "ok"
	if result.Failures() > 0 {
		status = "partial"
		if result.Failures() == len(outputs) {
			status = "failed"
		}
	}
	if o.collector != nil {
		o.collector.RecordTask(string(o.config.Strategy), status, time.Since(start))
	}
	o.logger.Info("task finished",
		zap.String("strategy", string(o.config.Strategy)),
		zap.String("status", status),
		zap.Int("agents", len(o.agents)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

// runSequential 在同一个执行上下文上依次调用每个 Agent
func (o *Orchestrator) runSequential(ctx context.Context, tc types.TaskContext) []AgentOutput {
	outputs := make([]AgentOutput, 0, len(o.agents))
	for _, a := range o.agents {
		outputs = append(outputs, o.invoke(ctx, a, tc))
	}
	return outputs
}

// runParallel 有界并发扇出，结果按 Agent 列表顺序聚合。
// 每个 Agent 拿到上下文的独立副本，失败互不影响。
func (o *Orchestrator) runParallel(ctx context.Context, tc types.TaskContext) []AgentOutput {
	limit := o.config.MaxConcurrency
	if limit <= 0 {
		limit = len(o.agents)
	}

	outputs := make([]AgentOutput, len(o.agents))
	g := &errgroup.Group{}
	g.SetLimit(limit)
	for i, a := range o.agents {
		i, a := i, a
		g.Go(func() error {
			outputs[i] = o.invoke(ctx, a, tc.Clone())
			return nil
		})
	}
	// invoke 从不返回 error，Wait 只做汇合
	_ = g.Wait()
	return outputs
}

// runCollaborative 在多 Agent 且挂接了共识设施时走共识协议，
// 否则退化为顺序执行。
func (o *Orchestrator) runCollaborative(ctx context.Context, task string, tc types.TaskContext) []AgentOutput {
	if o.swarm == nil || len(o.agents) < 2 {
		return o.runSequential(ctx, tc)
	}
	winner, err := o.swarm.ProposeAndSelect(ctx, task, o.agents)
	if err != nil {
		return []AgentOutput{{Agent: ConsensusOutputName, Err: types.NewError(types.ErrAgentExecution, "consensus round").WithCause(err)}}
	}
	if o.collector != nil {
		o.collector.RecordConsensusSelection(ConsensusOutputName)
	}
	return []AgentOutput{{Agent: ConsensusOutputName, Output: winner}}
}

// invoke 执行单个 Agent，按需追加自省，错误就地捕获为条目
func (o *Orchestrator) invoke(ctx context.Context, a agent.Agent, tc types.TaskContext) AgentOutput {
	out := AgentOutput{Agent: a.ID()}
	result, err := a.Run(ctx, tc)
	if err != nil {
		out.Err = types.NewError(types.ErrAgentExecution, "agent run: "+a.ID()).WithCause(err)
		o.logger.Warn("agent failed", zap.String("agent", a.ID()), zap.Error(err))
		if o.collector != nil {
			o.collector.RecordAgentRun(a.ID(), "error")
		}
		return out
	}
	out.Output = result
	if o.collector != nil {
		o.collector.RecordAgentRun(a.ID(), "ok")
	}

	if o.config.ReflectOnSuccess {
		note, rerr := a.Reflect(ctx, tc)
		if rerr != nil {
			// 自省失败不影响主输出
			o.logger.Warn("agent reflection failed", zap.String("agent", a.ID()), zap.Error(rerr))
		} else {
			out.Reflection = note
		}
	}
	return out
}
