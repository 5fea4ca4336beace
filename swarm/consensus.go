package swarm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/agent"
	"github.com/BaSui01/swarmflow/embedding"
	"github.com/BaSui01/swarmflow/evaluation"
	"github.com/BaSui01/swarmflow/stigmergy"
	"github.com/BaSui01/swarmflow/types"
)

// Config 配置共识协议。
// 打分权重是沿用的经验常数，保留为可配置默认值。
type Config struct {
	// Location 共识痕迹沉积的固定位置。
	Location string `yaml:"location" json:"location"`
	// TraceType 沉积痕迹的类型。
	TraceType string `yaml:"trace_type" json:"trace_type"`
	// ConsensusWeight 文本重叠分的权重（存在评估器时）。
	ConsensusWeight float64 `yaml:"consensus_weight" json:"consensus_weight"`
	// EvaluationWeight 评估分的权重（存在评估器时）。
	EvaluationWeight float64 `yaml:"evaluation_weight" json:"evaluation_weight"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Location:         "swarm_consensus",
		TraceType:        "proposal",
		ConsensusWeight:  0.6,
		EvaluationWeight: 0.4,
	}
}

// Proposal 是一次打分后的提案。
type Proposal struct {
	AgentID   string  `json:"agent_id"`
	Output    string  `json:"output"`
	Consensus float64 `json:"consensus"`
	Overall   float64 `json:"overall"`
	Final     float64 `json:"final"`
}

// Consensus 在一组 Agent 的提案间选择胜者。
// evaluator 为 nil 时进入降级模式：只按文本重叠度打分。
type Consensus struct {
	board     *stigmergy.Board
	evaluator evaluation.Evaluator
	config    Config
	logger    *zap.Logger
}

// NewConsensus 创建共识协调器。board 必填，evaluator 可为 nil。
func NewConsensus(config Config, board *stigmergy.Board, evaluator evaluation.Evaluator, logger *zap.Logger) *Consensus {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if config.Location == "" {
		config.Location = def.Location
	}
	if config.TraceType == "" {
		config.TraceType = def.TraceType
	}
	if config.ConsensusWeight <= 0 && config.EvaluationWeight <= 0 {
		config.ConsensusWeight = def.ConsensusWeight
		config.EvaluationWeight = def.EvaluationWeight
	}
	return &Consensus{
		board:     board,
		evaluator: evaluator,
		config:    config,
		logger:    logger.With(zap.String("component", "swarm_consensus")),
	}
}

// ProposeAndSelect 向所有 Agent 征集提案并返回胜者输出。
// 单个 Agent 失败记日志后跳过；全部失败时返回占位输出做优雅降级，
// 从不因 Agent 故障报错。
func (c *Consensus) ProposeAndSelect(ctx context.Context, task string, agents []agent.Agent) (string, error) {
	tc := types.TaskContext{types.ContextKeyTask: task}

	proposals := make([]*Proposal, 0, len(agents))
	for _, a := range agents {
		output, err := a.Run(ctx, tc.Clone())
		if err != nil {
			c.logger.Warn("agent proposal failed",
				zap.String("agent", a.ID()),
				zap.Error(types.NewError(types.ErrAgentExecution, "proposal run").WithCause(err)),
			)
			continue
		}
		proposals = append(proposals, &Proposal{
			AgentID: a.ID(),
			Output:  stringify(output),
		})
	}

	if len(proposals) == 0 {
		c.logger.Warn("no surviving proposals, degrading to placeholder", zap.String("task", task))
		return fmt.Sprintf("processed: %s", task), nil
	}

	c.score(ctx, task, proposals)

	winner := proposals[0]
	for _, p := range proposals[1:] {
		// 平局保留最早的提案
		if p.Final > winner.Final {
			winner = p
		}
	}

	for _, p := range proposals {
		c.board.Deposit(p.AgentID, c.config.Location, c.config.TraceType, p.Final, 0, map[string]any{
			"output": p.Output,
		})
	}

	c.logger.Info("consensus selected",
		zap.String("winner", winner.AgentID),
		zap.Float64("score", winner.Final),
		zap.Int("proposals", len(proposals)),
	)
	return winner.Output, nil
}

// score 计算每个提案的共识分与最终分。
func (c *Consensus) score(ctx context.Context, task string, proposals []*Proposal) {
	tokens := make([][]string, len(proposals))
	for i, p := range proposals {
		tokens[i] = embedding.Tokenize(p.Output)
	}

	for i, p := range proposals {
		if len(proposals) > 1 {
			var total float64
			for j := range proposals {
				if j == i {
					continue
				}
				total += jaccard(tokens[i], tokens[j])
			}
			p.Consensus = total / float64(len(proposals)-1)
		}

		p.Final = p.Consensus
		if c.evaluator == nil {
			continue
		}

		scores, err := c.evaluator.Evaluate(ctx, p.Output, types.TaskContext{types.ContextKeyTask: task})
		if err != nil {
			// 评估不可用：该提案退回纯重叠分
			c.logger.Warn("evaluation unavailable for proposal",
				zap.String("agent", p.AgentID),
				zap.Error(err),
			)
			continue
		}
		p.Overall = scores.Overall
		p.Final = c.config.ConsensusWeight*p.Consensus + c.config.EvaluationWeight*p.Overall
	}
}

func stringify(output any) string {
	if s, ok := output.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", output)
}

// jaccard 计算两个 token 列表的 Jaccard 相似度。
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
