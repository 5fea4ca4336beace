package evaluation

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/embedding"
	"github.com/BaSui01/swarmflow/types"
)

// HeuristicConfig 配置启发式评估器。
type HeuristicConfig struct {
	// TargetTokens 完整性达到满分所需的输出 token 数。
	TargetTokens int `yaml:"target_tokens" json:"target_tokens"`
	// VerbosityPenalty 效率分按每多少 token 递减一半。
	VerbosityPenalty int `yaml:"verbosity_penalty" json:"verbosity_penalty"`
}

// DefaultHeuristicConfig 返回默认配置。
func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		TargetTokens:     40,
		VerbosityPenalty: 200,
	}
}

// HeuristicEvaluator 是无模型依赖的评估器：
// relevance 取输出与任务文本的 token 重叠度，
// completeness 取输出长度相对目标长度的饱和比，
// efficiency 随冗长程度衰减。
type HeuristicEvaluator struct {
	config HeuristicConfig
	logger *zap.Logger
}

// NewHeuristicEvaluator 创建启发式评估器。
func NewHeuristicEvaluator(config HeuristicConfig, logger *zap.Logger) *HeuristicEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TargetTokens <= 0 {
		config.TargetTokens = DefaultHeuristicConfig().TargetTokens
	}
	if config.VerbosityPenalty <= 0 {
		config.VerbosityPenalty = DefaultHeuristicConfig().VerbosityPenalty
	}
	return &HeuristicEvaluator{
		config: config,
		logger: logger.With(zap.String("component", "heuristic_evaluator")),
	}
}

// Evaluate 对输出打分。空输出得到零分集而不是错误。
func (e *HeuristicEvaluator) Evaluate(_ context.Context, output string, tc types.TaskContext) (types.ScoreSet, error) {
	outTokens := embedding.Tokenize(output)
	if len(outTokens) == 0 {
		return types.NewScoreSet(0, 0, 0), nil
	}

	relevance := jaccard(outTokens, embedding.Tokenize(tc.Task()))

	completeness := float64(len(outTokens)) / float64(e.config.TargetTokens)
	if completeness > 1 {
		completeness = 1
	}

	// 超出目标长度的部分按惩罚窗口折减效率
	excess := len(outTokens) - e.config.TargetTokens
	efficiency := 1.0
	if excess > 0 {
		efficiency = float64(e.config.VerbosityPenalty) / float64(e.config.VerbosityPenalty+excess)
	}

	return types.NewScoreSet(relevance, completeness, efficiency), nil
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
