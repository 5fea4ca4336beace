package evaluation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

func TestHeuristicEvaluator_EmptyOutput(t *testing.T) {
	t.Parallel()

	e := NewHeuristicEvaluator(DefaultHeuristicConfig(), zap.NewNop())
	s, err := e.Evaluate(context.Background(), "", types.TaskContext{types.ContextKeyTask: "anything"})
	require.NoError(t, err)
	require.Zero(t, s.Overall)
}

func TestHeuristicEvaluator_RelevanceTracksOverlap(t *testing.T) {
	t.Parallel()

	e := NewHeuristicEvaluator(DefaultHeuristicConfig(), zap.NewNop())
	ctx := context.Background()
	tc := types.TaskContext{types.ContextKeyTask: "summarize the quarterly revenue report"}

	onTopic, err := e.Evaluate(ctx, "the quarterly revenue report shows growth", tc)
	require.NoError(t, err)
	offTopic, err := e.Evaluate(ctx, "bananas are yellow fruit", tc)
	require.NoError(t, err)

	require.Greater(t, onTopic.Relevance, offTopic.Relevance)
}

func TestHeuristicEvaluator_BoundsAndOverall(t *testing.T) {
	t.Parallel()

	e := NewHeuristicEvaluator(HeuristicConfig{TargetTokens: 5, VerbosityPenalty: 10}, zap.NewNop())
	long := strings.Repeat("word ", 500)
	s, err := e.Evaluate(context.Background(), long, types.TaskContext{types.ContextKeyTask: "word"})
	require.NoError(t, err)

	for _, v := range []float64{s.Relevance, s.Completeness, s.Efficiency, s.Overall} {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}

	// Overall 是三分量均值（三位小数）
	mean := (s.Relevance + s.Completeness + s.Efficiency) / 3
	require.InDelta(t, mean, s.Overall, 0.0005)
}
