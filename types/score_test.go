package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewScoreSet_OverallIsRoundedMean(t *testing.T) {
	t.Parallel()

	s := NewScoreSet(0.9, 0.5, 0.7)
	require.InDelta(t, 0.7, s.Overall, 1e-9)

	s = NewScoreSet(1, 1, 0)
	require.InDelta(t, 0.667, s.Overall, 1e-9)
}

func TestNewScoreSet_ClampsComponents(t *testing.T) {
	t.Parallel()

	s := NewScoreSet(-0.5, 1.5, 0.5)
	require.Equal(t, 0.0, s.Relevance)
	require.Equal(t, 1.0, s.Completeness)
	require.Equal(t, 0.5, s.Efficiency)
}

func TestAgentConfig_FillDefaults(t *testing.T) {
	t.Parallel()

	cfg := AgentConfig{ConfigKeyLearningRate: 0.01, "custom": 7}
	filled := cfg.FillDefaults()

	require.Equal(t, 0.01, filled[ConfigKeyLearningRate])
	require.Equal(t, float64(DefaultMemorySize), filled[ConfigKeyMemorySize])
	require.Equal(t, float64(DefaultMaxRetries), filled[ConfigKeyMaxRetries])
	require.Equal(t, 7.0, filled["custom"])

	// 原配置不被修改
	_, ok := cfg[ConfigKeyMemorySize]
	require.False(t, ok)
}

func TestError_CodeAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := NewError(ErrAgentExecution, "agent boom")
	err := NewError(ErrConfiguration, "bad setup").WithCause(cause)

	require.Equal(t, ErrConfiguration, GetErrorCode(err))
	require.ErrorIs(t, err, err)
	require.Contains(t, err.Error(), "CONFIGURATION")
	require.Contains(t, err.Error(), "agent boom")
	require.False(t, IsRetryable(err))
	require.True(t, IsRetryable(NewError(ErrPersistenceFailure, "io").WithRetryable(true)))
}
