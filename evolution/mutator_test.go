package evolution

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/agent"
	"github.com/BaSui01/swarmflow/types"
)

type staticPerformance map[string]float64

func (s staticPerformance) AgentPerformance() map[string]float64 { return s }

type recordingSink struct {
	events []string
}

func (s *recordingSink) LogEvent(_ context.Context, eventType string, _ map[string]any, _ ...string) (string, error) {
	s.events = append(s.events, eventType)
	return "event-id", nil
}

func echoAgent(id string) *agent.FuncAgent {
	return agent.NewFuncAgent(id, func(_ context.Context, tc types.TaskContext) (any, error) {
		return tc.Task(), nil
	}, nil)
}

func newTestMutator(seed int64) *Mutator {
	config := DefaultConfig()
	config.Rand = rand.New(rand.NewSource(seed))
	config.Now = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	return New(config, zap.NewNop())
}

func TestMutate_FillsDefaultsAndKeepsUnknownKeys(t *testing.T) {
	t.Parallel()

	m := newTestMutator(1)
	out := m.Mutate(types.AgentConfig{"temperature": 0.7})

	require.Contains(t, out, types.ConfigKeyLearningRate)
	require.Contains(t, out, types.ConfigKeyMemorySize)
	require.Contains(t, out, types.ConfigKeyMaxRetries)
	require.Equal(t, 0.7, out["temperature"])
}

func TestMutate_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	m := newTestMutator(2)
	in := types.DefaultAgentConfig()
	m.Mutate(in)
	require.Equal(t, types.DefaultAgentConfig(), in)
}

func TestEvolve_OnlyEveryNthCall(t *testing.T) {
	t.Parallel()

	m := newTestMutator(3)
	agents := []agent.Agent{echoAgent("weak")}
	perf := staticPerformance{"weak": 0.1}

	for i := 0; i < DefaultInterval-1; i++ {
		require.False(t, m.Evolve(context.Background(), agents, perf))
	}
	require.True(t, m.Evolve(context.Background(), agents, perf))
	require.Len(t, m.History(), 1)
}

func TestEvolve_SkipsUnmeasuredAndStrongAgents(t *testing.T) {
	t.Parallel()

	m := newTestMutator(4)
	weak := echoAgent("weak")
	strong := echoAgent("strong")
	unmeasured := echoAgent("unmeasured")
	before := strong.Config()

	perf := staticPerformance{"weak": 0.2, "strong": 0.9}
	agents := []agent.Agent{weak, strong, unmeasured}

	var mutated bool
	for i := 0; i < DefaultInterval; i++ {
		mutated = m.Evolve(context.Background(), agents, perf)
	}
	require.True(t, mutated)

	history := m.History()
	require.Len(t, history, 1)
	require.Equal(t, "weak", history[0].AgentName)
	require.Equal(t, 0.2, history[0].PreviousScore)
	require.Equal(t, before, strong.Config())
	require.Equal(t, types.DefaultAgentConfig(), unmeasured.Config())
}

func TestEvolve_ReplacesAgentConfigAndLogsEvent(t *testing.T) {
	t.Parallel()

	m := newTestMutator(5)
	sink := &recordingSink{}
	m.SetEventSink(sink)

	weak := echoAgent("weak")
	perf := staticPerformance{"weak": 0.3}

	for i := 0; i < DefaultInterval; i++ {
		m.Evolve(context.Background(), []agent.Agent{weak}, perf)
	}

	history := m.History()
	require.Len(t, history, 1)
	require.Equal(t, history[0].NewConfig, weak.Config())
	require.Equal(t, []string{EventConfigMutation}, sink.events)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), history[0].Timestamp)
}

func TestEvolve_NilSourceIsNoop(t *testing.T) {
	t.Parallel()

	m := newTestMutator(6)
	for i := 0; i < DefaultInterval; i++ {
		require.False(t, m.Evolve(context.Background(), []agent.Agent{echoAgent("a")}, nil))
	}
	require.Empty(t, m.History())
}
