package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/agent"
	"github.com/BaSui01/swarmflow/stigmergy"
	"github.com/BaSui01/swarmflow/swarm"
	"github.com/BaSui01/swarmflow/types"
)

func staticAgent(id, output string) *agent.FuncAgent {
	return agent.NewFuncAgent(id, func(_ context.Context, _ types.TaskContext) (any, error) {
		return output, nil
	}, nil)
}

func failingAgent(id string) *agent.FuncAgent {
	return agent.NewFuncAgent(id, func(_ context.Context, _ types.TaskContext) (any, error) {
		return nil, errors.New("boom")
	}, nil)
}

func testRegistry(t *testing.T, agents ...agent.Agent) *agent.Registry {
	t.Helper()
	registry := agent.NewRegistry(zap.NewNop())
	for _, a := range agents {
		require.NoError(t, registry.Register(a))
	}
	return registry
}

func TestNew_UnknownAgentNameFailsConstruction(t *testing.T) {
	t.Parallel()

	executed := false
	a := agent.NewFuncAgent("known", func(_ context.Context, _ types.TaskContext) (any, error) {
		executed = true
		return "x", nil
	}, nil)
	registry := testRegistry(t, a)

	_, err := New(Config{AgentNames: []string{"known", "missing"}}, registry, zap.NewNop())
	require.Error(t, err)
	require.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
	require.False(t, executed)
}

func TestNew_RejectsTooManyAgents(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t, staticAgent("a", "x"), staticAgent("b", "y"), staticAgent("c", "z"))
	_, err := New(Config{
		AgentNames: []string{"a", "b", "c"},
		MaxAgents:  2,
	}, registry, zap.NewNop())
	require.Error(t, err)
	require.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestNew_RejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t)
	_, err := New(Config{Strategy: Strategy("recursive")}, registry, zap.NewNop())
	require.Error(t, err)
	require.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestRun_SequentialContinuesPastFailure(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t, staticAgent("first", "one"), failingAgent("second"), staticAgent("third", "three"))
	o, err := New(Config{
		AgentNames: []string{"first", "second", "third"},
		Strategy:   StrategySequential,
	}, registry, zap.NewNop())
	require.NoError(t, err)

	result := o.Run(context.Background(), "the task", nil)
	require.Equal(t, "the task", result.Task)
	require.Len(t, result.Outputs, 3)

	require.Equal(t, "first", result.Outputs[0].Agent)
	require.Equal(t, "one", result.Outputs[0].Output)
	require.True(t, result.Outputs[1].Failed())
	require.Equal(t, types.ErrAgentExecution, types.GetErrorCode(result.Outputs[1].Err))
	require.Equal(t, "three", result.Outputs[2].Output)
	require.Equal(t, 1, result.Failures())
}

func TestRun_SequentialSharesState(t *testing.T) {
	t.Parallel()

	writer := agent.NewFuncAgent("writer", func(_ context.Context, tc types.TaskContext) (any, error) {
		tc["note"] = "left by writer"
		return "done", nil
	}, nil)
	reader := agent.NewFuncAgent("reader", func(_ context.Context, tc types.TaskContext) (any, error) {
		return tc["note"], nil
	}, nil)
	registry := testRegistry(t, writer, reader)

	o, err := New(Config{AgentNames: []string{"writer", "reader"}}, registry, zap.NewNop())
	require.NoError(t, err)

	result := o.Run(context.Background(), "task", nil)
	require.Equal(t, "left by writer", result.Outputs[1].Output)
	require.Equal(t, "left by writer", result.State["note"])
}

func TestRun_AllAgentsFailStillReturnsResult(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t, failingAgent("a"), failingAgent("b"))
	o, err := New(Config{AgentNames: []string{"a", "b"}}, registry, zap.NewNop())
	require.NoError(t, err)

	result := o.Run(context.Background(), "task", nil)
	require.NotNil(t, result)
	require.Equal(t, 2, result.Failures())
}

func slowAgent(id string, delay time.Duration) *agent.FuncAgent {
	return agent.NewFuncAgent(id, func(ctx context.Context, _ types.TaskContext) (any, error) {
		select {
		case <-time.After(delay):
			return id + " done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, nil)
}

func TestRun_ParallelFasterThanSequentialSum(t *testing.T) {
	t.Parallel()

	const delay = 100 * time.Millisecond
	registry := testRegistry(t,
		slowAgent("a", delay), slowAgent("b", delay), slowAgent("c", delay))

	o, err := New(Config{
		AgentNames: []string{"a", "b", "c"},
		Strategy:   StrategyParallel,
	}, registry, zap.NewNop())
	require.NoError(t, err)

	start := time.Now()
	result := o.Run(context.Background(), "task", nil)
	elapsed := time.Since(start)

	require.Less(t, elapsed, 250*time.Millisecond)
	// 完成顺序不定，聚合顺序必须跟 Agent 列表一致
	require.Equal(t, "a done", result.Outputs[0].Output)
	require.Equal(t, "b done", result.Outputs[1].Output)
	require.Equal(t, "c done", result.Outputs[2].Output)
}

func TestRun_ParallelCapturesErrorsWithoutCancellingSiblings(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t, failingAgent("bad"), slowAgent("slow", 50*time.Millisecond))
	o, err := New(Config{
		AgentNames: []string{"bad", "slow"},
		Strategy:   StrategyParallel,
	}, registry, zap.NewNop())
	require.NoError(t, err)

	result := o.Run(context.Background(), "task", nil)
	require.True(t, result.Outputs[0].Failed())
	require.Equal(t, "slow done", result.Outputs[1].Output)
}

func TestRun_CollaborativeUsesConsensus(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t,
		staticAgent("a", "shared answer here"),
		staticAgent("b", "shared answer here"),
		staticAgent("c", "totally different text"))

	o, err := New(Config{
		AgentNames: []string{"a", "b", "c"},
		Strategy:   StrategyCollaborative,
	}, registry, zap.NewNop())
	require.NoError(t, err)

	board := stigmergy.NewBoard(stigmergy.DefaultBoardConfig(), zap.NewNop())
	o.UseSwarm(swarm.NewConsensus(swarm.DefaultConfig(), board, nil, zap.NewNop()))

	result := o.Run(context.Background(), "task", nil)
	require.Len(t, result.Outputs, 1)
	require.Equal(t, ConsensusOutputName, result.Outputs[0].Agent)
	require.Equal(t, "shared answer here", result.Outputs[0].Output)
}

func TestRun_CollaborativeWithoutSwarmFallsBackToSequential(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t, staticAgent("a", "one"), staticAgent("b", "two"))
	o, err := New(Config{
		AgentNames: []string{"a", "b"},
		Strategy:   StrategyCollaborative,
	}, registry, zap.NewNop())
	require.NoError(t, err)

	result := o.Run(context.Background(), "task", nil)
	require.Len(t, result.Outputs, 2)
	require.Equal(t, "one", result.Outputs[0].Output)
	require.Equal(t, "two", result.Outputs[1].Output)
}

func TestRun_ReflectOnSuccess(t *testing.T) {
	t.Parallel()

	a := agent.NewFuncAgent("thinker",
		func(_ context.Context, _ types.TaskContext) (any, error) { return "answer", nil },
		func(_ context.Context, _ types.TaskContext) (string, error) { return "could be shorter", nil })
	registry := testRegistry(t, a)

	o, err := New(Config{
		AgentNames:       []string{"thinker"},
		ReflectOnSuccess: true,
	}, registry, zap.NewNop())
	require.NoError(t, err)

	result := o.Run(context.Background(), "task", nil)
	require.Equal(t, "could be shorter", result.Outputs[0].Reflection)
}
