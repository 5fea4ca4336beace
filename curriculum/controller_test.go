package curriculum

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

type recordingSink struct {
	events []sinkEvent
}

type sinkEvent struct {
	eventType string
	payload   map[string]any
}

func (s *recordingSink) LogEvent(_ context.Context, eventType string, payload map[string]any, _ ...string) (string, error) {
	s.events = append(s.events, sinkEvent{eventType: eventType, payload: payload})
	return "event-id", nil
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func newTestController(t *testing.T, config Config) *Controller {
	t.Helper()
	ctrl, err := New(config, zap.NewNop())
	require.NoError(t, err)
	return ctrl
}

func TestNew_DefaultsToMiddleLevel(t *testing.T) {
	t.Parallel()

	ctrl := newTestController(t, DefaultConfig())
	require.Equal(t, "medium", ctrl.CurrentLevel())
	require.Equal(t, []string{"easy", "medium", "hard"}, ctrl.Levels())
}

func TestNew_RejectsUnknownStartLevel(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.StartLevel = "impossible"
	_, err := New(config, zap.NewNop())
	require.Error(t, err)
	require.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestProcess_PromotesOnHighSuccessRate(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Epsilon = 0
	ctrl := newTestController(t, config)

	next := ctrl.Process(context.Background(), "task", ProcessOptions{
		Success:   boolPtr(true),
		LevelHint: "medium",
	})
	require.Equal(t, "hard", next)
}

func TestProcess_DemotesOnLowSuccessRate(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Epsilon = 0
	ctrl := newTestController(t, config)

	// 单次失败即把 medium 成功率压到 0，低于降级阈值
	ctrl.Process(context.Background(), "task", ProcessOptions{Success: boolPtr(false), LevelHint: "medium"})
	require.Equal(t, "easy", ctrl.CurrentLevel())
}

func TestProcess_StaysWithoutSamples(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Epsilon = 0
	ctrl := newTestController(t, config)

	// 无统计样本时成功率取 0.5，既不升级也不降级
	next := ctrl.Process(context.Background(), "some medium sized task here", ProcessOptions{})
	require.Equal(t, "medium", next)
}

func TestProcess_DifficultyResolutionOrder(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Epsilon = 0
	ctrl := newTestController(t, config)

	// 字符串提示优先于数值提示
	ctrl.Process(context.Background(), "task", ProcessOptions{
		Success:   boolPtr(true),
		LevelHint: "easy",
		ScoreHint: floatPtr(0.9),
	})
	require.Equal(t, 1, ctrl.Stats()["easy"].Total)

	// 数值提示：0.5 落在中档
	ctrl.Process(context.Background(), "task", ProcessOptions{
		Success:   boolPtr(true),
		ScoreHint: floatPtr(0.5),
	})
	require.Equal(t, 1, ctrl.Stats()["medium"].Total)

	// 无提示时按词数判定：超过 20 个词视为难
	long := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty twentyone"
	ctrl.Process(context.Background(), long, ProcessOptions{Success: boolPtr(true)})
	require.Equal(t, 1, ctrl.Stats()["hard"].Total)

	// 未知级别名提示回退到词数判定
	ctrl.Process(context.Background(), "short task", ProcessOptions{
		Success:   boolPtr(true),
		LevelHint: "extreme",
	})
	require.Equal(t, 2, ctrl.Stats()["easy"].Total)
}

func TestProcess_LogsAdjustmentEvent(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Epsilon = 0
	ctrl := newTestController(t, config)
	sink := &recordingSink{}
	ctrl.SetEventSink(sink)

	ctrl.Process(context.Background(), "the task", ProcessOptions{Success: boolPtr(true), LevelHint: "medium"})

	require.Len(t, sink.events, 1)
	require.Equal(t, EventCurriculumAdjustment, sink.events[0].eventType)
	require.Equal(t, "medium", sink.events[0].payload["from_level"])
	require.Equal(t, "hard", sink.events[0].payload["to_level"])
	require.Equal(t, "medium", sink.events[0].payload["difficulty"])
	require.Equal(t, "the task", sink.events[0].payload["task"])

	// 级别不变时不产生事件
	ctrl.Process(context.Background(), "the task", ProcessOptions{Success: boolPtr(true), LevelHint: "hard"})
	require.Len(t, sink.events, 1)
}

func TestProcess_ExplorationJumpsRandomly(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Epsilon = 1
	config.Rand = rand.New(rand.NewSource(7))
	ctrl := newTestController(t, config)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[ctrl.Process(context.Background(), "task", ProcessOptions{})] = true
	}
	require.True(t, seen["easy"])
	require.True(t, seen["medium"])
	require.True(t, seen["hard"])
}

func TestProcess_ConvergesToHardestAndStays(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Epsilon = 0
	ctrl := newTestController(t, config)

	reached := false
	for i := 0; i < 10000; i++ {
		level := ctrl.Process(context.Background(), "task", ProcessOptions{
			Success:   boolPtr(true),
			LevelHint: ctrl.CurrentLevel(),
		})
		if level == "hard" {
			reached = true
		}
		if reached {
			require.Equal(t, "hard", level)
		}
	}
	require.True(t, reached)
}
