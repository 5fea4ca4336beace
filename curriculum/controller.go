package curriculum

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// 默认难度级别与 epsilon-greedy 参数
const (
	DefaultEpsilon          = 0.1
	DefaultPromoteThreshold = 0.8
	DefaultDemoteThreshold  = 0.3

	// EventCurriculumAdjustment 是级别变更时写入记忆的事件类型
	EventCurriculumAdjustment = "curriculum_adjustment"
)

// DefaultLevels 返回默认的难度级别序列（由易到难）
func DefaultLevels() []string {
	return []string{"easy", "medium", "hard"}
}

// EventSink 接收课程调整事件，通常由自适应记忆实现
type EventSink interface {
	LogEvent(ctx context.Context, eventType string, payload map[string]any, tags ...string) (string, error)
}

// Config 课程控制器配置
type Config struct {
	// Levels 有序难度级别，空则使用 DefaultLevels
	Levels []string
	// StartLevel 初始级别，空则取中间级别
	StartLevel string
	// Epsilon 探索概率，负数视为未设置
	Epsilon float64
	// PromoteThreshold 成功率高于该值时升级
	PromoteThreshold float64
	// DemoteThreshold 成功率低于该值时降级
	DemoteThreshold float64
	// Rand 随机源，nil 时使用全局源（测试可注入固定种子）
	Rand *rand.Rand
}

// DefaultConfig 返回默认课程配置
func DefaultConfig() Config {
	return Config{
		Levels:           DefaultLevels(),
		Epsilon:          DefaultEpsilon,
		PromoteThreshold: DefaultPromoteThreshold,
		DemoteThreshold:  DefaultDemoteThreshold,
	}
}

// LevelStats 单个级别的成败统计
type LevelStats struct {
	Success int `json:"success"`
	Total   int `json:"total"`
}

// ProcessOptions 单次任务处理的可选信号
type ProcessOptions struct {
	// Success 任务结果信号，nil 表示结果未知、不计入统计
	Success *bool
	// LevelHint 显式级别名提示，命中已知级别时优先生效
	LevelHint string
	// ScoreHint 数值难度提示，<0.3 易、<0.7 中、否则难
	ScoreHint *float64
}

// Controller 基于 epsilon-greedy 的课程难度控制器。
// 非并发安全写入由内部互斥锁兜底，级别序列构造后不可变。
type Controller struct {
	mu      sync.Mutex
	levels  []string
	index   map[string]int
	current string
	stats   map[string]*LevelStats
	epsilon float64
	promote float64
	demote  float64
	rng     *rand.Rand
	sink    EventSink
	logger  *zap.Logger
}

// New 创建课程控制器，StartLevel 不在级别序列内时返回配置错误
func New(config Config, logger *zap.Logger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	levels := config.Levels
	if len(levels) == 0 {
		levels = DefaultLevels()
	}
	index := make(map[string]int, len(levels))
	for i, lv := range levels {
		if _, dup := index[lv]; dup {
			return nil, types.NewError(types.ErrConfiguration, "duplicate curriculum level: "+lv)
		}
		index[lv] = i
	}

	start := config.StartLevel
	if start == "" {
		start = levels[len(levels)/2]
	}
	if _, ok := index[start]; !ok {
		return nil, types.NewError(types.ErrConfiguration, "unknown start level: "+start)
	}

	epsilon := config.Epsilon
	if epsilon < 0 {
		epsilon = DefaultEpsilon
	}
	promote := config.PromoteThreshold
	if promote <= 0 {
		promote = DefaultPromoteThreshold
	}
	demote := config.DemoteThreshold
	if demote <= 0 {
		demote = DefaultDemoteThreshold
	}

	stats := make(map[string]*LevelStats, len(levels))
	for _, lv := range levels {
		stats[lv] = &LevelStats{}
	}

	return &Controller{
		levels:  levels,
		index:   index,
		current: start,
		stats:   stats,
		epsilon: epsilon,
		promote: promote,
		demote:  demote,
		rng:     config.Rand,
		logger:  logger.With(zap.String("component", "curriculum")),
	}, nil
}

// SetEventSink 设置调整事件的接收方，nil 表示不记录
func (c *Controller) SetEventSink(sink EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// CurrentLevel 返回当前难度级别
func (c *Controller) CurrentLevel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Levels 返回级别序列的副本
func (c *Controller) Levels() []string {
	out := make([]string, len(c.levels))
	copy(out, c.levels)
	return out
}

// Stats 返回各级别成败统计的副本
func (c *Controller) Stats() map[string]LevelStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]LevelStats, len(c.stats))
	for lv, st := range c.stats {
		out[lv] = *st
	}
	return out
}

// Process 处理一次任务信号并返回调整后的级别：
// 先解析任务实际难度并计入统计，再对当前级别做 epsilon-greedy 调整，
// 级别变更时向 EventSink 记录 curriculum_adjustment 事件。
func (c *Controller) Process(ctx context.Context, task string, opts ProcessOptions) string {
	c.mu.Lock()

	difficulty := c.resolveDifficulty(task, opts)
	if opts.Success != nil {
		st := c.stats[difficulty]
		st.Total++
		if *opts.Success {
			st.Success++
		}
	}

	previous := c.current
	if c.randFloat() < c.epsilon {
		// 探索：均匀随机跳到任一级别
		c.current = c.levels[c.randIntn(len(c.levels))]
	} else {
		rate := c.successRateLocked(c.current)
		pos := c.index[c.current]
		switch {
		case rate > c.promote && pos < len(c.levels)-1:
			c.current = c.levels[pos+1]
		case rate < c.demote && pos > 0:
			c.current = c.levels[pos-1]
		}
	}
	next := c.current
	sink := c.sink
	c.mu.Unlock()

	if next != previous {
		c.logger.Info("curriculum level adjusted",
			zap.String("from_level", previous),
			zap.String("to_level", next),
			zap.String("difficulty", difficulty))
		if sink != nil {
			if _, err := sink.LogEvent(ctx, EventCurriculumAdjustment, map[string]any{
				"from_level": previous,
				"to_level":   next,
				"difficulty": difficulty,
				"task":       task,
			}); err != nil {
				c.logger.Warn("failed to record curriculum event", zap.Error(err))
			}
		}
	}
	return next
}

// resolveDifficulty 按字符串提示、数值提示、任务词数的顺序解析难度
func (c *Controller) resolveDifficulty(task string, opts ProcessOptions) string {
	if opts.LevelHint != "" {
		if _, ok := c.index[opts.LevelHint]; ok {
			return opts.LevelHint
		}
	}
	if opts.ScoreHint != nil {
		return c.levelForScore(*opts.ScoreHint)
	}
	tokens := len(strings.Fields(task))
	switch {
	case tokens < 8:
		return c.levels[0]
	case tokens < 20:
		return c.levels[len(c.levels)/2]
	default:
		return c.levels[len(c.levels)-1]
	}
}

func (c *Controller) levelForScore(score float64) string {
	switch {
	case score < 0.3:
		return c.levels[0]
	case score < 0.7:
		return c.levels[len(c.levels)/2]
	default:
		return c.levels[len(c.levels)-1]
	}
}

// successRateLocked 返回级别成功率，无样本时取 0.5
func (c *Controller) successRateLocked(level string) float64 {
	st := c.stats[level]
	if st == nil || st.Total == 0 {
		return 0.5
	}
	return float64(st.Success) / float64(st.Total)
}

func (c *Controller) randFloat() float64 {
	if c.rng != nil {
		return c.rng.Float64()
	}
	return rand.Float64()
}

func (c *Controller) randIntn(n int) int {
	if c.rng != nil {
		return c.rng.Intn(n)
	}
	return rand.Intn(n)
}
