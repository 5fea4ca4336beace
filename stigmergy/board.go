package stigmergy

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Trace 是板上的一条痕迹。
type Trace struct {
	ID          string         `json:"id"`
	AgentID     string         `json:"agent_id"`
	Type        string         `json:"trace_type"`
	Location    string         `json:"location"`
	Value       float64        `json:"value"`
	DecayRate   float64        `json:"decay_rate"`
	DepositedAt time.Time      `json:"deposited_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// StrengthAt 返回痕迹在给定时刻的衰减强度。
func (t *Trace) StrengthAt(now time.Time) float64 {
	age := now.Sub(t.DepositedAt).Seconds()
	if age < 0 {
		age = 0
	}
	return t.Value * math.Exp(-t.DecayRate*age)
}

// BoardConfig 配置痕迹板。
type BoardConfig struct {
	// DefaultDecayRate 未显式给出衰减率时使用的每秒衰减率。
	DefaultDecayRate float64 `yaml:"default_decay_rate" json:"default_decay_rate"`
	// MinStrength 低于该强度的痕迹视为过期并被回收。
	MinStrength float64 `yaml:"min_strength" json:"min_strength"`

	// Now 用于测试注入时钟，默认 time.Now。
	Now func() time.Time `yaml:"-" json:"-"`
}

// DefaultBoardConfig 返回默认配置。
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		DefaultDecayRate: 0.1,
		MinStrength:      0.01,
	}
}

// Board 是按 (location, type) 索引的共享痕迹板。
// 不支持并发写入：调用方需串行化 Deposit，派生量读取是安全的。
type Board struct {
	mu     sync.RWMutex
	traces map[string][]*Trace // location -> 按沉积顺序排列的痕迹
	config BoardConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewBoard 创建痕迹板。
func NewBoard(config BoardConfig, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultDecayRate <= 0 {
		config.DefaultDecayRate = DefaultBoardConfig().DefaultDecayRate
	}
	if config.MinStrength <= 0 {
		config.MinStrength = DefaultBoardConfig().MinStrength
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Board{
		traces: make(map[string][]*Trace),
		config: config,
		now:    now,
		logger: logger.With(zap.String("component", "stigmergy_board")),
	}
}

// Deposit 在指定位置沉积一条痕迹并返回它。
// decayRate <= 0 时使用默认衰减率。沉积顺带回收该位置的过期痕迹。
func (b *Board) Deposit(agentID, location, traceType string, value, decayRate float64, metadata map[string]any) *Trace {
	if decayRate <= 0 {
		decayRate = b.config.DefaultDecayRate
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.evictExpiredLocked(location, now)

	trace := &Trace{
		ID:          uuid.New().String(),
		AgentID:     agentID,
		Type:        traceType,
		Location:    location,
		Value:       value,
		DecayRate:   decayRate,
		DepositedAt: now,
		Metadata:    metadata,
	}
	b.traces[location] = append(b.traces[location], trace)

	b.logger.Debug("trace deposited",
		zap.String("agent", agentID),
		zap.String("location", location),
		zap.String("type", traceType),
		zap.Float64("value", value),
	)
	return trace
}

// Read 返回位置上强度不低于 minStrength 的痕迹，按沉积顺序排列。
// traceType 为空匹配所有类型；excludeAgentID 非空时跳过该 Agent 的痕迹；
// minStrength <= 0 时使用配置的最小强度。读取顺带回收过期痕迹。
func (b *Board) Read(location, traceType, excludeAgentID string, minStrength float64) []*Trace {
	if minStrength <= 0 {
		minStrength = b.config.MinStrength
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.evictExpiredLocked(location, now)

	var out []*Trace
	for _, t := range b.traces[location] {
		if traceType != "" && t.Type != traceType {
			continue
		}
		if excludeAgentID != "" && t.AgentID == excludeAgentID {
			continue
		}
		if t.StrengthAt(now) < minStrength {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Strength 返回位置上匹配类型痕迹的衰减强度之和。
func (b *Board) Strength(location, traceType string) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	now := b.now()
	var total float64
	for _, t := range b.traces[location] {
		if traceType != "" && t.Type != traceType {
			continue
		}
		if s := t.StrengthAt(now); s >= b.config.MinStrength {
			total += s
		}
	}
	return total
}

// StrongestTrail 在候选位置中返回强度最高者（排除当前位置）。
// 平局按候选顺序取第一个；所有候选强度为零时返回 ("", false)。
func (b *Board) StrongestTrail(current, traceType string, candidates []string) (string, bool) {
	var best string
	var bestStrength float64

	for _, loc := range candidates {
		if loc == current {
			continue
		}
		if s := b.Strength(loc, traceType); s > bestStrength {
			bestStrength = s
			best = loc
		}
	}
	if bestStrength <= 0 {
		return "", false
	}
	return best, true
}

// GC 回收全部位置上的过期痕迹，返回回收数量。
func (b *Board) GC() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for location := range b.traces {
		before := len(b.traces[location])
		b.evictExpiredLocked(location, now)
		removed += before - len(b.traces[location])
	}
	if removed > 0 {
		b.logger.Debug("expired traces collected", zap.Int("removed", removed))
	}
	return removed
}

// BoardStats 是痕迹板的统计信息。
type BoardStats struct {
	Traces        int     `json:"traces"`
	Locations     int     `json:"locations"`
	TotalStrength float64 `json:"total_strength"`
}

// Stats 返回当前统计信息（不触发回收）。
func (b *Board) Stats() BoardStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	now := b.now()
	stats := BoardStats{}
	for _, traces := range b.traces {
		if len(traces) == 0 {
			continue
		}
		stats.Locations++
		stats.Traces += len(traces)
		for _, t := range traces {
			stats.TotalStrength += t.StrengthAt(now)
		}
	}
	return stats
}

func (b *Board) evictExpiredLocked(location string, now time.Time) {
	traces := b.traces[location]
	if len(traces) == 0 {
		return
	}
	kept := traces[:0]
	for _, t := range traces {
		if t.StrengthAt(now) >= b.config.MinStrength {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(b.traces, location)
		return
	}
	b.traces[location] = kept
}
