package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/embedding"
	"github.com/BaSui01/swarmflow/types"
)

// Config 配置自适应记忆库。
type Config struct {
	// Limit 每次 Optimize 后保留的最大条目数。
	Limit int `yaml:"limit" json:"limit"`
	// HalfLife 相关度衰减半衰期。
	HalfLife time.Duration `yaml:"half_life" json:"half_life"`
	// CompressThreshold 低于该相关度的条目参与压缩。
	CompressThreshold float64 `yaml:"compress_threshold" json:"compress_threshold"`
	// CompressMinCluster 触发压缩所需的最少低相关条目数。
	CompressMinCluster int `yaml:"compress_min_cluster" json:"compress_min_cluster"`
	// SummaryMaxLen 压缩摘要内容的最大字符数。
	SummaryMaxLen int `yaml:"summary_max_len" json:"summary_max_len"`
	// DefaultTopK Retrieve 未指定 topK 时的默认值。
	DefaultTopK int `yaml:"default_top_k" json:"default_top_k"`
	// DefaultMinScore Retrieve 未指定 minScore 时的默认值。
	DefaultMinScore float64 `yaml:"default_min_score" json:"default_min_score"`

	// Now 用于测试注入时钟，默认 time.Now。
	Now func() time.Time `yaml:"-" json:"-"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Limit:              1000,
		HalfLife:           time.Hour,
		CompressThreshold:  0.2,
		CompressMinCluster: 3,
		SummaryMaxLen:      300,
		DefaultTopK:        5,
		DefaultMinScore:    0.4,
	}
}

// AddOptions 携带 Add 的可选字段。
type AddOptions struct {
	Tags       []string
	Metadata   map[string]any
	Evaluation *types.ScoreSet
	Reflection string
}

// SearchResult 是一次检索命中。
type SearchResult struct {
	Entry *Entry  `json:"entry"`
	Score float64 `json:"score"`
}

// AdaptiveMemory 是有界、按相关度排序、随时间衰减的记忆库。
// 不支持并发写入：调用方需串行化 Add/LogEvent/Optimize。
type AdaptiveMemory struct {
	mu       sync.Mutex
	entries  []*Entry
	provider embedding.Provider
	store    Store

	cacheMu    sync.Mutex
	embedCache map[string][]float64

	config Config
	now    func() time.Time
	logger *zap.Logger
}

// New 创建记忆库。store 可为 nil（纯内存模式）；
// 有 store 时在构造期加载一次快照，加载失败只记日志。
func New(config Config, provider embedding.Provider, store Store, logger *zap.Logger) *AdaptiveMemory {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if config.Limit <= 0 {
		config.Limit = def.Limit
	}
	if config.HalfLife <= 0 {
		config.HalfLife = def.HalfLife
	}
	if config.CompressThreshold <= 0 {
		config.CompressThreshold = def.CompressThreshold
	}
	if config.CompressMinCluster <= 0 {
		config.CompressMinCluster = def.CompressMinCluster
	}
	if config.SummaryMaxLen <= 0 {
		config.SummaryMaxLen = def.SummaryMaxLen
	}
	if config.DefaultTopK <= 0 {
		config.DefaultTopK = def.DefaultTopK
	}
	if config.DefaultMinScore <= 0 {
		config.DefaultMinScore = def.DefaultMinScore
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	m := &AdaptiveMemory{
		provider:   provider,
		store:      store,
		embedCache: make(map[string][]float64),
		config:     config,
		now:        now,
		logger:     logger.With(zap.String("component", "adaptive_memory")),
	}

	if store != nil {
		entries, err := store.Load(context.Background())
		if err != nil {
			m.logger.Warn("memory load failed, starting empty", zap.Error(err))
		} else {
			m.entries = entries
			for _, e := range entries {
				if e.Content != "" && len(e.Embedding) > 0 {
					m.embedCache[e.Content] = e.Embedding
				}
			}
		}
	}
	return m
}

// Add 追加一条记忆并返回其 ID。新条目相关度为 1.0。
// 持久化失败只记日志，不上抛。
func (m *AdaptiveMemory) Add(ctx context.Context, content string, opts AddOptions) (string, error) {
	emb, err := m.embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("failed to embed content: %w", err)
	}

	m.mu.Lock()
	entry := &Entry{
		ID:         uuid.New().String(),
		Content:    content,
		Embedding:  emb,
		Tags:       append([]string(nil), opts.Tags...),
		CreatedAt:  m.now(),
		Relevance:  1.0,
		Metadata:   opts.Metadata,
		Evaluation: opts.Evaluation,
		Reflection: opts.Reflection,
	}
	m.entries = append(m.entries, entry)
	m.persistLocked(ctx)
	m.mu.Unlock()

	m.logger.Debug("memory entry added", zap.String("id", entry.ID), zap.Strings("tags", entry.Tags))
	return entry.ID, nil
}

type eventContent struct {
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

// LogEvent 以确定性 JSON（键按字典序）序列化事件作为内容写入记忆，
// 标签自动包含事件类型。
func (m *AdaptiveMemory) LogEvent(ctx context.Context, eventType string, payload map[string]any, tags ...string) (string, error) {
	// encoding/json 对 map 键做字典序输出，内容天然稳定
	data, err := json.Marshal(eventContent{EventType: eventType, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("failed to serialize event: %w", err)
	}
	return m.Add(ctx, string(data), AddOptions{
		Tags:     append(append([]string(nil), tags...), eventType),
		Metadata: map[string]any{"event_type": eventType},
	})
}

// Optimize 执行周期性维护：按任务相似度与时间衰减重打分、
// 压缩低相关簇、按相关度降序裁剪到上限、持久化。返回裁剪后的条目数。
func (m *AdaptiveMemory) Optimize(ctx context.Context, task string) (int, error) {
	taskEmb, err := m.embed(ctx, task)
	if err != nil {
		return m.Size(), fmt.Errorf("failed to embed task: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, e := range m.entries {
		e.Relevance = CosineSimilarity(e.Embedding, taskEmb) * m.decayFactor(e.CreatedAt, now)
	}

	removed, summary := m.compressLocked(ctx, m.config.CompressThreshold)
	if summary != nil {
		summary.Relevance = CosineSimilarity(summary.Embedding, taskEmb)
	}

	sort.SliceStable(m.entries, func(i, j int) bool {
		return m.entries[i].Relevance > m.entries[j].Relevance
	})
	if len(m.entries) > m.config.Limit {
		m.entries = m.entries[:m.config.Limit]
	}

	m.persistLocked(ctx)

	m.logger.Info("memory optimized",
		zap.Int("size", len(m.entries)),
		zap.Int("compressed", removed),
	)
	return len(m.entries), nil
}

// Retrieve 按余弦相似度检索。topK <= 0 与 minScore < 0 时使用默认值。
// 不修改存储的相关度。
func (m *AdaptiveMemory) Retrieve(ctx context.Context, query string, topK int, minScore float64) ([]SearchResult, error) {
	if topK <= 0 {
		topK = m.config.DefaultTopK
	}
	if minScore < 0 {
		minScore = m.config.DefaultMinScore
	}

	queryEmb, err := m.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]SearchResult, 0, len(m.entries))
	for _, e := range m.entries {
		score := CosineSimilarity(e.Embedding, queryEmb)
		if score < minScore {
			continue
		}
		results = append(results, SearchResult{Entry: e.clone(), Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// AgentPerformance 按 Agent 聚合 metadata.agent_name + evaluation.overall
// 都存在的条目，返回每个 Agent 的平均 overall 分。
func (m *AdaptiveMemory) AgentPerformance() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, e := range m.entries {
		if e.Evaluation == nil || e.Metadata == nil {
			continue
		}
		name, ok := e.Metadata[MetadataKeyAgentName].(string)
		if !ok || name == "" {
			continue
		}
		totals[name] += e.Evaluation.Overall
		counts[name]++
	}

	out := make(map[string]float64, len(totals))
	for name, total := range totals {
		out[name] = total / float64(counts[name])
	}
	return out
}

// CompressLowRelevance 压缩相关度低于阈值的条目簇：
// 少于 CompressMinCluster 条时不动作；否则移除这些条目，
// 插入一条带 compressed/summary 标签的有界摘要。返回被移除的条目数。
func (m *AdaptiveMemory) CompressLowRelevance(ctx context.Context, threshold float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed, _ := m.compressLocked(ctx, threshold)
	if removed > 0 {
		m.persistLocked(ctx)
	}
	return removed
}

// Size 返回条目数。
func (m *AdaptiveMemory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entries 返回全部条目的深拷贝。
func (m *AdaptiveMemory) Entries() []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Entry, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.clone()
	}
	return out
}

// Export 导出全部条目的 JSON 快照。
func (m *AdaptiveMemory) Export() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return json.Marshal(m.entries)
}

func (m *AdaptiveMemory) compressLocked(ctx context.Context, threshold float64) (int, *Entry) {
	var low, high []*Entry
	for _, e := range m.entries {
		if e.Relevance < threshold {
			low = append(low, e)
		} else {
			high = append(high, e)
		}
	}
	if len(low) < m.config.CompressMinCluster {
		return 0, nil
	}

	var combined []rune
	for i, e := range low {
		if i > 0 {
			combined = append(combined, ' ')
		}
		combined = append(combined, []rune(e.Content)...)
		if len(combined) >= m.config.SummaryMaxLen {
			break
		}
	}
	// 按字符截断，多字节内容不能切在码点中间
	if len(combined) > m.config.SummaryMaxLen {
		combined = combined[:m.config.SummaryMaxLen]
	}
	content := string(combined)

	emb, err := m.embed(ctx, content)
	if err != nil {
		m.logger.Warn("failed to embed summary", zap.Error(err))
	}

	summary := &Entry{
		ID:        uuid.New().String(),
		Content:   content,
		Embedding: emb,
		Tags:      []string{TagCompressed, TagSummary},
		CreatedAt: m.now(),
		Relevance: threshold,
		Metadata:  map[string]any{"merged_entries": len(low)},
	}
	m.entries = append(high, summary)

	m.logger.Debug("low-relevance entries compressed",
		zap.Int("merged", len(low)),
		zap.Float64("threshold", threshold),
	)
	return len(low), summary
}

// embed 带记忆化缓存地向量化文本；空文本直接映射为零向量。
func (m *AdaptiveMemory) embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return make([]float64, m.provider.Dimensions()), nil
	}

	m.cacheMu.Lock()
	if cached, ok := m.embedCache[text]; ok {
		m.cacheMu.Unlock()
		return cached, nil
	}
	m.cacheMu.Unlock()

	emb, err := m.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	m.cacheMu.Lock()
	m.embedCache[text] = emb
	m.cacheMu.Unlock()
	return emb, nil
}

// persistLocked 将当前条目写入持久化存储。
// 失败只记日志：协调回路的可用性优先于持久性保证。
func (m *AdaptiveMemory) persistLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, m.entries); err != nil {
		m.logger.Warn("memory persistence failed",
			zap.Error(types.NewError(types.ErrPersistenceFailure, "memory save").WithCause(err)),
		)
	}
}

func (m *AdaptiveMemory) decayFactor(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt).Seconds()
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, age/m.config.HalfLife.Seconds())
}

// CosineSimilarity 计算余弦相似度。
// 维度不一致时（例如运行中更换 provider）截断到较短长度比较，而不是报错。
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
