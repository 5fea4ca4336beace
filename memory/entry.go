package memory

import (
	"time"

	"github.com/BaSui01/swarmflow/types"
)

// Entry 是一条记忆。Relevance 在周期性重打分时原地更新；
// 条目在被裁剪或合并进压缩摘要时销毁。
type Entry struct {
	ID         string          `json:"id"`
	Content    string          `json:"content"`
	Embedding  []float64       `json:"embedding,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Relevance  float64         `json:"relevance"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	Evaluation *types.ScoreSet `json:"evaluation,omitempty"`
	Reflection string          `json:"reflection,omitempty"`
}

// HasTag 判断条目是否带有指定标签。
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// clone 返回条目的深拷贝（embedding 与 metadata 均复制）。
func (e *Entry) clone() *Entry {
	out := *e
	out.Embedding = append([]float64(nil), e.Embedding...)
	out.Tags = append([]string(nil), e.Tags...)
	if e.Metadata != nil {
		out.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	if e.Evaluation != nil {
		ev := *e.Evaluation
		out.Evaluation = &ev
	}
	return &out
}

// 保留标签
const (
	TagCompressed = "compressed"
	TagSummary    = "summary"
)

// 元数据键：按 Agent 聚合评估分时使用。
const MetadataKeyAgentName = "agent_name"
