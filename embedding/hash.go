package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimensions 是回退提供者的默认向量维度。
const DefaultDimensions = 128

// HashProvider 是确定性的回退嵌入：小写分词后按 FNV 哈希分桶计数，
// 再做 L2 归一化。没有语义，但相同文本永远得到相同向量，
// 足以支撑相似度检索与共识打分在离线环境下闭环。
type HashProvider struct {
	dimensions int
}

// NewHashProvider 创建哈希分桶提供者。dimensions <= 0 时使用默认维度。
func NewHashProvider(dimensions int) *HashProvider {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashProvider{dimensions: dimensions}
}

// Name 返回提供者名称。
func (p *HashProvider) Name() string { return "hash" }

// Dimensions 返回向量维度。
func (p *HashProvider) Dimensions() int { return p.dimensions }

// Embed 将文本向量化。空文本返回零向量。
func (p *HashProvider) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, p.dimensions)

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return vec, nil
	}

	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		// 在 uint32 域内取模，32 位平台上 int(Sum32()) 可能为负
		vec[h.Sum32()%uint32(p.dimensions)]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// Tokenize 小写化后按非字母数字切分文本。
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
