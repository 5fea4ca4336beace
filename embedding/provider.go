package embedding

import (
	"context"
	"strings"
)

// Provider 将文本映射为定长向量。
type Provider interface {
	// Name 返回提供者名称。
	Name() string
	// Dimensions 返回输出向量维度。
	Dimensions() int
	// Embed 将文本向量化。实现必须是全函数：空文本返回零向量而不是报错。
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NewProvider 按模型名协商一个提供者。
// ok 为 false 表示请求的模型不可用，由调用方显式选择回退
// （通常是 NewHashProvider），而不是靠捕获缺依赖的异常。
func NewProvider(model string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case "", "hash", "fallback":
		return NewHashProvider(DefaultDimensions), true
	default:
		return nil, false
	}
}
