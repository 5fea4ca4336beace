package agent

import (
	"context"
	"sync"

	"github.com/BaSui01/swarmflow/types"
)

// RunFunc 是 Run 操作的函数形式。
type RunFunc func(ctx context.Context, tc types.TaskContext) (any, error)

// ReflectFunc 是 Reflect 操作的函数形式。
type ReflectFunc func(ctx context.Context, tc types.TaskContext) (string, error)

// FuncAgent 用两个函数适配出一个 Agent，自带可变配置。
// 主要用于测试与示例装配。
type FuncAgent struct {
	id      string
	run     RunFunc
	reflect ReflectFunc

	mu     sync.RWMutex
	config types.AgentConfig
}

// NewFuncAgent 创建函数式 Agent。reflect 可为 nil，此时 Reflect 返回空串。
func NewFuncAgent(id string, run RunFunc, reflect ReflectFunc) *FuncAgent {
	return &FuncAgent{
		id:      id,
		run:     run,
		reflect: reflect,
		config:  types.DefaultAgentConfig(),
	}
}

// ID 返回 Agent 标识。
func (a *FuncAgent) ID() string { return a.id }

// Run 执行任务。
func (a *FuncAgent) Run(ctx context.Context, tc types.TaskContext) (any, error) {
	return a.run(ctx, tc)
}

// Reflect 执行自省。
func (a *FuncAgent) Reflect(ctx context.Context, tc types.TaskContext) (string, error) {
	if a.reflect == nil {
		return "", nil
	}
	return a.reflect(ctx, tc)
}

// Config 返回当前配置的副本。
func (a *FuncAgent) Config() types.AgentConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Clone()
}

// SetConfig 整体替换配置。
func (a *FuncAgent) SetConfig(cfg types.AgentConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = cfg.Clone()
}
