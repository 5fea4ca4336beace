package agent

import (
	"context"

	"github.com/BaSui01/swarmflow/types"
)

// Agent 是协调核心调用的最小执行契约。
type Agent interface {
	// ID 返回 Agent 的唯一标识。
	ID() string
	// Run 在给定上下文下执行任务，返回任意输出。
	Run(ctx context.Context, tc types.TaskContext) (any, error)
	// Reflect 对刚完成的执行做一次自省，返回反思笔记。
	Reflect(ctx context.Context, tc types.TaskContext) (string, error)
}

// Configurable 是可选能力：暴露并接受超参配置。
// 通过类型断言探测：
//
//	if c, ok := a.(agent.Configurable); ok {
//	    c.SetConfig(newCfg)
//	}
type Configurable interface {
	// Config 返回当前配置的副本。
	Config() types.AgentConfig
	// SetConfig 用新配置整体替换当前配置。
	SetConfig(cfg types.AgentConfig)
}

// Role 是挂在 Agent 描述符上的角色标签，
// 由组合根检查，替代对 Agent 实例的属性探测。
type Role string

const (
	RoleWorker    Role = "worker"    // 参与主任务执行
	RoleCritic    Role = "critic"    // 仅参与评审/共识
	RoleSupport   Role = "support"   // 工具型，不参与主流程
	RoleObserver  Role = "observer"  // 只读，被动记录
	RoleEvaluator Role = "evaluator" // 产出评分
)

// Descriptor 描述注册表中的一个 Agent。
type Descriptor struct {
	Name  string `json:"name"`
	Roles []Role `json:"roles,omitempty"`
}

// HasRole 判断描述符是否带有指定角色。
// 没有任何角色标签的 Agent 视为 worker。
func (d Descriptor) HasRole(role Role) bool {
	if len(d.Roles) == 0 {
		return role == RoleWorker
	}
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}
