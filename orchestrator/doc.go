// Package orchestrator 实现多智能体编排器：按顺序、并行或协作策略
// 调度一组命名 Agent，聚合每个 Agent 的输出或错误，保证结果顺序确定。
package orchestrator
