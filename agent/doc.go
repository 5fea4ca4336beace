// Package agent 定义协调核心看到的 Agent 契约与显式注册表。
//
// 核心只调用 Run / Reflect 两个操作，Agent 内部的推理策略
// （tree-of-thought、工具调用等）对核心完全不透明。
// 超参配置通过可选的 Configurable 能力读写；无状态 Agent 不实现即可。
package agent
