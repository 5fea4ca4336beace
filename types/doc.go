// Package types 定义 swarmflow 协调核心共享的基础类型：
// 统一错误码、评估分数集、Agent 超参配置与任务上下文。
//
// types 是最底层的包，不依赖任何内部包，避免循环导入。
package types
