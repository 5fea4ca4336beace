package types

// TaskContext 是传递给 Agent 的执行上下文。
// 按约定不可变：并行分发前由调用方 Clone，Agent 不回写。
type TaskContext map[string]any

// ContextKeyTask 任务文本在上下文中的键。
const ContextKeyTask = "task"

// Clone 返回上下文的浅拷贝；nil 上下文返回空上下文。
func (tc TaskContext) Clone() TaskContext {
	out := make(TaskContext, len(tc))
	for k, v := range tc {
		out[k] = v
	}
	return out
}

// Task 返回上下文中的任务文本，缺失时返回空串。
func (tc TaskContext) Task() string {
	if tc == nil {
		return ""
	}
	if s, ok := tc[ContextKeyTask].(string); ok {
		return s
	}
	return ""
}
