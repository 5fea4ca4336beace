// Package evaluation 定义 Evaluator 外部协作者的契约，
// 并提供一个无模型依赖的启发式实现。
//
// Evaluator 是可选依赖：缺席时共识与变异逻辑全部走
// 非评估分支（EVALUATION_UNAVAILABLE 降级模式）。
package evaluation
