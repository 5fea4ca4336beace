// Package swarm 实现群体共识：向一组 Agent 征集同一任务的提案，
// 按文本重叠度（可选叠加评估分）打分，把每个提案作为痕迹沉积到
// 共享痕迹板，最后返回得分最高的提案。
package swarm
