// Package evolution 实现配置变异器：周期性读取各智能体的历史表现，
// 对低分智能体的超参数做有界随机扰动，并记录变异历史。
package evolution
