// Package embedding 提供文本向量化能力。
//
// 核心只依赖 Provider 接口；HashProvider 是无外部模型时的
// 确定性回退实现（token 哈希分桶 + L2 归一化），保证系统在
// 完全离线的环境中可运行。
package embedding
