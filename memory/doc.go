// Package memory 实现自适应记忆库：带嵌入向量、衰减相关度与标签的
// 有界记忆，支持相似度检索、周期性重打分/压缩/裁剪，以及
// 面向控制回路的性能统计。
//
// 持久化是 fire-and-forget：加载/保存失败只记日志不上抛，
// 进程内状态始终是权威状态。
package memory
