// Package curriculum 实现课程控制回路：按难度级别统计任务成败，
// 用 epsilon-greedy 策略在探索与升降级之间权衡，调整当前难度。
package curriculum
