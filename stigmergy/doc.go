// Package stigmergy 实现共享痕迹板：Agent 通过在板上沉积
// 随时间指数衰减的痕迹间接协调，而不是相互发消息。
//
// 痕迹强度是派生量（value * exp(-decay_rate * age)），只在读取时
// 计算，从不落盘；衰减到最小强度以下的痕迹在任意读写时被回收。
package stigmergy
