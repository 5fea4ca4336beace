// Package metrics 为协调回路提供内部 prometheus 指标收集。
// 本包是内部包，不对外部工程暴露。
package metrics
