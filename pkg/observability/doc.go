// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xmetrics: 恢复指标收集与 OpenTelemetry 导出
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 指标在内存窗口内聚合，导出层可插拔
//   - 支持动态级别控制
package observability
