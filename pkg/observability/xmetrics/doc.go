// Package xmetrics 提供恢复操作的指标收集与聚合。
//
// Collector 记录三类数据：
//   - OperationRecord: 每次操作的成功/耗时
//   - ErrorRecord: 错误的类别与严重程度
//   - RecoveryRecord: 恢复尝试的动作与结果
//
// 记录保留在内存中，后台按保留窗口定期清理过期记录；
// Destroy 停止清理协程，可重复调用。
//
// Stats 在保留窗口上聚合，按类别/严重程度/动作的分布图总是
// 包含全部枚举键（未出现的键为 0），消费方无需判空。
//
// # OTel 桥接
//
// 通过 WithSink(NewOTelSink(...)) 可将记录同步导出为 OpenTelemetry
// 指标（操作计数、耗时直方图、错误与恢复计数），用于接入现有
// 监控体系。Sink 导出失败不影响本地聚合。
package xmetrics
