// Package xrecover 提供恢复编排：组合错误分类、重试、熔断、
// 检查点和指标收集，对外暴露统一的 Execute 入口。
//
// # 执行流程
//
// Execute 按以下顺序处理一次操作：
//  1. 解析命名策略（未找到时回退 "default"）
//  2. 创建恢复上下文，按需创建初始检查点
//  3. 按操作 ID 惰性创建熔断器（策略配置了 Breaker 时），
//     整个重试循环作为熔断器的一次调用执行
//  4. 重试循环：每次失败经分类器判定类别与可恢复性，
//     可恢复且类别允许时按退避延迟重试
//  5. 重试耗尽且最终错误可恢复时执行降级函数
//  6. 记录指标并发布事件
//
// Execute 不返回裸 error：所有结果（含失败）都编码在 Result 中，
// 每次调用至少产生一条尝试记录。
//
// # 事件
//
// Manager 自身持有订阅者集合，Subscribe 返回退订函数。
// 事件在发布方 goroutine 上同步分发，订阅回调应保持轻量。
//
// # 生命周期
//
// NewDefault 返回带默认协作组件的 Manager；用完调用 Shutdown
// 排空在途操作并释放指标收集协程。
package xrecover
