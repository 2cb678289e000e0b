// Package xbreaker 提供按受保护资源隔离的熔断器。
//
// # 状态机
//
// 熔断器有三个状态：
//   - Closed（初始）：请求正常通过，失败被统计
//   - Open：请求直接失败，不调用受保护操作
//   - HalfOpen：探测状态，放行请求以检测恢复
//
// 状态转换规则：
//   - Closed → Open：监控窗口内调用数 ≥ MinimumThroughput 且失败数 ≥
//     FailureThreshold。该判定在【每次】记录失败后执行，不受当前状态
//     约束——处于 HalfOpen 的熔断器同样可能被此规则推回 Open。
//   - Open → HalfOpen：下一次 Execute 时，距最近失败已过 RecoveryTimeout
//     （或从未记录过失败）。未到期则直接拒绝，受保护操作不会被调用。
//   - HalfOpen → Closed：HalfOpen 下的下一次成功调用。
//
// failureCount 在每次进入 Closed 时被重置为 0。
//
// 调用历史按 {success, timestamp, duration, error} 记录，每次记录时
// 裁剪到监控窗口内。Reset/ForceOpen/ForceClose 是管理性覆盖，绕过
// 统计规则并触发各自的状态回调。
//
// # 使用方式
//
//	b := xbreaker.New("payment-api", xbreaker.StandardConfig())
//	result, err := xbreaker.Execute(ctx, b, func(ctx context.Context) (string, error) {
//	    return callRemoteService(ctx)
//	})
//	if xbreaker.IsOpen(err) {
//	    // 快速失败，走降级
//	}
//
// 熔断拒绝被包装为 BreakerError，其 Retryable() 返回 false，
// 与 xretry 组合时不会被重试。
package xbreaker
