// Package xretry 提供重试调度与退避计算能力。
//
// # 设计理念
//
// xretry 围绕不可变的 Config 展开：
//   - Config：退避策略（fixed/linear/exponential/custom）、尝试上限、
//     延迟上限、抖动开关、可重试类别集合
//   - CalculateDelay：纯函数的退避数学，便于独立测试
//   - Retryer：可独立使用的重试执行器，底层使用 [avast/retry-go/v5]
//
// # 退避公式
//
//   - fixed: baseDelay
//   - linear: baseDelay × attempt
//   - exponential: baseDelay × multiplier^(attempt−1)
//   - custom: 调用方提供的 CustomDelay 函数
//
// 结果先被 maxDelay 截顶，再按 ±25% 均匀抖动（如启用），最后不小于 0。
// 最后一次尝试之后不再延迟。
//
// # 可重试性判定
//
// ShouldRetry 在两种情况下返回 false：
//   - attempt 已达 MaxAttempts
//   - 错误经 xclassify 独立分类后，类别不在 RetryableCategories 中
//
// 带 Retryable() 标记的错误（PermanentError 等）优先于分类结果。
//
// # 使用方式
//
//	cfg := xretry.NewConfig(
//	    xretry.WithStrategy(xretry.StrategyExponential),
//	    xretry.WithMaxAttempts(5),
//	    xretry.WithBaseDelay(100*time.Millisecond),
//	)
//	r := xretry.NewRetryer()
//	err := r.Do(ctx, func(ctx context.Context) error {
//	    return doSomething()
//	}, cfg)
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
