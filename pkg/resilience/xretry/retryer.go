package xretry

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
)

// safeIntToUint 将 int 安全转换为 uint，负数返回 0。
func safeIntToUint(n int) uint {
	if n <= 0 {
		return 0
	}
	return uint(n)
}

// safeUintToInt 将 uint 安全转换为 int，超界截断到 MaxInt。
func safeUintToInt(n uint) int {
	if n > uint(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}

// Retryer 重试执行器
//
// 组合 Config（退避与次数）和 xclassify.Classifier（可重试性判定），
// 可独立于恢复管理器使用。底层使用 avast/retry-go/v5 驱动重试循环。
type Retryer struct {
	classifier *xclassify.Classifier
	onRetry    func(attempt int, err error)
}

// RetryerOption 执行器配置选项
type RetryerOption func(*Retryer)

// WithClassifier 设置错误分类器，nil 被静默忽略。
func WithClassifier(c *xclassify.Classifier) RetryerOption {
	return func(r *Retryer) {
		if c != nil {
			r.classifier = c
		}
	}
}

// WithOnRetry 设置重试回调（attempt 从 1 开始），nil 被静默忽略。
func WithOnRetry(f func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 创建重试执行器，默认使用内置规则集的分类器。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{
		classifier: xclassify.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ShouldRetry 判断第 attempt 次失败后是否应继续重试。
//
// attempt 从 1 开始。判定顺序：
//  1. attempt 已达 MaxAttempts → false
//  2. 错误链带 Retryable() 标记 → 以标记为准
//  3. 独立分类后类别不在 RetryableCategories → false
func (r *Retryer) ShouldRetry(err error, attempt int, cfg *Config) bool {
	if err == nil || cfg == nil {
		return false
	}
	if attempt >= cfg.maxAttempts {
		return false
	}
	if override, ok := retryableOverride(err); ok {
		return override
	}
	cls := r.classifier.Classify(err)
	return cfg.AllowsCategory(cls.Category)
}

// Do 执行带重试的操作
//
// 按 cfg 的退避策略在失败后延迟重试，耗尽 MaxAttempts 或遇到
// 不可重试错误时返回最后一个错误。最后一次尝试之后不再延迟。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error, cfg *Config) error {
	if r == nil {
		return ErrNilRetryer
	}
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	return retry.New(r.buildOptions(ctx, cfg)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 执行带重试的操作（有返回值）
//
// 泛型函数，必须作为包级函数使用。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error), cfg *Config) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrNilRetryer
	}
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	return retry.NewWithData[T](r.buildOptions(ctx, cfg)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

// buildOptions 将 Config 映射为 retry-go 的选项。
//
// Attempts 设置硬上限，RetryIf 中的 ShouldRetry 提供逐次判断，
// 两者共同生效。attemptCount 使用原子操作，防止闭包被并发调用时
// 产生数据竞争。
func (r *Retryer) buildOptions(ctx context.Context, cfg *Config) []retry.Option {
	if cfg == nil {
		cfg = NewConfig()
	}

	opts := make([]retry.Option, 0, 5)
	opts = append(opts, retry.Context(ctx))
	opts = append(opts, retry.Attempts(safeIntToUint(cfg.maxAttempts)))

	var attemptCount atomic.Int64
	opts = append(opts, retry.RetryIf(func(err error) bool {
		count := int(attemptCount.Add(1))
		if !retry.IsRecoverable(err) {
			return false
		}
		return r.ShouldRetry(err, count, cfg)
	}))

	opts = append(opts, retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
		// retry-go v5 的 DelayType 在第 n 次失败后调用，n 从 1 开始
		return cfg.Delay(safeUintToInt(n))
	}))

	if r.onRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			// OnRetry 的 n 从 0 开始，转换为 1-based
			r.onRetry(safeUintToInt(n)+1, err)
		}))
	}

	// 只返回最后一个错误，简化调用方的错误处理
	opts = append(opts, retry.LastErrorOnly(true))

	return opts
}

// Classifier 返回当前分类器。nil 接收者返回 nil。
func (r *Retryer) Classifier() *xclassify.Classifier {
	if r == nil {
		return nil
	}
	return r.classifier
}
