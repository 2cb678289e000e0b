package xretry

import (
	"time"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
)

// 预置重试配置。
// 这些工厂对应常见的重试画像，供策略表直接引用。

// Aggressive 激进重试：5 次尝试，短基础延迟，快速增长。
// 适合幂等且低成本的操作。
func Aggressive() *Config {
	return NewConfig(
		WithStrategy(StrategyExponential),
		WithMaxAttempts(5),
		WithBaseDelay(100*time.Millisecond),
		WithMaxDelay(5*time.Second),
		WithMultiplier(2.0),
	)
}

// Standard 标准重试：3 次尝试，1s 基础延迟。
// 默认策略使用此配置。
func Standard() *Config {
	return NewConfig(
		WithStrategy(StrategyExponential),
		WithMaxAttempts(3),
		WithBaseDelay(time.Second),
		WithMaxDelay(30*time.Second),
		WithMultiplier(2.0),
	)
}

// Conservative 保守重试：2 次尝试，线性退避，仅网络/超时可重试。
// 适合非幂等或高成本的操作。
func Conservative() *Config {
	return NewConfig(
		WithStrategy(StrategyLinear),
		WithMaxAttempts(2),
		WithBaseDelay(2*time.Second),
		WithMaxDelay(10*time.Second),
		WithRetryableCategories(
			xclassify.CategoryNetwork,
			xclassify.CategoryTimeout,
		),
	)
}

// Quick 快速重试：3 次尝试，固定 50ms 延迟，无抖动。
// 适合本地或内存内操作。
func Quick() *Config {
	return NewConfig(
		WithStrategy(StrategyFixed),
		WithMaxAttempts(3),
		WithBaseDelay(50*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(false),
	)
}
