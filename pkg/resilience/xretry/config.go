package xretry

import (
	"time"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
)

// Strategy 退避策略类型
type Strategy string

// 退避策略常量
const (
	// StrategyFixed 固定延迟
	StrategyFixed Strategy = "fixed"

	// StrategyLinear 线性增长
	StrategyLinear Strategy = "linear"

	// StrategyExponential 指数增长
	StrategyExponential Strategy = "exponential"

	// StrategyCustom 自定义延迟函数
	StrategyCustom Strategy = "custom"
)

// DelayFunc 自定义延迟函数
// attempt 从 1 开始，base 为配置的基础延迟。
type DelayFunc func(attempt int, base time.Duration) time.Duration

// Config 重试配置
//
// 通过 NewConfig 构建后不可变，可被多个 Retryer / 多次调用安全共享。
// 字段不导出，非法取值在构造时被钳制到有效范围。
type Config struct {
	strategy    Strategy
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	multiplier  float64
	jitter      bool
	retryable   map[xclassify.Category]struct{}
	customDelay DelayFunc
}

// ConfigOption 重试配置选项
type ConfigOption func(*Config)

// WithStrategy 设置退避策略。
// 未知策略值会被静默忽略（保持默认的 exponential）。
func WithStrategy(s Strategy) ConfigOption {
	return func(c *Config) {
		switch s {
		case StrategyFixed, StrategyLinear, StrategyExponential, StrategyCustom:
			c.strategy = s
		}
	}
}

// WithMaxAttempts 设置最大尝试次数（包含首次尝试），最小为 1。
func WithMaxAttempts(n int) ConfigOption {
	return func(c *Config) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithBaseDelay 设置基础延迟，负值被忽略。
func WithBaseDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d >= 0 {
			c.baseDelay = d
		}
	}
}

// WithMaxDelay 设置延迟硬上限，非正值被忽略。
func WithMaxDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithMultiplier 设置指数退避乘数（>= 1.0），小于 1 的值被忽略。
func WithMultiplier(m float64) ConfigOption {
	return func(c *Config) {
		if m >= 1 {
			c.multiplier = m
		}
	}
}

// WithJitter 设置是否启用 ±25% 均匀抖动。
func WithJitter(enabled bool) ConfigOption {
	return func(c *Config) {
		c.jitter = enabled
	}
}

// WithRetryableCategories 设置可重试的错误类别集合，覆盖默认集合。
func WithRetryableCategories(cats ...xclassify.Category) ConfigOption {
	return func(c *Config) {
		c.retryable = make(map[xclassify.Category]struct{}, len(cats))
		for _, cat := range cats {
			c.retryable[cat] = struct{}{}
		}
	}
}

// WithCustomDelay 设置自定义延迟函数，仅在 StrategyCustom 下生效。
func WithCustomDelay(f DelayFunc) ConfigOption {
	return func(c *Config) {
		if f != nil {
			c.customDelay = f
		}
	}
}

// NewConfig 创建重试配置
//
// 默认值：
//   - strategy: exponential
//   - maxAttempts: 3
//   - baseDelay: 100ms
//   - maxDelay: 30s
//   - multiplier: 2.0
//   - jitter: 开启
//   - retryable: network / timeout / rate_limit / system / unknown
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		strategy:    StrategyExponential,
		maxAttempts: 3,
		baseDelay:   100 * time.Millisecond,
		maxDelay:    30 * time.Second,
		multiplier:  2.0,
		jitter:      true,
		retryable: map[xclassify.Category]struct{}{
			xclassify.CategoryNetwork:   {},
			xclassify.CategoryTimeout:   {},
			xclassify.CategoryRateLimit: {},
			xclassify.CategorySystem:    {},
			xclassify.CategoryUnknown:   {},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	// custom 策略缺少延迟函数时退回 exponential，保证 Delay 总有定义
	if c.strategy == StrategyCustom && c.customDelay == nil {
		c.strategy = StrategyExponential
	}
	if c.maxDelay < c.baseDelay {
		c.maxDelay = c.baseDelay
	}
	return c
}

// Strategy 返回退避策略
func (c *Config) Strategy() Strategy {
	return c.strategy
}

// MaxAttempts 返回最大尝试次数
func (c *Config) MaxAttempts() int {
	return c.maxAttempts
}

// BaseDelay 返回基础延迟
func (c *Config) BaseDelay() time.Duration {
	return c.baseDelay
}

// MaxDelay 返回延迟上限
func (c *Config) MaxDelay() time.Duration {
	return c.maxDelay
}

// Multiplier 返回指数乘数
func (c *Config) Multiplier() float64 {
	return c.multiplier
}

// Jitter 返回是否启用抖动
func (c *Config) Jitter() bool {
	return c.jitter
}

// AllowsCategory 返回类别是否可重试
func (c *Config) AllowsCategory(cat xclassify.Category) bool {
	_, ok := c.retryable[cat]
	return ok
}

// RetryableCategories 返回可重试类别集合的副本
func (c *Config) RetryableCategories() []xclassify.Category {
	out := make([]xclassify.Category, 0, len(c.retryable))
	// 按固定枚举顺序输出，避免 map 随机序
	for _, cat := range xclassify.Categories() {
		if _, ok := c.retryable[cat]; ok {
			out = append(out, cat)
		}
	}
	return out
}
