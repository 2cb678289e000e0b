package xbreaker

import "time"

// Config 熔断器配置
//
// 每个受保护资源一份配置；熔断器自身持有可变运行时状态。
// 通过 NewConfig 构建后不可变。
type Config struct {
	failureThreshold  int
	recoveryTimeout   time.Duration
	monitoringWindow  time.Duration
	minimumThroughput int
}

// ConfigOption 熔断器配置选项
type ConfigOption func(*Config)

// WithFailureThreshold 设置触发熔断的窗口内失败数阈值，最小为 1。
func WithFailureThreshold(n int) ConfigOption {
	return func(c *Config) {
		if n >= 1 {
			c.failureThreshold = n
		}
	}
}

// WithRecoveryTimeout 设置 Open → HalfOpen 的恢复等待时间，非正值被忽略。
func WithRecoveryTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.recoveryTimeout = d
		}
	}
}

// WithMonitoringWindow 设置统计失败率的滑动窗口跨度，非正值被忽略。
func WithMonitoringWindow(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.monitoringWindow = d
		}
	}
}

// WithMinimumThroughput 设置窗口内触发判定所需的最小调用数，最小为 1。
func WithMinimumThroughput(n int) ConfigOption {
	return func(c *Config) {
		if n >= 1 {
			c.minimumThroughput = n
		}
	}
}

// NewConfig 创建熔断器配置
//
// 默认值：
//   - failureThreshold: 5
//   - recoveryTimeout: 30s
//   - monitoringWindow: 60s
//   - minimumThroughput: 10
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		failureThreshold:  5,
		recoveryTimeout:   30 * time.Second,
		monitoringWindow:  60 * time.Second,
		minimumThroughput: 10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FailureThreshold 返回失败数阈值
func (c *Config) FailureThreshold() int {
	return c.failureThreshold
}

// RecoveryTimeout 返回恢复等待时间
func (c *Config) RecoveryTimeout() time.Duration {
	return c.recoveryTimeout
}

// MonitoringWindow 返回监控窗口跨度
func (c *Config) MonitoringWindow() time.Duration {
	return c.monitoringWindow
}

// MinimumThroughput 返回最小调用数
func (c *Config) MinimumThroughput() int {
	return c.minimumThroughput
}

// 预置熔断配置。

// FastConfig 快速熔断：3 次失败即熔断，窗口 2 分钟，最小吞吐 5。
func FastConfig() *Config {
	return NewConfig(
		WithFailureThreshold(3),
		WithRecoveryTimeout(10*time.Second),
		WithMonitoringWindow(2*time.Minute),
		WithMinimumThroughput(5),
	)
}

// StandardConfig 标准熔断：默认参数。
func StandardConfig() *Config {
	return NewConfig()
}

// ResilientConfig 迟钝熔断：高阈值、大窗口，适合容忍偶发失败的下游。
func ResilientConfig() *Config {
	return NewConfig(
		WithFailureThreshold(10),
		WithRecoveryTimeout(time.Minute),
		WithMonitoringWindow(5*time.Minute),
		WithMinimumThroughput(20),
	)
}
