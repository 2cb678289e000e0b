package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// jitterFraction 抖动幅度：±25% 均匀分布
const jitterFraction = 0.25

// CalculateDelay 计算第 attempt 次失败后的退避延迟。
//
// attempt 从 1 开始，小于 1 时按 1 处理。计算顺序：
//  1. 按策略计算基础值
//  2. 截顶到 maxDelay
//  3. 启用抖动时施加 ±25% 均匀扰动
//  4. 下限为 0
func CalculateDelay(attempt int, cfg *Config) time.Duration {
	if cfg == nil {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	var delay float64
	switch cfg.strategy {
	case StrategyFixed:
		delay = float64(cfg.baseDelay)
	case StrategyLinear:
		delay = float64(cfg.baseDelay) * float64(attempt)
	case StrategyExponential:
		delay = float64(cfg.baseDelay) * math.Pow(cfg.multiplier, float64(attempt-1))
	case StrategyCustom:
		delay = float64(cfg.customDelay(attempt, cfg.baseDelay))
	default:
		delay = float64(cfg.baseDelay)
	}

	// NaN 安全的截顶：attempt 极大时 math.Pow 溢出为 +Inf，
	// IEEE 754 中 NaN 的所有比较均返回 false，会绕过上限判断
	if math.IsNaN(delay) || delay >= float64(cfg.maxDelay) {
		delay = float64(cfg.maxDelay)
	}

	if cfg.jitter {
		// 抖动在截顶之后施加，因此实际延迟可能短暂超出 maxDelay 的 25%。
		// 这与抖动的本意一致：打散同步重试风暴比严格上限更重要。
		delay *= 1.0 + (randomFloat64()*2-1)*jitterFraction
	}

	if math.IsNaN(delay) || delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

// Delay 返回第 attempt 次失败后的退避延迟，见 CalculateDelay。
func (c *Config) Delay(attempt int) time.Duration {
	return CalculateDelay(attempt, c)
}

const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

// randomFloat64 返回 [0, 1) 区间的随机数。
// 使用 crypto/rand 确保安全随机性；失败时返回 0.5（即无偏移）。
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}
