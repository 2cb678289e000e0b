package xretry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDelay_Fixed(t *testing.T) {
	cfg := NewConfig(
		WithStrategy(StrategyFixed),
		WithBaseDelay(200*time.Millisecond),
		WithJitter(false),
	)

	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 200*time.Millisecond, CalculateDelay(attempt, cfg))
	}
}

func TestCalculateDelay_Linear(t *testing.T) {
	cfg := NewConfig(
		WithStrategy(StrategyLinear),
		WithBaseDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(false),
	)

	assert.Equal(t, 100*time.Millisecond, CalculateDelay(1, cfg))
	assert.Equal(t, 200*time.Millisecond, CalculateDelay(2, cfg))
	assert.Equal(t, 300*time.Millisecond, CalculateDelay(3, cfg))
	// 截顶
	assert.Equal(t, time.Second, CalculateDelay(100, cfg))
}

func TestCalculateDelay_Exponential(t *testing.T) {
	base := 100 * time.Millisecond
	maxDelay := 30 * time.Second
	multiplier := 2.0
	cfg := NewConfig(
		WithStrategy(StrategyExponential),
		WithBaseDelay(base),
		WithMaxDelay(maxDelay),
		WithMultiplier(multiplier),
		WithJitter(false),
	)

	// 无抖动时 delay(n) == min(b·m^(n-1), maxDelay)
	for n := 1; n <= 12; n++ {
		want := time.Duration(float64(base) * math.Pow(multiplier, float64(n-1)))
		if want > maxDelay {
			want = maxDelay
		}
		assert.Equal(t, want, CalculateDelay(n, cfg), "attempt %d", n)
	}
}

func TestCalculateDelay_ExponentialOverflow(t *testing.T) {
	cfg := NewConfig(
		WithStrategy(StrategyExponential),
		WithBaseDelay(time.Second),
		WithMaxDelay(time.Minute),
		WithJitter(false),
	)

	// math.Pow 溢出为 +Inf 时仍应返回上限
	assert.Equal(t, time.Minute, CalculateDelay(100000, cfg))
}

func TestCalculateDelay_Custom(t *testing.T) {
	cfg := NewConfig(
		WithStrategy(StrategyCustom),
		WithBaseDelay(10*time.Millisecond),
		WithJitter(false),
		WithCustomDelay(func(attempt int, base time.Duration) time.Duration {
			return base * time.Duration(attempt*attempt)
		}),
	)

	assert.Equal(t, 10*time.Millisecond, CalculateDelay(1, cfg))
	assert.Equal(t, 40*time.Millisecond, CalculateDelay(2, cfg))
	assert.Equal(t, 90*time.Millisecond, CalculateDelay(3, cfg))
}

func TestCalculateDelay_CustomWithoutFuncFallsBack(t *testing.T) {
	cfg := NewConfig(WithStrategy(StrategyCustom))
	assert.Equal(t, StrategyExponential, cfg.Strategy())
}

func TestCalculateDelay_Jitter(t *testing.T) {
	base := time.Second
	cfg := NewConfig(
		WithStrategy(StrategyFixed),
		WithBaseDelay(base),
		WithJitter(true),
	)

	lo := time.Duration(float64(base) * (1 - jitterFraction))
	hi := time.Duration(float64(base) * (1 + jitterFraction))
	for i := 0; i < 100; i++ {
		d := CalculateDelay(1, cfg)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
}

func TestCalculateDelay_EdgeCases(t *testing.T) {
	t.Run("NilConfig", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), CalculateDelay(1, nil))
	})

	t.Run("AttemptBelowOne", func(t *testing.T) {
		cfg := NewConfig(
			WithStrategy(StrategyLinear),
			WithBaseDelay(100*time.Millisecond),
			WithJitter(false),
		)
		assert.Equal(t, CalculateDelay(1, cfg), CalculateDelay(0, cfg))
		assert.Equal(t, CalculateDelay(1, cfg), CalculateDelay(-5, cfg))
	})

	t.Run("ZeroBaseDelay", func(t *testing.T) {
		cfg := NewConfig(WithBaseDelay(0), WithJitter(false))
		assert.Equal(t, time.Duration(0), CalculateDelay(3, cfg))
	})
}

func TestNewConfig_Clamping(t *testing.T) {
	cfg := NewConfig(
		WithMaxAttempts(0),
		WithBaseDelay(-time.Second),
		WithMultiplier(0.5),
		WithStrategy(Strategy("bogus")),
	)

	assert.Equal(t, 3, cfg.MaxAttempts())
	assert.Equal(t, 100*time.Millisecond, cfg.BaseDelay())
	assert.Equal(t, 2.0, cfg.Multiplier())
	assert.Equal(t, StrategyExponential, cfg.Strategy())

	// maxDelay 不小于 baseDelay
	cfg = NewConfig(WithBaseDelay(time.Minute), WithMaxDelay(time.Second))
	assert.Equal(t, time.Minute, cfg.MaxDelay())
}
