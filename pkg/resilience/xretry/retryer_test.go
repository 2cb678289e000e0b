package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
)

// fastConfig 无延迟配置，测试用
func fastConfig(maxAttempts int) *Config {
	return NewConfig(
		WithStrategy(StrategyFixed),
		WithMaxAttempts(maxAttempts),
		WithBaseDelay(0),
		WithJitter(false),
	)
}

func TestRetryer_Do(t *testing.T) {
	t.Run("SuccessOnFirstAttempt", func(t *testing.T) {
		r := NewRetryer()
		var attempts int

		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return nil
		}, fastConfig(3))

		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("SuccessAfterRetry", func(t *testing.T) {
		r := NewRetryer()
		var attempts int

		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("connection refused")
			}
			return nil
		}, fastConfig(3))

		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("FailAfterMaxAttempts", func(t *testing.T) {
		r := NewRetryer()
		var attempts int

		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return errors.New("connection refused")
		}, fastConfig(3))

		assert.Error(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("NonRetryableCategoryStops", func(t *testing.T) {
		r := NewRetryer()
		var attempts int

		// validation 类别不在默认可重试集合中
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return errors.New("schema validation failed")
		}, fastConfig(5))

		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("PermanentErrorNoRetry", func(t *testing.T) {
		r := NewRetryer()
		var attempts int

		// 消息本身会被分类为可重试的 network，但 Retryable() 标记优先
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return NewPermanentError(errors.New("connection refused"))
		}, fastConfig(5))

		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("TemporaryErrorOverridesCategory", func(t *testing.T) {
		r := NewRetryer()
		var attempts int

		// validation 类别不可重试，但 TemporaryError 标记优先
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return NewTemporaryError(errors.New("schema validation failed"))
		}, fastConfig(3))

		assert.Error(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("ContextCancelStops", func(t *testing.T) {
		r := NewRetryer()
		ctx, cancel := context.WithCancel(context.Background())
		var attempts int

		cfg := NewConfig(
			WithStrategy(StrategyFixed),
			WithMaxAttempts(10),
			WithBaseDelay(50*time.Millisecond),
			WithJitter(false),
		)
		err := r.Do(ctx, func(ctx context.Context) error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errors.New("connection refused")
		}, cfg)

		assert.Error(t, err)
		assert.Less(t, attempts, 10)
	})

	t.Run("NilGuards", func(t *testing.T) {
		var nilR *Retryer
		assert.ErrorIs(t, nilR.Do(context.Background(), func(ctx context.Context) error { return nil }, nil), ErrNilRetryer)

		r := NewRetryer()
		//nolint:staticcheck // 刻意传入 nil ctx 验证防御
		assert.ErrorIs(t, r.Do(nil, func(ctx context.Context) error { return nil }, nil), ErrNilContext)
		assert.ErrorIs(t, r.Do(context.Background(), nil, nil), ErrNilFunc)
	})
}

func TestDoWithResult(t *testing.T) {
	t.Run("ReturnsValue", func(t *testing.T) {
		r := NewRetryer()
		var attempts int

		got, err := DoWithResult(context.Background(), r, func(ctx context.Context) (string, error) {
			attempts++
			if attempts < 2 {
				return "", errors.New("request timed out")
			}
			return "ok", nil
		}, fastConfig(3))

		assert.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 2, attempts)
	})

	t.Run("NilRetryer", func(t *testing.T) {
		_, err := DoWithResult[int](context.Background(), nil, func(ctx context.Context) (int, error) {
			return 0, nil
		}, nil)
		assert.ErrorIs(t, err, ErrNilRetryer)
	})
}

func TestRetryer_ShouldRetry(t *testing.T) {
	r := NewRetryer()
	cfg := fastConfig(3)

	assert.True(t, r.ShouldRetry(errors.New("connection refused"), 1, cfg))
	assert.True(t, r.ShouldRetry(errors.New("connection refused"), 2, cfg))
	// attempt 达到上限
	assert.False(t, r.ShouldRetry(errors.New("connection refused"), 3, cfg))
	// 类别不可重试
	assert.False(t, r.ShouldRetry(errors.New("403 forbidden"), 1, cfg))
	// nil 错误
	assert.False(t, r.ShouldRetry(nil, 1, cfg))
}

func TestRetryer_OnRetryCallback(t *testing.T) {
	var seen []int
	r := NewRetryer(WithOnRetry(func(attempt int, err error) {
		seen = append(seen, attempt)
	}))

	var attempts int
	_ = r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("connection refused")
	}, fastConfig(3))

	assert.Equal(t, 3, attempts)
	// 每次重试前至少回调一次，attempt 为 1-based
	assert.GreaterOrEqual(t, len(seen), 2)
	assert.Equal(t, []int{1, 2}, seen[:2])
}

func TestRetryer_CustomClassifier(t *testing.T) {
	c := xclassify.New()
	c.AddRule(xclassify.Rule{
		Name:        "always-validation",
		Priority:    1000,
		Match:       xclassify.MatchAny(""),
		Category:    xclassify.CategoryValidation,
		Recoverable: false,
		Action:      xclassify.ActionEscalate,
	})
	r := NewRetryer(WithClassifier(c))

	var attempts int
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("connection refused")
	}, fastConfig(5))

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Same(t, c, r.Classifier())
}

func TestPresets(t *testing.T) {
	assert.Equal(t, 5, Aggressive().MaxAttempts())
	assert.Equal(t, 3, Standard().MaxAttempts())
	assert.Equal(t, 2, Conservative().MaxAttempts())
	assert.Equal(t, StrategyLinear, Conservative().Strategy())
	assert.False(t, Conservative().AllowsCategory(xclassify.CategorySystem))
	assert.Equal(t, StrategyFixed, Quick().Strategy())
	assert.False(t, Quick().Jitter())
}
