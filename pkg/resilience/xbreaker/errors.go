package xbreaker

import (
	"errors"
	"fmt"
)

// 熔断器错误
var (
	// ErrOpenState 熔断器处于打开状态，请求被拒绝
	ErrOpenState = errors.New("xbreaker: circuit breaker is open")

	// ErrNilBreaker 传入的 Breaker 为 nil
	ErrNilBreaker = errors.New("xbreaker: breaker cannot be nil")

	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xbreaker: context cannot be nil")

	// ErrNilFunc 传入的操作函数为 nil
	ErrNilFunc = errors.New("xbreaker: function cannot be nil")
)

// BreakerError 熔断拒绝错误
//
// 包装 ErrOpenState 并携带熔断器名称与拒绝时状态，
// Retryable() 返回 false，与 xretry 组合时不会被重试
// （熔断器打开说明下游不可用，重试只会空转退避）。
type BreakerError struct {
	Err   error  // 原始错误（ErrOpenState）
	Name  string // 熔断器名称，用于日志和监控
	State State  // 拒绝发生时的状态
}

// Error 实现 error 接口
func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

// Unwrap 实现 errors.Unwrap 接口
func (e *BreakerError) Unwrap() error {
	return e.Err
}

// Retryable 实现 xretry.RetryableError 接口，熔断错误不可重试。
func (e *BreakerError) Retryable() bool {
	return false
}

// IsOpen 检查错误是否是熔断拒绝
//
// 可用于判断是否应该快速失败或走降级逻辑。
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpenState)
}
