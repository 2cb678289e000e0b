package xretry

import "errors"

// 参数校验错误
var (
	// ErrNilRetryer 传入的 Retryer 为 nil
	ErrNilRetryer = errors.New("xretry: retryer cannot be nil")

	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xretry: context cannot be nil")

	// ErrNilFunc 传入的操作函数为 nil
	ErrNilFunc = errors.New("xretry: function cannot be nil")
)

// RetryableError 可重试错误接口
//
// 实现此接口的错误会跳过分类器判定，直接按 Retryable() 的返回值
// 决定是否重试。xbreaker.BreakerError 通过此接口阻止对熔断错误的重试。
type RetryableError interface {
	error
	Retryable() bool
}

// PermanentError 永久性错误（不应重试）
type PermanentError struct {
	Err error
}

// NewPermanentError 创建永久性错误
func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Retryable 永久性错误不可重试
func (e *PermanentError) Retryable() bool {
	return false
}

// TemporaryError 临时性错误（应该重试）
type TemporaryError struct {
	Err error
}

// NewTemporaryError 创建临时性错误
func NewTemporaryError(err error) *TemporaryError {
	return &TemporaryError{Err: err}
}

func (e *TemporaryError) Error() string {
	if e.Err == nil {
		return "temporary error"
	}
	return e.Err.Error()
}

func (e *TemporaryError) Unwrap() error {
	return e.Err
}

// Retryable 临时性错误可重试
func (e *TemporaryError) Retryable() bool {
	return true
}

// retryableOverride 提取错误链上的 Retryable() 标记。
// 返回 (标记值, 是否存在标记)。
func retryableOverride(err error) (bool, bool) {
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable(), true
	}
	return false, false
}
