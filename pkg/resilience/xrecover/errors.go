package xrecover

import "errors"

// 恢复编排错误
var (
	// ErrNilManager 传入的 Manager 为 nil
	ErrNilManager = errors.New("xrecover: manager cannot be nil")

	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xrecover: context cannot be nil")

	// ErrNilFunc 传入的操作函数为 nil
	ErrNilFunc = errors.New("xrecover: function cannot be nil")

	// ErrEmptyOperationID 操作 ID 为空
	ErrEmptyOperationID = errors.New("xrecover: operation id cannot be empty")

	// ErrNilStrategy 传入的策略配置为 nil
	ErrNilStrategy = errors.New("xrecover: strategy cannot be nil")

	// ErrEmptyStrategyName 策略名为空
	ErrEmptyStrategyName = errors.New("xrecover: strategy name cannot be empty")

	// ErrDefaultStrategy default 策略不可删除
	ErrDefaultStrategy = errors.New("xrecover: default strategy cannot be removed")

	// ErrUnknownStrategy 策略不存在
	ErrUnknownStrategy = errors.New("xrecover: unknown strategy")

	// ErrFallbackType 降级函数返回值与期望类型不匹配
	ErrFallbackType = errors.New("xrecover: fallback value has wrong type")

	// ErrShuttingDown Manager 正在关闭，不再接受新操作
	ErrShuttingDown = errors.New("xrecover: manager is shutting down")

	// ErrShutdownTimeout 关闭排空超时，仍有在途操作
	ErrShutdownTimeout = errors.New("xrecover: shutdown drain timed out")
)
