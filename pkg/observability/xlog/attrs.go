package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key 常量，保持跨组件字段名一致。
const (
	// KeyError 错误字段的标准 key
	KeyError = "error"

	// KeyDuration 耗时字段的标准 key
	KeyDuration = "duration"

	// KeyCount 计数字段的标准 key
	KeyCount = "count"

	// KeyComponent 组件名称字段的标准 key
	KeyComponent = "component"

	// KeyOperation 操作名称字段的标准 key
	KeyOperation = "operation"

	// KeyAttempt 尝试序号字段的标准 key
	KeyAttempt = "attempt"

	// KeyCategory 错误类别字段的标准 key
	KeyCategory = "category"

	// KeyStrategy 策略名称字段的标准 key
	KeyStrategy = "strategy"
)

// Err 构造错误属性，nil 错误产生空属性（会被 slog 忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 构造耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Count 构造计数属性
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Component 构造组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 构造操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Attempt 构造尝试序号属性
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Category 构造错误类别属性
func Category(c string) slog.Attr {
	return slog.String(KeyCategory, c)
}

// Strategy 构造策略名属性
func Strategy(name string) slog.Attr {
	return slog.String(KeyStrategy, name)
}
