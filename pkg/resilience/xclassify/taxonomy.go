package xclassify

import "time"

// Category 错误类别
type Category string

// 错误类别常量
const (
	// CategoryNetwork 网络错误（连接拒绝、DNS 失败等）
	CategoryNetwork Category = "network"

	// CategoryTimeout 超时错误
	CategoryTimeout Category = "timeout"

	// CategoryRateLimit 限流错误
	CategoryRateLimit Category = "rate_limit"

	// CategoryAuthentication 认证错误（身份无效）
	CategoryAuthentication Category = "authentication"

	// CategoryAuthorization 授权错误（权限不足）
	CategoryAuthorization Category = "authorization"

	// CategoryValidation 校验错误（入参/数据不合法）
	CategoryValidation Category = "validation"

	// CategoryResource 资源错误（目标不存在等）
	CategoryResource Category = "resource"

	// CategoryConfiguration 配置错误
	CategoryConfiguration Category = "configuration"

	// CategorySystem 系统内部错误
	CategorySystem Category = "system"

	// CategoryUnknown 未知错误（兜底类别）
	CategoryUnknown Category = "unknown"
)

// Categories 返回全部错误类别。
// 顺序固定，供统计聚合预置零值使用。
func Categories() []Category {
	return []Category{
		CategoryNetwork,
		CategoryTimeout,
		CategoryRateLimit,
		CategoryAuthentication,
		CategoryAuthorization,
		CategoryValidation,
		CategoryResource,
		CategoryConfiguration,
		CategorySystem,
		CategoryUnknown,
	}
}

// Severity 错误严重程度
type Severity string

// 严重程度常量
const (
	// SeverityLow 低
	SeverityLow Severity = "low"

	// SeverityMedium 中
	SeverityMedium Severity = "medium"

	// SeverityHigh 高
	SeverityHigh Severity = "high"

	// SeverityCritical 致命
	SeverityCritical Severity = "critical"
)

// Severities 返回全部严重程度。
// 顺序固定，供统计聚合预置零值使用。
func Severities() []Severity {
	return []Severity{
		SeverityLow,
		SeverityMedium,
		SeverityHigh,
		SeverityCritical,
	}
}

// Action 建议的恢复动作
type Action string

// 恢复动作常量
const (
	// ActionRetry 重试
	ActionRetry Action = "retry"

	// ActionFallback 降级
	ActionFallback Action = "fallback"

	// ActionCircuitBreak 熔断
	ActionCircuitBreak Action = "circuit_break"

	// ActionRollback 回滚
	ActionRollback Action = "rollback"

	// ActionEscalate 上报
	ActionEscalate Action = "escalate"

	// ActionIgnore 忽略
	ActionIgnore Action = "ignore"
)

// Actions 返回全部恢复动作。
// 顺序固定，供统计聚合预置零值使用。
func Actions() []Action {
	return []Action{
		ActionRetry,
		ActionFallback,
		ActionCircuitBreak,
		ActionRollback,
		ActionEscalate,
		ActionIgnore,
	}
}

// Classification 一次分类的结果
//
// 每次 Classify 调用都产生全新的 Classification，产生后不再修改。
// Message/Stack/Timestamp 总是被填充。
type Classification struct {
	// Category 错误类别
	Category Category

	// Severity 严重程度
	Severity Severity

	// Recoverable 是否可恢复
	Recoverable bool

	// Action 建议的恢复动作
	Action Action

	// Message 原始错误消息
	Message string

	// Stack 分类发生时的调用栈
	Stack string

	// Timestamp 分类时间
	Timestamp time.Time

	// Metadata 附加元数据（如命中的规则名）
	Metadata map[string]string
}
