package xclassify

import "strings"

// MatchFunc 规则匹配谓词
//
// 入参是小写化后的错误消息，返回是否命中。
// 谓词必须是纯函数，不得持有可变状态。
type MatchFunc func(msg string) bool

// Rule 一条分类规则
type Rule struct {
	// Name 规则名，用于 RemoveRule 和分类元数据
	Name string

	// Priority 优先级，数值越大越先匹配
	Priority int

	// Match 匹配谓词
	Match MatchFunc

	// Category 命中后的错误类别
	Category Category

	// Severity 命中后的严重程度
	Severity Severity

	// Recoverable 命中后的可恢复性
	Recoverable bool

	// Action 命中后的建议动作
	Action Action
}

// MatchAny 构造子串匹配谓词，任一子串命中即命中。
//
// 子串在构造时统一转为小写，与 Classify 的小写化消息保持一致。
func MatchAny(substrings ...string) MatchFunc {
	lowered := make([]string, len(substrings))
	for i, s := range substrings {
		lowered[i] = strings.ToLower(s)
	}
	return func(msg string) bool {
		for _, s := range lowered {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

// builtinRules 返回内置规则集。
//
// 优先级阶梯：network > timeout > rate_limit > authentication ≈
// authorization > validation > resource > configuration > system。
// 子串匹配刻意宽松，依赖优先级消除多规则同时命中时的歧义，
// 调整阶梯前必须确认所有交叉命中场景。
func builtinRules() []Rule {
	return []Rule{
		{
			Name:        "network",
			Priority:    100,
			Match:       MatchAny("network", "connection", "econnrefused", "enotfound", "socket", "dns"),
			Category:    CategoryNetwork,
			Severity:    SeverityHigh,
			Recoverable: true,
			Action:      ActionRetry,
		},
		{
			Name:        "timeout",
			Priority:    95,
			Match:       MatchAny("timeout", "timed out", "etimedout", "deadline exceeded"),
			Category:    CategoryTimeout,
			Severity:    SeverityMedium,
			Recoverable: true,
			Action:      ActionRetry,
		},
		{
			Name:        "rate_limit",
			Priority:    90,
			Match:       MatchAny("rate limit", "too many requests", "429", "quota exceeded"),
			Category:    CategoryRateLimit,
			Severity:    SeverityMedium,
			Recoverable: true,
			Action:      ActionRetry,
		},
		{
			Name:        "authentication",
			Priority:    85,
			Match:       MatchAny("unauthorized", "authentication", "invalid token", "401"),
			Category:    CategoryAuthentication,
			Severity:    SeverityHigh,
			Recoverable: false,
			Action:      ActionEscalate,
		},
		{
			// 与 authentication 仅差一级，依赖稳定排序保持先认证后授权
			Name:        "authorization",
			Priority:    84,
			Match:       MatchAny("forbidden", "authorization", "permission denied", "access denied", "403"),
			Category:    CategoryAuthorization,
			Severity:    SeverityHigh,
			Recoverable: false,
			Action:      ActionEscalate,
		},
		{
			Name:        "validation",
			Priority:    80,
			Match:       MatchAny("validation", "invalid", "schema", "malformed", "400"),
			Category:    CategoryValidation,
			Severity:    SeverityMedium,
			Recoverable: false,
			Action:      ActionEscalate,
		},
		{
			Name:        "resource",
			Priority:    75,
			Match:       MatchAny("not found", "404", "resource", "no such"),
			Category:    CategoryResource,
			Severity:    SeverityMedium,
			Recoverable: true,
			Action:      ActionFallback,
		},
		{
			Name:        "configuration",
			Priority:    70,
			Match:       MatchAny("configuration", "config", "missing required", "env var"),
			Category:    CategoryConfiguration,
			Severity:    SeverityHigh,
			Recoverable: false,
			Action:      ActionEscalate,
		},
		{
			Name:        "system",
			Priority:    65,
			Match:       MatchAny("internal server", "system", "panic", "500", "502", "503"),
			Category:    CategorySystem,
			Severity:    SeverityCritical,
			Recoverable: true,
			Action:      ActionCircuitBreak,
		},
	}
}
