package xclassify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Classify(t *testing.T) {
	c := New()

	tests := []struct {
		name        string
		err         error
		category    Category
		recoverable bool
		action      Action
	}{
		{"Network", errors.New("connection refused"), CategoryNetwork, true, ActionRetry},
		{"Timeout", errors.New("request timed out"), CategoryTimeout, true, ActionRetry},
		{"RateLimit", errors.New("429 Too Many Requests"), CategoryRateLimit, true, ActionRetry},
		{"Authentication", errors.New("401 Unauthorized"), CategoryAuthentication, false, ActionEscalate},
		{"Authorization", errors.New("403 Forbidden"), CategoryAuthorization, false, ActionEscalate},
		{"Validation", errors.New("schema validation failed"), CategoryValidation, false, ActionEscalate},
		{"Resource", errors.New("user not found"), CategoryResource, true, ActionFallback},
		{"Configuration", errors.New("missing required config key"), CategoryConfiguration, false, ActionEscalate},
		{"System", errors.New("internal server error"), CategorySystem, true, ActionCircuitBreak},
		{"Unknown", errors.New("something odd happened"), CategoryUnknown, true, ActionRetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(tt.err)
			assert.Equal(t, tt.category, cls.Category)
			assert.Equal(t, tt.recoverable, cls.Recoverable)
			assert.Equal(t, tt.action, cls.Action)
			assert.Equal(t, tt.err.Error(), cls.Message)
			assert.NotEmpty(t, cls.Stack)
			assert.False(t, cls.Timestamp.IsZero())
		})
	}
}

func TestClassifier_PriorityDisambiguates(t *testing.T) {
	c := New()

	// "503 system" 同时命中 system 规则的两个子串，仍归为 system
	cls := c.Classify(errors.New("503 system failure"))
	assert.Equal(t, CategorySystem, cls.Category)

	// "connection timed out" 同时命中 network(100) 和 timeout(95)，
	// network 优先级更高
	cls = c.Classify(errors.New("connection timed out"))
	assert.Equal(t, CategoryNetwork, cls.Category)

	// "resource not found" 的 resource 与 "503" 的 system 交叉场景：
	// resource(75) > system(65)
	cls = c.Classify(errors.New("503: resource not found"))
	assert.Equal(t, CategoryResource, cls.Category)
}

func TestClassifier_NilError(t *testing.T) {
	c := New()
	cls := c.Classify(nil)

	assert.Equal(t, CategoryUnknown, cls.Category)
	assert.Equal(t, SeverityMedium, cls.Severity)
	assert.True(t, cls.Recoverable)
	assert.Equal(t, ActionRetry, cls.Action)
	assert.Empty(t, cls.Message)
}

func TestClassifier_AddRemoveReset(t *testing.T) {
	c := New()

	// 高优先级自定义规则覆盖内置网络规则
	c.AddRule(Rule{
		Name:        "custom-network",
		Priority:    200,
		Match:       MatchAny("connection"),
		Category:    CategorySystem,
		Severity:    SeverityCritical,
		Recoverable: false,
		Action:      ActionEscalate,
	})

	cls := c.Classify(errors.New("connection refused"))
	assert.Equal(t, CategorySystem, cls.Category)
	assert.Equal(t, "custom-network", cls.Metadata["rule"])

	require.True(t, c.RemoveRule("custom-network"))
	cls = c.Classify(errors.New("connection refused"))
	assert.Equal(t, CategoryNetwork, cls.Category)

	// Reset 丢弃所有自定义规则，恢复内置集
	c.AddRule(Rule{Name: "tmp", Priority: 1, Match: MatchAny("zzz"), Category: CategorySystem})
	c.Reset()
	assert.Len(t, c.Rules(), len(builtinRules()))
	assert.False(t, c.RemoveRule("tmp"))
}

func TestClassifier_StablePriorityTie(t *testing.T) {
	c := New()

	// 同优先级规则按插入顺序稳定排序
	c.AddRule(Rule{Name: "tie-a", Priority: 50, Match: MatchAny("tiebreak"), Category: CategoryResource})
	c.AddRule(Rule{Name: "tie-b", Priority: 50, Match: MatchAny("tiebreak"), Category: CategorySystem})

	cls := c.Classify(errors.New("tiebreak"))
	assert.Equal(t, "tie-a", cls.Metadata["rule"])
}

func TestClassifier_NilMatchIgnored(t *testing.T) {
	c := New()
	before := len(c.Rules())
	c.AddRule(Rule{Name: "broken", Priority: 999})
	assert.Len(t, c.Rules(), before)
}

func TestCategoriesAndActionsComplete(t *testing.T) {
	assert.Len(t, Categories(), 10)
	assert.Len(t, Actions(), 6)
}
