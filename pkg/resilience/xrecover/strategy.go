package xrecover

import (
	"context"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xbreaker"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xretry"
)

// DefaultStrategyName 始终存在的兜底策略名
const DefaultStrategyName = "default"

// FallbackFunc 降级函数
//
// cause 为重试耗尽后的最终错误，rc 为本次执行的恢复上下文。
// 返回值会被断言为 Execute 的结果类型，类型不匹配视为降级失败。
type FallbackFunc func(ctx context.Context, cause error, rc *Context) (any, error)

// StrategyConfig 命名恢复策略
type StrategyConfig struct {
	// Retry 重试配置，nil 时使用 xretry.Standard()
	Retry *xretry.Config

	// Breaker 熔断配置，nil 时不启用熔断
	Breaker *xbreaker.Config

	// Fallback 降级函数，nil 时不降级
	Fallback FallbackFunc

	// EnableState 是否自动创建初始检查点
	EnableState bool

	// EnableMetrics 是否记录指标
	EnableMetrics bool
}

// normalize 补全缺省字段，返回副本。
func (s *StrategyConfig) normalize() *StrategyConfig {
	out := *s
	if out.Retry == nil {
		out.Retry = xretry.Standard()
	}
	return &out
}

// defaultStrategy default 策略的出厂配置
func defaultStrategy() *StrategyConfig {
	return &StrategyConfig{
		Retry:         xretry.Standard(),
		EnableState:   true,
		EnableMetrics: true,
	}
}

// AddStrategy 注册或覆盖命名策略
func (m *Manager) AddStrategy(name string, cfg *StrategyConfig) error {
	if m == nil {
		return ErrNilManager
	}
	if name == "" {
		return ErrEmptyStrategyName
	}
	if cfg == nil {
		return ErrNilStrategy
	}

	m.mu.Lock()
	m.strategies[name] = cfg.normalize()
	m.mu.Unlock()
	return nil
}

// RemoveStrategy 删除命名策略，default 不可删除。
func (m *Manager) RemoveStrategy(name string) error {
	if m == nil {
		return ErrNilManager
	}
	if name == DefaultStrategyName {
		return ErrDefaultStrategy
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.strategies[name]; !ok {
		return ErrUnknownStrategy
	}
	delete(m.strategies, name)
	return nil
}

// Strategy 查询命名策略
func (m *Manager) Strategy(name string) (*StrategyConfig, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.strategies[name]
	return cfg, ok
}

// StrategyNames 返回全部策略名
func (m *Manager) StrategyNames() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.strategies))
	for name := range m.strategies {
		names = append(names, name)
	}
	return names
}

// resolveStrategy 解析策略名，未找到时回退 default。
func (m *Manager) resolveStrategy(name string) (string, *StrategyConfig) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cfg, ok := m.strategies[name]; ok {
		return name, cfg
	}
	return DefaultStrategyName, m.strategies[DefaultStrategyName]
}
