package xconf

import (
	"fmt"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xbreaker"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xrecover"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xretry"
)

// Apply 将配置文档中的策略注册到恢复编排器
//
// 已存在的同名策略被覆盖，文件中未出现的策略保持不变。
// 任何一个策略不合法时整个 Apply 失败，不做部分应用。
func Apply(f *File, mgr *xrecover.Manager) error {
	if mgr == nil {
		return ErrNilManager
	}
	doc, err := f.Document()
	if err != nil {
		return err
	}
	return ApplyDocument(doc, mgr)
}

// ApplyDocument 将已解析的配置文档注册到恢复编排器
func ApplyDocument(doc *Document, mgr *xrecover.Manager) error {
	if mgr == nil {
		return ErrNilManager
	}
	if doc == nil {
		return nil
	}

	// 先整体校验，再注册
	built := make(map[string]*xrecover.StrategyConfig, len(doc.Strategies))
	for name, spec := range doc.Strategies {
		cfg, err := buildStrategy(name, spec)
		if err != nil {
			return err
		}
		built[name] = cfg
	}
	for name, cfg := range built {
		if err := mgr.AddStrategy(name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// buildStrategy 将文件表示转换为运行时策略配置
func buildStrategy(name string, spec StrategySpec) (*xrecover.StrategyConfig, error) {
	retryCfg, err := buildRetry(name, spec.Retry)
	if err != nil {
		return nil, err
	}

	cfg := &xrecover.StrategyConfig{
		Retry:         retryCfg,
		EnableState:   spec.EnableState,
		EnableMetrics: spec.EnableMetrics,
	}
	if spec.Breaker != nil {
		cfg.Breaker = buildBreaker(spec.Breaker)
	}
	return cfg, nil
}

// buildRetry 转换重试设置，未设置的字段用 xretry 默认值。
func buildRetry(name string, spec RetrySpec) (*xretry.Config, error) {
	opts := make([]xretry.ConfigOption, 0, 8)

	if spec.Strategy != "" {
		s := xretry.Strategy(spec.Strategy)
		switch s {
		case xretry.StrategyFixed, xretry.StrategyLinear, xretry.StrategyExponential:
			opts = append(opts, xretry.WithStrategy(s))
		default:
			// custom 需要代码注入延迟函数，文件无法表达
			return nil, fmt.Errorf("%w: strategy %q has unknown retry strategy %q",
				ErrInvalidStrategy, name, spec.Strategy)
		}
	}
	if spec.MaxAttempts != 0 {
		if spec.MaxAttempts < 1 {
			return nil, fmt.Errorf("%w: strategy %q has maxAttempts %d",
				ErrInvalidStrategy, name, spec.MaxAttempts)
		}
		opts = append(opts, xretry.WithMaxAttempts(spec.MaxAttempts))
	}
	if spec.BaseDelay > 0 {
		opts = append(opts, xretry.WithBaseDelay(spec.BaseDelay))
	}
	if spec.MaxDelay > 0 {
		opts = append(opts, xretry.WithMaxDelay(spec.MaxDelay))
	}
	if spec.Multiplier != 0 {
		if spec.Multiplier < 1 {
			return nil, fmt.Errorf("%w: strategy %q has multiplier %v",
				ErrInvalidStrategy, name, spec.Multiplier)
		}
		opts = append(opts, xretry.WithMultiplier(spec.Multiplier))
	}
	if spec.Jitter != nil {
		opts = append(opts, xretry.WithJitter(*spec.Jitter))
	}
	if len(spec.RetryableCategories) > 0 {
		cats, err := parseCategories(name, spec.RetryableCategories)
		if err != nil {
			return nil, err
		}
		opts = append(opts, xretry.WithRetryableCategories(cats...))
	}
	return xretry.NewConfig(opts...), nil
}

// parseCategories 校验并转换类别名
func parseCategories(name string, raw []string) ([]xclassify.Category, error) {
	known := make(map[xclassify.Category]bool, len(xclassify.Categories()))
	for _, cat := range xclassify.Categories() {
		known[cat] = true
	}

	cats := make([]xclassify.Category, 0, len(raw))
	for _, s := range raw {
		cat := xclassify.Category(s)
		if !known[cat] {
			return nil, fmt.Errorf("%w: strategy %q has unknown category %q",
				ErrInvalidStrategy, name, s)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

// buildBreaker 转换熔断设置，未设置的字段用 xbreaker 默认值。
func buildBreaker(spec *BreakerSpec) *xbreaker.Config {
	opts := make([]xbreaker.ConfigOption, 0, 4)
	if spec.FailureThreshold > 0 {
		opts = append(opts, xbreaker.WithFailureThreshold(spec.FailureThreshold))
	}
	if spec.RecoveryTimeout > 0 {
		opts = append(opts, xbreaker.WithRecoveryTimeout(spec.RecoveryTimeout))
	}
	if spec.MonitoringWindow > 0 {
		opts = append(opts, xbreaker.WithMonitoringWindow(spec.MonitoringWindow))
	}
	if spec.MinimumThroughput > 0 {
		opts = append(opts, xbreaker.WithMinimumThroughput(spec.MinimumThroughput))
	}
	return xbreaker.NewConfig(opts...)
}
