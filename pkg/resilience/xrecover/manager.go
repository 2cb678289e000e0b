package xrecover

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/observability/xlog"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/observability/xmetrics"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xbreaker"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/state/xcheckpoint"
)

// 关闭排空参数
const (
	defaultDrainTimeout = 30 * time.Second
	drainPollInterval   = 10 * time.Millisecond
)

// Manager 恢复编排器，并发安全。
type Manager struct {
	classifier  *xclassify.Classifier
	checkpoints *xcheckpoint.Manager
	metrics     *xmetrics.Collector
	ownsMetrics bool
	logger      xlog.Logger
	now         func() time.Time

	drainTimeout time.Duration

	mu           sync.RWMutex
	strategies   map[string]*StrategyConfig
	breakers     map[string]*xbreaker.Breaker
	inflight     map[string]int
	subscribers  map[uint64]EventFunc
	nextSubID    uint64
	shuttingDown bool
}

// Option 编排器选项
type Option func(*Manager)

// WithClassifier 注入错误分类器。
func WithClassifier(c *xclassify.Classifier) Option {
	return func(m *Manager) {
		if c != nil {
			m.classifier = c
		}
	}
}

// WithCheckpoints 注入检查点管理器。
func WithCheckpoints(cm *xcheckpoint.Manager) Option {
	return func(m *Manager) {
		if cm != nil {
			m.checkpoints = cm
		}
	}
}

// WithMetrics 注入指标收集器。
// 注入的收集器由调用方负责 Destroy；Manager 只销毁自建的收集器。
func WithMetrics(c *xmetrics.Collector) Option {
	return func(m *Manager) {
		if c != nil {
			m.metrics = c
			m.ownsMetrics = false
		}
	}
}

// WithLogger 注入日志，默认 Nop。
func WithLogger(l xlog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock 注入时钟，测试用。
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithDrainTimeout 设置 Shutdown 排空在途操作的最长等待时间，非正值被忽略。
func WithDrainTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.drainTimeout = d
		}
	}
}

// New 创建恢复编排器
//
// 未注入的协作组件使用默认实现；default 策略始终存在。
// 自建的指标收集器持有后台协程，用完调用 Shutdown 释放。
func New(opts ...Option) *Manager {
	m := &Manager{
		logger:       xlog.Nop(),
		now:          time.Now,
		drainTimeout: defaultDrainTimeout,
		strategies:   make(map[string]*StrategyConfig),
		breakers:     make(map[string]*xbreaker.Breaker),
		inflight:     make(map[string]int),
		subscribers:  make(map[uint64]EventFunc),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.classifier == nil {
		m.classifier = xclassify.New()
	}
	if m.checkpoints == nil {
		m.checkpoints = xcheckpoint.NewManager()
	}
	if m.metrics == nil {
		m.ownsMetrics = true
		m.metrics = xmetrics.NewCollector(
			xmetrics.WithClock(m.now),
			xmetrics.WithOnCleaned(func(r xmetrics.CleanupReport) {
				m.publish(Event{
					Type: EventMetricsCleaned,
					Meta: map[string]string{"purged": strconv.Itoa(r.Total())},
				})
			}),
		)
	}
	m.strategies[DefaultStrategyName] = defaultStrategy()
	return m
}

// NewDefault 使用全默认配置创建恢复编排器
func NewDefault() *Manager {
	return New()
}

// Classifier 返回错误分类器
func (m *Manager) Classifier() *xclassify.Classifier {
	return m.classifier
}

// Checkpoints 返回检查点管理器
func (m *Manager) Checkpoints() *xcheckpoint.Manager {
	return m.checkpoints
}

// Metrics 返回指标收集器
func (m *Manager) Metrics() *xmetrics.Collector {
	return m.metrics
}

// Execute 执行一次受管操作
//
// 包级泛型函数而非方法，因为 Go 不支持方法的类型参数。
// 不返回裸 error：所有失败都编码在 Result 中，且至少产生一条尝试记录。
// strategy 省略或未注册时使用 default 策略。
func Execute[T any](ctx context.Context, m *Manager, opID string, fn func(ctx context.Context) (T, error), strategy ...string) *Result[T] {
	if m == nil {
		return guardResult[T](opID, ErrNilManager, time.Now)
	}
	if ctx == nil {
		return guardResult[T](opID, ErrNilContext, m.now)
	}
	if fn == nil {
		return guardResult[T](opID, ErrNilFunc, m.now)
	}
	if opID == "" {
		return guardResult[T](opID, ErrEmptyOperationID, m.now)
	}

	name := DefaultStrategyName
	if len(strategy) > 0 && strategy[0] != "" {
		name = strategy[0]
	}
	resolvedName, cfg := m.resolveStrategy(name)

	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return guardResult[T](opID, ErrShuttingDown, m.now)
	}
	m.inflight[opID]++
	m.mu.Unlock()
	defer m.releaseInflight(opID)

	rc := &Context{
		OperationID: opID,
		Strategy:    resolvedName,
		StartTime:   m.now(),
		Metadata:    map[string]string{"strategy": resolvedName},
	}

	m.publish(Event{
		Type:        EventRecoveryStarted,
		OperationID: opID,
		Meta:        map[string]string{"strategy": resolvedName},
	})

	if cfg.EnableState {
		m.createInitialCheckpoint(ctx, rc)
	}

	run := func(ctx context.Context) (T, error) {
		return runAttempts(ctx, m, rc, cfg, opID, fn)
	}

	// 重试循环整体作为熔断器的一次调用：一次 Execute 只向
	// 监控窗口写入一条记录，重试次数不会放大失败计数。
	var value T
	var finalErr error
	if cfg.Breaker != nil {
		value, finalErr = xbreaker.Execute(ctx, m.breakerFor(opID, cfg.Breaker), run)
	} else {
		value, finalErr = run(ctx)
	}
	if finalErr != nil && len(rc.Attempts) == 0 {
		m.recordRejected(ctx, rc, cfg, opID, finalErr)
	}

	success := finalErr == nil
	if !success && cfg.Fallback != nil && ctx.Err() == nil && m.classifier.Classify(finalErr).Recoverable {
		value, finalErr = runFallback[T](ctx, m, rc, cfg, opID, finalErr)
		success = finalErr == nil
	}

	res := &Result[T]{
		Success:  success,
		Value:    value,
		Err:      finalErr,
		Attempts: rc.Attempts,
		Duration: m.now().Sub(rc.StartTime),
		Context:  rc,
	}
	if n := len(rc.Attempts); n > 0 {
		res.Action = rc.Attempts[n-1].Action
	}

	m.finish(ctx, rc, cfg, opID, res.Success, res.Action, res.Duration)
	return res
}

// runAttempts 重试循环：失败经分类器判定，可恢复且类别允许时退避重试。
func runAttempts[T any](ctx context.Context, m *Manager, rc *Context, cfg *StrategyConfig, opID string, fn func(context.Context) (T, error)) (T, error) {
	var value T
	var finalErr error

	maxAttempts := cfg.Retry.MaxAttempts()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := m.now()
		v, err := fn(ctx)
		dur := m.now().Sub(start)

		if err == nil {
			rc.recordAttempt(Attempt{
				Timestamp: start,
				Duration:  dur,
				Success:   true,
				Action:    xclassify.ActionRetry,
			})
			return v, nil
		}

		finalErr = err
		rc.LastErr = err
		cls := m.classifier.Classify(err)
		action := cls.Action
		rejected := xbreaker.IsOpen(err)
		if rejected {
			action = xclassify.ActionCircuitBreak
		}

		rc.recordAttempt(Attempt{
			Timestamp: start,
			Duration:  dur,
			Err:       err,
			Action:    action,
			Meta: map[string]string{
				"category": string(cls.Category),
				"severity": string(cls.Severity),
			},
		})
		if cfg.EnableMetrics {
			m.metrics.RecordError(xmetrics.ErrorRecord{
				Category:  cls.Category,
				Severity:  cls.Severity,
				Op:        opID,
				Timestamp: start,
			})
		}
		m.logger.Warn(ctx, "attempt failed",
			xlog.Operation(opID),
			xlog.Attempt(attempt),
			xlog.Category(string(cls.Category)),
			xlog.Err(err),
		)

		// 熔断打开说明下游不可用，继续重试只会空转
		if rejected {
			break
		}
		if attempt >= maxAttempts {
			break
		}
		if !cls.Recoverable || !cfg.Retry.AllowsCategory(cls.Category) {
			break
		}
		if serr := sleepCtx(ctx, cfg.Retry.Delay(attempt)); serr != nil {
			finalErr = serr
			break
		}
	}
	return value, finalErr
}

// recordRejected 补一条尝试记录
//
// 熔断拒绝（或执行前 ctx 已取消）时重试循环未运行，操作函数
// 没有被调用；为维持"每次调用至少一条尝试记录"的约定，在这里
// 按最终错误补记一条。
func (m *Manager) recordRejected(ctx context.Context, rc *Context, cfg *StrategyConfig, opID string, err error) {
	rc.LastErr = err
	cls := m.classifier.Classify(err)
	action := cls.Action
	if xbreaker.IsOpen(err) {
		action = xclassify.ActionCircuitBreak
	}

	ts := m.now()
	rc.recordAttempt(Attempt{
		Timestamp: ts,
		Err:       err,
		Action:    action,
		Meta: map[string]string{
			"category": string(cls.Category),
			"severity": string(cls.Severity),
		},
	})
	if cfg.EnableMetrics {
		m.metrics.RecordError(xmetrics.ErrorRecord{
			Category:  cls.Category,
			Severity:  cls.Severity,
			Op:        opID,
			Timestamp: ts,
		})
	}
	m.logger.Warn(ctx, "operation rejected",
		xlog.Operation(opID),
		xlog.Category(string(cls.Category)),
		xlog.Err(err),
	)
}

// runFallback 执行降级函数并追加降级尝试记录。
func runFallback[T any](ctx context.Context, m *Manager, rc *Context, cfg *StrategyConfig, opID string, cause error) (T, error) {
	var value T
	start := m.now()
	raw, err := cfg.Fallback(ctx, cause, rc)
	dur := m.now().Sub(start)

	if err == nil {
		switch v := raw.(type) {
		case nil:
			// 降级允许返回空值，使用零值
		case T:
			value = v
		default:
			err = ErrFallbackType
		}
	}

	rc.recordAttempt(Attempt{
		Timestamp: start,
		Duration:  dur,
		Success:   err == nil,
		Err:       err,
		Action:    xclassify.ActionFallback,
	})
	m.publish(Event{
		Type:        EventFallbackExecuted,
		OperationID: opID,
		Meta:        map[string]string{"success": strconv.FormatBool(err == nil)},
	})
	m.logger.Info(ctx, "fallback executed",
		xlog.Operation(opID),
		xlog.Err(err),
	)
	return value, err
}

// finish 收尾：记录指标、发布结果事件、写日志。
func (m *Manager) finish(ctx context.Context, rc *Context, cfg *StrategyConfig, opID string, success bool, action xclassify.Action, duration time.Duration) {
	if cfg.EnableMetrics {
		m.metrics.RecordOperation(xmetrics.OperationRecord{
			ID:        opID + "-" + strconv.FormatInt(rc.StartTime.UnixNano(), 10),
			Op:        opID,
			Success:   success,
			Duration:  duration,
			Timestamp: rc.StartTime,
			Meta:      map[string]string{"strategy": rc.Strategy},
		})
		// 发生过失败才算一次恢复流程
		if rc.LastErr != nil {
			m.metrics.RecordRecovery(xmetrics.RecoveryRecord{
				Op:        opID,
				Action:    action,
				Success:   success,
				Duration:  duration,
				Attempts:  len(rc.Attempts),
				Timestamp: rc.StartTime,
			})
		}
	}

	evt := EventRecoveryFailure
	if success {
		evt = EventRecoverySuccess
	}
	m.publish(Event{
		Type:        evt,
		OperationID: opID,
		Meta: map[string]string{
			"attempts": strconv.Itoa(len(rc.Attempts)),
			"duration": duration.String(),
		},
	})

	if success {
		m.logger.Info(ctx, "operation completed",
			xlog.Operation(opID),
			xlog.Count(len(rc.Attempts)),
			xlog.Duration(duration),
		)
	} else {
		m.logger.Error(ctx, "operation failed",
			xlog.Operation(opID),
			xlog.Count(len(rc.Attempts)),
			xlog.Duration(duration),
			xlog.Err(rc.LastErr),
		)
	}
}

// guardResult 构造入参防御失败的 Result，同样保证至少一条尝试记录。
func guardResult[T any](opID string, err error, now func() time.Time) *Result[T] {
	ts := now()
	rc := &Context{
		OperationID: opID,
		StartTime:   ts,
		LastErr:     err,
	}
	rc.recordAttempt(Attempt{
		Timestamp: ts,
		Err:       err,
		Action:    xclassify.ActionEscalate,
	})
	return &Result[T]{
		Err:      err,
		Attempts: rc.Attempts,
		Action:   xclassify.ActionEscalate,
		Context:  rc,
	}
}

// createInitialCheckpoint 执行前的自动检查点。
// 创建失败只记日志，不阻断操作执行。
func (m *Manager) createInitialCheckpoint(ctx context.Context, rc *Context) {
	cp, err := m.checkpoints.Create(rc.OperationID, rc.Metadata, "auto: pre-execution snapshot")
	if err != nil {
		m.logger.Warn(ctx, "initial checkpoint failed",
			xlog.Operation(rc.OperationID),
			xlog.Err(err),
		)
		return
	}
	rc.Checkpoints = append(rc.Checkpoints, cp.ID)
	m.publish(Event{
		Type:        EventCheckpointCreated,
		OperationID: rc.OperationID,
		Meta:        map[string]string{"checkpoint": cp.ID},
	})
}

// breakerFor 按操作 ID 惰性创建熔断器
func (m *Manager) breakerFor(opID string, cfg *xbreaker.Config) *xbreaker.Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.breakers[opID]; ok {
		return b
	}
	b := xbreaker.New(opID, cfg,
		xbreaker.WithClock(m.now),
		xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State) {
			m.publish(Event{
				Type:        circuitEvent(to),
				OperationID: name,
				Meta: map[string]string{
					"from": from.String(),
					"to":   to.String(),
				},
			})
		}),
	)
	m.breakers[opID] = b
	return b
}

// circuitEvent 状态转换对应的事件类型
func circuitEvent(to xbreaker.State) EventType {
	switch to {
	case xbreaker.StateOpen:
		return EventCircuitOpened
	case xbreaker.StateHalfOpen:
		return EventCircuitHalfOpen
	default:
		return EventCircuitClosed
	}
}

// releaseInflight 归还在途计数
func (m *Manager) releaseInflight(opID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[opID] <= 1 {
		delete(m.inflight, opID)
	} else {
		m.inflight[opID]--
	}
}

// inflightCount 当前在途操作数
func (m *Manager) inflightCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.inflight {
		total += n
	}
	return total
}

// sleepCtx 可取消的睡眠
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CreateCheckpoint 为操作创建检查点并发布事件
func (m *Manager) CreateCheckpoint(opID string, state any, description string) (*xcheckpoint.Checkpoint, error) {
	if m == nil {
		return nil, ErrNilManager
	}
	cp, err := m.checkpoints.Create(opID, state, description)
	if err != nil {
		return nil, err
	}
	m.publish(Event{
		Type:        EventCheckpointCreated,
		OperationID: opID,
		Meta:        map[string]string{"checkpoint": cp.ID},
	})
	return cp, nil
}

// RollbackToCheckpoint 回滚到指定检查点并发布回滚事件
func (m *Manager) RollbackToCheckpoint(id string) (any, error) {
	if m == nil {
		return nil, ErrNilManager
	}
	m.publish(Event{
		Type: EventRollbackStarted,
		Meta: map[string]string{"checkpoint": id},
	})

	state, err := m.checkpoints.Rollback(id)
	if err != nil {
		m.publish(Event{
			Type: EventRollbackFailed,
			Meta: map[string]string{"checkpoint": id, "error": err.Error()},
		})
		return nil, err
	}
	m.publish(Event{
		Type: EventRollbackCompleted,
		Meta: map[string]string{"checkpoint": id},
	})
	return state, nil
}

// ExportMetrics 导出指标快照
func (m *Manager) ExportMetrics() ([]byte, error) {
	if m == nil {
		return nil, ErrNilManager
	}
	return m.metrics.Export()
}

// ImportMetrics 导入指标快照并发布事件
func (m *Manager) ImportMetrics(data []byte) error {
	if m == nil {
		return ErrNilManager
	}
	if err := m.metrics.Import(data); err != nil {
		return err
	}
	m.publish(Event{Type: EventMetricsImported})
	return nil
}

// ManagerStats 编排器统计快照
type ManagerStats struct {
	// Metrics 保留窗口内的指标聚合
	Metrics xmetrics.Stats

	// Checkpoints 检查点统计
	Checkpoints xcheckpoint.Stats

	// Breakers 按操作 ID 的熔断器统计
	Breakers map[string]xbreaker.Stats

	// Strategies 已注册的策略名
	Strategies []string

	// InFlight 在途操作数
	InFlight int
}

// Stats 聚合各协作组件的统计
func (m *Manager) Stats() ManagerStats {
	if m == nil {
		return ManagerStats{}
	}

	st := ManagerStats{
		Metrics:     m.metrics.Stats(),
		Checkpoints: m.checkpoints.Stats(),
		Breakers:    make(map[string]xbreaker.Stats),
		Strategies:  m.StrategyNames(),
	}

	m.mu.RLock()
	for name, b := range m.breakers {
		st.Breakers[name] = b.Stats()
	}
	for _, n := range m.inflight {
		st.InFlight += n
	}
	m.mu.RUnlock()
	return st
}

// HealthState 健康状态
type HealthState string

// 健康状态常量
const (
	// HealthHealthy 成功率达标
	HealthHealthy HealthState = "healthy"

	// HealthDegraded 成功率低于阈值
	HealthDegraded HealthState = "degraded"

	// HealthUnhealthy 健康检查自身失败
	HealthUnhealthy HealthState = "unhealthy"
)

// healthyRateThreshold 健康判定的成功率阈值
const healthyRateThreshold = 0.8

// Health 健康检查结果
type Health struct {
	// State 总体状态
	State HealthState

	// SuccessRate 保留窗口内的操作成功率
	SuccessRate float64

	// BreakerStates 按操作 ID 的熔断器状态
	BreakerStates map[string]string

	// InFlight 在途操作数
	InFlight int

	// ActiveOperations 在途操作 ID
	ActiveOperations []string

	// Checkpoints 当前检查点总数
	Checkpoints int
}

// CheckHealth 返回编排器健康状态
//
// 内部 panic 被吸收并报告为 unhealthy，健康检查自身不会炸掉调用方。
func (m *Manager) CheckHealth() (h Health) {
	defer func() {
		if r := recover(); r != nil {
			h = Health{State: HealthUnhealthy}
		}
	}()

	if m == nil {
		return Health{State: HealthUnhealthy}
	}

	st := m.metrics.Stats()
	h = Health{
		State:         HealthHealthy,
		SuccessRate:   st.SuccessRate,
		BreakerStates: make(map[string]string),
		Checkpoints:   m.checkpoints.Stats().Total,
	}
	if st.SuccessRate < healthyRateThreshold {
		h.State = HealthDegraded
	}

	m.mu.RLock()
	for name, b := range m.breakers {
		h.BreakerStates[name] = b.State().String()
	}
	for op, n := range m.inflight {
		h.InFlight += n
		h.ActiveOperations = append(h.ActiveOperations, op)
	}
	m.mu.RUnlock()
	return h
}

// Reset 重置全部运行时状态：熔断器、检查点、指标。
// 每个被重置的熔断器和指标收集器各发布一条重置事件。
func (m *Manager) Reset() {
	if m == nil {
		return
	}

	m.mu.RLock()
	breakers := make([]*xbreaker.Breaker, 0, len(m.breakers))
	for _, b := range m.breakers {
		breakers = append(breakers, b)
	}
	m.mu.RUnlock()

	for _, b := range breakers {
		b.Reset()
		m.publish(Event{
			Type:        EventCircuitReset,
			OperationID: b.Name(),
		})
	}

	m.checkpoints.ClearAll()
	m.metrics.Reset()
	m.publish(Event{Type: EventMetricsReset})
}

// Shutdown 协作式关闭
//
// 拒绝新操作后轮询等待在途操作完成；排空超时或 ctx 取消时放弃等待。
// 自建的指标收集器在此释放。
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return ErrNilManager
	}
	if ctx == nil {
		return ErrNilContext
	}

	m.mu.Lock()
	m.shuttingDown = true
	m.mu.Unlock()

	defer func() {
		if m.ownsMetrics {
			m.metrics.Destroy()
		}
	}()

	deadline := time.NewTimer(m.drainTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(drainPollInterval)
	defer poll.Stop()

	for {
		if m.inflightCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrShutdownTimeout
		case <-poll.C:
		}
	}
}
