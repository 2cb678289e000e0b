package xrecover

import "time"

// EventType 恢复事件类型
type EventType string

// 恢复事件类型常量
const (
	// EventRecoveryStarted 一次受管操作开始
	EventRecoveryStarted EventType = "recovery.started"

	// EventRecoverySuccess 操作最终成功（含降级成功）
	EventRecoverySuccess EventType = "recovery.success"

	// EventRecoveryFailure 操作最终失败
	EventRecoveryFailure EventType = "recovery.failure"

	// EventCircuitOpened 熔断器打开
	EventCircuitOpened EventType = "circuit.opened"

	// EventCircuitHalfOpen 熔断器进入半开
	EventCircuitHalfOpen EventType = "circuit.half_open"

	// EventCircuitClosed 熔断器关闭
	EventCircuitClosed EventType = "circuit.closed"

	// EventCircuitReset 熔断器被管理性重置
	EventCircuitReset EventType = "circuit.reset"

	// EventCheckpointCreated 检查点创建
	EventCheckpointCreated EventType = "checkpoint.created"

	// EventRollbackStarted 回滚开始
	EventRollbackStarted EventType = "rollback.started"

	// EventRollbackCompleted 回滚完成
	EventRollbackCompleted EventType = "rollback.completed"

	// EventRollbackFailed 回滚失败
	EventRollbackFailed EventType = "rollback.failed"

	// EventFallbackExecuted 降级函数被执行
	EventFallbackExecuted EventType = "fallback.executed"

	// EventMetricsCleaned 指标保留清理发生
	EventMetricsCleaned EventType = "metrics.cleaned"

	// EventMetricsReset 指标被重置
	EventMetricsReset EventType = "metrics.reset"

	// EventMetricsImported 指标快照被导入
	EventMetricsImported EventType = "metrics.imported"
)

// Event 恢复事件
type Event struct {
	// Type 事件类型
	Type EventType

	// OperationID 关联的操作 ID，非操作级事件为空
	OperationID string

	// Time 事件时间
	Time time.Time

	// Meta 附加信息
	Meta map[string]string
}

// EventFunc 事件订阅回调
type EventFunc func(Event)

// Subscribe 订阅事件，返回退订函数。
// 回调在发布方 goroutine 上同步执行。
func (m *Manager) Subscribe(fn EventFunc) (unsubscribe func()) {
	if m == nil || fn == nil {
		return func() {}
	}

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// publish 分发事件给当前订阅者，回调在锁外执行。
func (m *Manager) publish(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = m.now()
	}

	m.mu.RLock()
	fns := make([]EventFunc, 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}
