package xbreaker

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// State 熔断器状态
type State int

// 熔断器状态常量
const (
	// StateClosed 关闭状态（正常）
	StateClosed State = iota

	// StateHalfOpen 半开状态（探测）
	StateHalfOpen

	// StateOpen 打开状态（熔断）
	StateOpen
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// callRecord 一次调用的记录
type callRecord struct {
	success   bool
	timestamp time.Time
	duration  time.Duration
	err       error
}

// Stats 熔断器统计快照
type Stats struct {
	// State 当前状态
	State State

	// FailureCount 自上次进入 Closed 以来的累计失败数
	FailureCount int

	// TotalCalls 监控窗口内的调用总数
	TotalCalls int

	// FailedCalls 监控窗口内的失败数
	FailedCalls int

	// SuccessRate 窗口内成功率，无调用时为 1（无失败证据视为健康）
	SuccessRate float64

	// LastFailureTime 最近一次失败时间，零值表示从未失败
	LastFailureTime time.Time

	// NextAttemptTime Open 状态下的下次探测时间，非 Open 时为零值
	NextAttemptTime time.Time
}

// StateChangeFunc 状态变化回调
type StateChangeFunc func(name string, from, to State)

// Breaker 熔断器
//
// 每个受保护资源一个实例。并发安全：状态与调用历史由互斥锁保护，
// 受保护操作在锁外执行，回调在锁外触发。
type Breaker struct {
	name          string
	cfg           *Config
	onStateChange StateChangeFunc
	now           func() time.Time

	mu           sync.Mutex
	state        State
	history      []callRecord
	failureCount int
	// lastFailure 零值表示从未失败；Reset 显式清零
	lastFailure time.Time
	nextAttempt time.Time
}

// Option 熔断器选项
type Option func(*Breaker)

// WithOnStateChange 设置状态变化回调，在锁外触发。
func WithOnStateChange(f StateChangeFunc) Option {
	return func(b *Breaker) {
		if f != nil {
			b.onStateChange = f
		}
	}
}

// WithClock 注入时钟，测试用。
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New 创建熔断器，初始状态为 Closed。
// cfg 为 nil 时使用 NewConfig() 的默认配置。
func New(name string, cfg *Config, opts ...Option) *Breaker {
	if cfg == nil {
		cfg = NewConfig()
	}
	b := &Breaker{
		name:  name,
		cfg:   cfg,
		now:   time.Now,
		state: StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name 返回熔断器名称
func (b *Breaker) Name() string {
	return b.name
}

// Config 返回熔断器配置
func (b *Breaker) Config() *Config {
	return b.cfg
}

// State 返回当前状态
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do 执行受熔断器保护的操作
//
// 熔断器处于 Open 且未到恢复时间时，操作不会被调用，
// 返回包装了 ErrOpenState 的 BreakerError。
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if b == nil {
		return ErrNilBreaker
	}
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	_, err := Execute(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Execute 执行受熔断器保护的操作（泛型版本）
//
// 包级函数而非方法，因为 Go 不支持方法的类型参数。
// context 取消时直接返回 context 错误，不计入熔断统计。
func Execute[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if b == nil {
		return zero, ErrNilBreaker
	}
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if err := b.beforeCall(); err != nil {
		return zero, err
	}

	start := b.now()
	result, err := fn(ctx)
	b.record(err == nil, b.now().Sub(start), err)
	return result, err
}

// beforeCall 入口检查：Open 状态下判断是否可进入 HalfOpen。
//
// 转换条件：距最近失败已过 RecoveryTimeout，或从未记录过失败。
// 不满足时返回 BreakerError，受保护操作不会被调用。
func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	if b.state != StateOpen {
		b.mu.Unlock()
		return nil
	}

	if b.lastFailure.IsZero() || b.now().Sub(b.lastFailure) >= b.cfg.recoveryTimeout {
		from, changed := b.transitionLocked(StateHalfOpen)
		b.mu.Unlock()
		if changed {
			b.notify(from, StateHalfOpen)
		}
		return nil
	}

	err := &BreakerError{Err: ErrOpenState, Name: b.name, State: b.state}
	b.mu.Unlock()
	return err
}

// record 记录一次调用结果并驱动状态机。
//
// 失败后的熔断判定不受当前状态约束：HalfOpen 下的失败同样按
// 窗口统计规则评估，只有窗口仍满足阈值+吞吐条件才会推回 Open。
func (b *Breaker) record(success bool, duration time.Duration, err error) {
	now := b.now()

	b.mu.Lock()
	b.history = append(b.history, callRecord{
		success:   success,
		timestamp: now,
		duration:  duration,
		err:       err,
	})
	b.pruneLocked(now)

	var from, to State
	var changed bool
	if success {
		if b.state == StateHalfOpen {
			from, changed = b.transitionLocked(StateClosed)
			to = StateClosed
		}
	} else {
		b.failureCount++
		b.lastFailure = now
		if b.shouldOpenLocked() {
			from, changed = b.transitionLocked(StateOpen)
			to = StateOpen
		}
	}
	b.mu.Unlock()

	if changed {
		b.notify(from, to)
	}
}

// shouldOpenLocked 窗口统计判定：调用数达最小吞吐且失败数达阈值。
func (b *Breaker) shouldOpenLocked() bool {
	total := len(b.history)
	if total < b.cfg.minimumThroughput {
		return false
	}
	failed := 0
	for _, r := range b.history {
		if !r.success {
			failed++
		}
	}
	return failed >= b.cfg.failureThreshold
}

// pruneLocked 裁剪监控窗口之外的调用记录。
func (b *Breaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-b.cfg.monitoringWindow)
	idx := 0
	for idx < len(b.history) && !b.history[idx].timestamp.After(cutoff) {
		idx++
	}
	if idx > 0 {
		b.history = append(b.history[:0], b.history[idx:]...)
	}
}

// transitionLocked 执行状态转换。
// 进入 Closed 时重置 failureCount；进入 Open 时推算下次探测时间。
// 返回转换前状态与是否实际发生转换。
func (b *Breaker) transitionLocked(to State) (State, bool) {
	from := b.state
	if from == to {
		return from, false
	}
	b.state = to
	switch to {
	case StateClosed:
		b.failureCount = 0
		b.nextAttempt = time.Time{}
	case StateOpen:
		b.nextAttempt = b.now().Add(b.cfg.recoveryTimeout)
	case StateHalfOpen:
		b.nextAttempt = time.Time{}
	}
	return from, true
}

// notify 在锁外触发状态变化回调。
func (b *Breaker) notify(from, to State) {
	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}

// Stats 返回当前统计快照
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked(b.now())

	total := len(b.history)
	failed := 0
	for _, r := range b.history {
		if !r.success {
			failed++
		}
	}
	rate := 1.0
	if total > 0 {
		rate = float64(total-failed) / float64(total)
	}
	return Stats{
		State:           b.state,
		FailureCount:    b.failureCount,
		TotalCalls:      total,
		FailedCalls:     failed,
		SuccessRate:     rate,
		LastFailureTime: b.lastFailure,
		NextAttemptTime: b.nextAttempt,
	}
}

// Reset 管理性覆盖：清空调用历史与失败记录，回到 Closed。
// 如发生状态变化会触发状态回调。
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.history = nil
	b.lastFailure = time.Time{}
	from, changed := b.transitionLocked(StateClosed)
	// Reset 在已处于 Closed 时也要清零失败计数
	b.failureCount = 0
	b.mu.Unlock()

	if changed {
		b.notify(from, StateClosed)
	}
}

// ForceOpen 管理性覆盖：强制打开熔断器，绕过统计规则。
// 将最近失败时间置为当前时刻，保证强制打开至少维持 RecoveryTimeout。
func (b *Breaker) ForceOpen() {
	b.mu.Lock()
	b.lastFailure = b.now()
	from, changed := b.transitionLocked(StateOpen)
	b.mu.Unlock()

	if changed {
		b.notify(from, StateOpen)
	}
}

// ForceClose 管理性覆盖：强制关闭熔断器，绕过统计规则。
// 进入 Closed 同样会重置 failureCount。
func (b *Breaker) ForceClose() {
	b.mu.Lock()
	from, changed := b.transitionLocked(StateClosed)
	b.mu.Unlock()

	if changed {
		b.notify(from, StateClosed)
	}
}
