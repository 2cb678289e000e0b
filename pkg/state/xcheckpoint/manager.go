package xcheckpoint

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultMaxCheckpoints 默认全局检查点数量上限
const defaultMaxCheckpoints = 50

// Checkpoint 操作状态快照
//
// State 为创建时序列化的 JSON 字节，调用方不应修改。
type Checkpoint struct {
	ID          string          `json:"id"`
	OperationID string          `json:"operationId"`
	Timestamp   time.Time       `json:"timestamp"`
	State       json.RawMessage `json:"state"`
	Description string          `json:"description,omitempty"`
}

// Stats 检查点统计
type Stats struct {
	// Total 当前检查点总数
	Total int

	// PerOperation 按操作 ID 的检查点数量
	PerOperation map[string]int

	// StateBytes 所有快照的近似字节占用（仅 State 部分）
	StateBytes int
}

// Manager 检查点管理器，并发安全。
type Manager struct {
	mu    sync.RWMutex
	byOp  map[string][]*Checkpoint
	total int

	max int
	now func() time.Time
}

// Option 管理器选项
type Option func(*Manager)

// WithMaxCheckpoints 设置全局检查点数量上限，最小为 1。
func WithMaxCheckpoints(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.max = n
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

// NewManager 创建检查点管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		byOp: make(map[string][]*Checkpoint),
		max:  defaultMaxCheckpoints,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create 为操作创建检查点
//
// state 被 JSON 序列化后保存，与原对象解耦。
// 超出容量上限时全局淘汰时间戳最旧的检查点。
func (m *Manager) Create(opID string, state any, description string) (*Checkpoint, error) {
	if m == nil {
		return nil, ErrNilManager
	}
	if opID == "" {
		return nil, ErrEmptyOperationID
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}

	now := m.now()
	cp := &Checkpoint{
		ID:          checkpointID(opID, now),
		OperationID: opID,
		Timestamp:   now,
		State:       data,
		Description: description,
	}

	m.mu.Lock()
	m.byOp[opID] = append(m.byOp[opID], cp)
	m.total++
	for m.total > m.max {
		m.evictOldestLocked()
	}
	m.mu.Unlock()

	snapshot := *cp
	return &snapshot, nil
}

// checkpointID 生成检查点 ID：opID-毫秒时间戳-uuid 前 8 位。
func checkpointID(opID string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return opID + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}

// evictOldestLocked 淘汰全局时间戳最旧的检查点。
// 每个操作的检查点按创建顺序追加，只需比较各操作的队首。
func (m *Manager) evictOldestLocked() {
	var oldestOp string
	var oldest *Checkpoint
	for op, cps := range m.byOp {
		if len(cps) == 0 {
			continue
		}
		if oldest == nil || cps[0].Timestamp.Before(oldest.Timestamp) {
			oldestOp = op
			oldest = cps[0]
		}
	}
	if oldest == nil {
		return
	}
	cps := m.byOp[oldestOp]
	if len(cps) == 1 {
		delete(m.byOp, oldestOp)
	} else {
		m.byOp[oldestOp] = cps[1:]
	}
	m.total--
}

// Rollback 回滚到指定检查点，返回反序列化后的状态。
//
// 反序列化结果为 JSON 通用形态（map[string]any / []any / 基础类型）。
// 需要具体类型时使用 RollbackInto。
func (m *Manager) Rollback(id string) (any, error) {
	if m == nil {
		return nil, ErrNilManager
	}
	cp, err := m.find(id)
	if err != nil {
		return nil, err
	}

	var state any
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	return state, nil
}

// RollbackInto 回滚到指定检查点并反序列化为具体类型
//
// 包级泛型函数而非方法，因为 Go 不支持方法的类型参数。
func RollbackInto[T any](m *Manager, id string) (T, error) {
	var zero T
	if m == nil {
		return zero, ErrNilManager
	}
	cp, err := m.find(id)
	if err != nil {
		return zero, err
	}

	var state T
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	return state, nil
}

// find 按 ID 查找检查点
func (m *Manager) find(id string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cps := range m.byOp {
		for _, cp := range cps {
			if cp.ID == id {
				return cp, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
}

// Checkpoints 返回指定操作的检查点，按创建顺序。
// opID 为空时返回所有操作的检查点。返回的是快照副本。
func (m *Manager) Checkpoints(opID string) []Checkpoint {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Checkpoint
	if opID != "" {
		for _, cp := range m.byOp[opID] {
			out = append(out, *cp)
		}
		return out
	}
	for _, cps := range m.byOp {
		for _, cp := range cps {
			out = append(out, *cp)
		}
	}
	return out
}

// Latest 返回指定操作最新的检查点，不存在时返回 false。
func (m *Manager) Latest(opID string) (Checkpoint, bool) {
	if m == nil {
		return Checkpoint{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	cps := m.byOp[opID]
	if len(cps) == 0 {
		return Checkpoint{}, false
	}
	return *cps[len(cps)-1], true
}

// Clear 清除指定操作的所有检查点，返回清除数量。
func (m *Manager) Clear(opID string) int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.byOp[opID])
	if n > 0 {
		delete(m.byOp, opID)
		m.total -= n
	}
	return n
}

// ClearAll 清除所有检查点，返回清除数量。
func (m *Manager) ClearAll() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.total
	m.byOp = make(map[string][]*Checkpoint)
	m.total = 0
	return n
}

// Stats 返回检查点统计
func (m *Manager) Stats() Stats {
	if m == nil {
		return Stats{PerOperation: map[string]int{}}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{PerOperation: make(map[string]int, len(m.byOp))}
	for op, cps := range m.byOp {
		st.PerOperation[op] = len(cps)
		st.Total += len(cps)
		for _, cp := range cps {
			st.StateBytes += len(cp.State)
		}
	}
	return st
}
