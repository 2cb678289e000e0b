package xrecover

import (
	"time"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
)

// Attempt 一次尝试的记录，追加后不再修改。
type Attempt struct {
	// Number 尝试序号，从 1 开始
	Number int

	// Timestamp 尝试开始时间
	Timestamp time.Time

	// Duration 尝试耗时
	Duration time.Duration

	// Success 是否成功
	Success bool

	// Err 失败原因，成功时为 nil
	Err error

	// Action 本次尝试采取的恢复动作
	Action xclassify.Action

	// Meta 附加信息（错误类别、命中规则等）
	Meta map[string]string
}

// Context 一次受管操作的恢复上下文
//
// 每次 Execute 调用创建全新实例，由单个执行流程独占写入，
// 随 Result 返回后只读。
type Context struct {
	// OperationID 操作 ID
	OperationID string

	// Strategy 实际使用的策略名
	Strategy string

	// StartTime 执行开始时间
	StartTime time.Time

	// Metadata 操作级附加信息
	Metadata map[string]string

	// Attempts 尝试记录，按发生顺序追加
	Attempts []Attempt

	// Checkpoints 本次执行创建的检查点 ID
	Checkpoints []string

	// LastErr 最近一次失败的错误
	LastErr error
}

// recordAttempt 追加一条尝试记录
func (rc *Context) recordAttempt(a Attempt) {
	a.Number = len(rc.Attempts) + 1
	rc.Attempts = append(rc.Attempts, a)
}

// Result 一次受管操作的结果
//
// Execute 不返回裸 error，失败同样编码在 Result 中。
type Result[T any] struct {
	// Success 操作是否最终成功（含降级成功）
	Success bool

	// Value 成功时的返回值
	Value T

	// Err 最终错误，成功时为 nil
	Err error

	// Attempts 全部尝试记录，至少一条
	Attempts []Attempt

	// Duration 执行总耗时
	Duration time.Duration

	// Action 最终采取的恢复动作
	Action xclassify.Action

	// Context 恢复上下文
	Context *Context
}
