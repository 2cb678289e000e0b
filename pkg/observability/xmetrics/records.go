package xmetrics

import (
	"time"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
)

// OperationRecord 一次操作的记录
type OperationRecord struct {
	// ID 操作实例标识
	ID string `json:"id"`

	// Op 操作名（逻辑操作标识，如 "order-sync"）
	Op string `json:"op"`

	// Success 是否成功
	Success bool `json:"success"`

	// Duration 操作耗时
	Duration time.Duration `json:"duration"`

	// Timestamp 记录时间
	Timestamp time.Time `json:"timestamp"`

	// Meta 附加元数据
	Meta map[string]string `json:"meta,omitempty"`
}

// ErrorRecord 一次错误的记录
type ErrorRecord struct {
	// Category 错误类别
	Category xclassify.Category `json:"category"`

	// Severity 严重程度
	Severity xclassify.Severity `json:"severity"`

	// Op 发生错误的操作名
	Op string `json:"op"`

	// Timestamp 记录时间
	Timestamp time.Time `json:"timestamp"`
}

// RecoveryRecord 一次恢复尝试的记录
type RecoveryRecord struct {
	// Op 操作名
	Op string `json:"op"`

	// Action 采取的恢复动作
	Action xclassify.Action `json:"action"`

	// Success 恢复是否成功
	Success bool `json:"success"`

	// Duration 恢复总耗时
	Duration time.Duration `json:"duration"`

	// Attempts 尝试次数
	Attempts int `json:"attempts"`

	// Timestamp 记录时间
	Timestamp time.Time `json:"timestamp"`
}

// Stats 保留窗口内的聚合统计
type Stats struct {
	// TotalOperations 操作总数
	TotalOperations int `json:"totalOperations"`

	// SuccessfulOperations 成功操作数
	SuccessfulOperations int `json:"successfulOperations"`

	// FailedOperations 失败操作数
	FailedOperations int `json:"failedOperations"`

	// SuccessRate 操作成功率，无操作时为 1
	SuccessRate float64 `json:"successRate"`

	// TotalErrors 错误总数
	TotalErrors int `json:"totalErrors"`

	// ErrorsByCategory 按类别的错误分布，包含全部枚举键
	ErrorsByCategory map[xclassify.Category]int `json:"errorsByCategory"`

	// ErrorsBySeverity 按严重程度的错误分布，包含全部枚举键
	ErrorsBySeverity map[xclassify.Severity]int `json:"errorsBySeverity"`

	// TotalRecoveries 恢复尝试总数
	TotalRecoveries int `json:"totalRecoveries"`

	// SuccessfulRecoveries 成功恢复数
	SuccessfulRecoveries int `json:"successfulRecoveries"`

	// RecoveriesByAction 按动作的恢复分布，包含全部枚举键
	RecoveriesByAction map[xclassify.Action]int `json:"recoveriesByAction"`

	// AvgRecoveryDuration 成功恢复的平均耗时
	AvgRecoveryDuration time.Duration `json:"avgRecoveryDuration"`

	// WindowStart 聚合窗口起点
	WindowStart time.Time `json:"windowStart"`

	// WindowEnd 聚合窗口终点
	WindowEnd time.Time `json:"windowEnd"`
}

// CleanupReport 一次保留清理的结果
type CleanupReport struct {
	// Operations 清理的操作记录数
	Operations int

	// Errors 清理的错误记录数
	Errors int

	// Recoveries 清理的恢复记录数
	Recoveries int

	// At 清理时间
	At time.Time
}

// Total 返回本次清理的记录总数
func (r CleanupReport) Total() int {
	return r.Operations + r.Errors + r.Recoveries
}

// Snapshot 导出/导入的指标快照
type Snapshot struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Operations []OperationRecord `json:"operations"`
	Errors     []ErrorRecord     `json:"errors"`
	Recoveries []RecoveryRecord  `json:"recoveries"`
}
