package xmetrics

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xclassify"
)

// 默认保留与清理参数
const (
	defaultRetention       = time.Hour
	defaultCleanupInterval = time.Minute
)

// Sink 指标外部导出接口
//
// Collector 在本地记录的同时把每条记录同步推给 Sink。
// 实现必须自行保证并发安全；导出失败不得影响调用方。
type Sink interface {
	ExportOperation(rec OperationRecord)
	ExportError(rec ErrorRecord)
	ExportRecovery(rec RecoveryRecord)
}

// Collector 指标收集器，并发安全。
//
// 后台协程按清理间隔淘汰保留窗口外的记录，
// 用完必须调用 Destroy 释放协程。
type Collector struct {
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	sink      Sink
	onCleaned func(CleanupReport)

	mu        sync.Mutex
	ops       []OperationRecord
	errs      []ErrorRecord
	recs      []RecoveryRecord
	destroyed bool

	done        chan struct{}
	wg          sync.WaitGroup
	destroyOnce sync.Once
}

// Option 收集器选项
type Option func(*Collector)

// WithRetention 设置记录保留窗口，非正值被忽略。
func WithRetention(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.retention = d
		}
	}
}

// WithCleanupInterval 设置后台清理间隔，非正值被忽略。
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock 注入时钟，测试用。
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSink 设置外部导出 Sink。
func WithSink(s Sink) Option {
	return func(c *Collector) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithOnCleaned 设置清理回调，仅在实际清理了记录时触发。
func WithOnCleaned(f func(CleanupReport)) Option {
	return func(c *Collector) {
		if f != nil {
			c.onCleaned = f
		}
	}
}

// NewCollector 创建指标收集器并启动后台清理协程
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		retention: defaultRetention,
		interval:  defaultCleanupInterval,
		now:       time.Now,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.cleanupLoop()
	return c
}

// cleanupLoop 后台清理循环
func (c *Collector) cleanupLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// RecordOperation 记录一次操作
// Timestamp 为零值时填充当前时间。
func (c *Collector) RecordOperation(rec OperationRecord) {
	if c == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = c.now()
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.ops = append(c.ops, rec)
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.ExportOperation(rec)
	}
}

// RecordError 记录一次错误
func (c *Collector) RecordError(rec ErrorRecord) {
	if c == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = c.now()
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.errs = append(c.errs, rec)
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.ExportError(rec)
	}
}

// RecordRecovery 记录一次恢复尝试
func (c *Collector) RecordRecovery(rec RecoveryRecord) {
	if c == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = c.now()
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.recs = append(c.recs, rec)
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.ExportRecovery(rec)
	}
}

// Stats 返回保留窗口内的聚合统计
func (c *Collector) Stats() Stats {
	if c == nil {
		return emptyStats(time.Time{}, time.Time{})
	}
	end := c.now()
	return c.DetailedStats(end.Add(-c.retention), end)
}

// DetailedStats 返回 (start, end] 区间内的聚合统计
func (c *Collector) DetailedStats(start, end time.Time) Stats {
	if c == nil {
		return emptyStats(start, end)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := emptyStats(start, end)
	inWindow := func(ts time.Time) bool {
		return ts.After(start) && !ts.After(end)
	}

	var recoveryTotal time.Duration
	for _, rec := range c.ops {
		if !inWindow(rec.Timestamp) {
			continue
		}
		st.TotalOperations++
		if rec.Success {
			st.SuccessfulOperations++
		} else {
			st.FailedOperations++
		}
	}
	for _, rec := range c.errs {
		if !inWindow(rec.Timestamp) {
			continue
		}
		st.TotalErrors++
		st.ErrorsByCategory[rec.Category]++
		st.ErrorsBySeverity[rec.Severity]++
	}
	for _, rec := range c.recs {
		if !inWindow(rec.Timestamp) {
			continue
		}
		st.TotalRecoveries++
		st.RecoveriesByAction[rec.Action]++
		if rec.Success {
			st.SuccessfulRecoveries++
			recoveryTotal += rec.Duration
		}
	}

	if st.TotalOperations > 0 {
		st.SuccessRate = float64(st.SuccessfulOperations) / float64(st.TotalOperations)
	}
	if st.SuccessfulRecoveries > 0 {
		st.AvgRecoveryDuration = recoveryTotal / time.Duration(st.SuccessfulRecoveries)
	}
	return st
}

// emptyStats 预置全部枚举键的零值统计
func emptyStats(start, end time.Time) Stats {
	st := Stats{
		SuccessRate:        1,
		ErrorsByCategory:   make(map[xclassify.Category]int),
		ErrorsBySeverity:   make(map[xclassify.Severity]int),
		RecoveriesByAction: make(map[xclassify.Action]int),
		WindowStart:        start,
		WindowEnd:          end,
	}
	for _, cat := range xclassify.Categories() {
		st.ErrorsByCategory[cat] = 0
	}
	for _, sev := range xclassify.Severities() {
		st.ErrorsBySeverity[sev] = 0
	}
	for _, act := range xclassify.Actions() {
		st.RecoveriesByAction[act] = 0
	}
	return st
}

// OpStats 单个操作名的聚合统计
type OpStats struct {
	Op            string        `json:"op"`
	Total         int           `json:"total"`
	Successful    int           `json:"successful"`
	Failed        int           `json:"failed"`
	SuccessRate   float64       `json:"successRate"`
	AvgDuration   time.Duration `json:"avgDuration"`
	LastTimestamp time.Time     `json:"lastTimestamp"`
}

// OperationStats 返回指定操作名在保留记录中的统计
func (c *Collector) OperationStats(op string) OpStats {
	st := OpStats{Op: op, SuccessRate: 1}
	if c == nil {
		return st
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var total time.Duration
	for _, rec := range c.ops {
		if rec.Op != op {
			continue
		}
		st.Total++
		total += rec.Duration
		if rec.Success {
			st.Successful++
		} else {
			st.Failed++
		}
		if rec.Timestamp.After(st.LastTimestamp) {
			st.LastTimestamp = rec.Timestamp
		}
	}
	if st.Total > 0 {
		st.SuccessRate = float64(st.Successful) / float64(st.Total)
		st.AvgDuration = total / time.Duration(st.Total)
	}
	return st
}

// Cleanup 立即执行一次保留清理，返回清理结果。
// 后台协程按间隔调用；测试或手动触发也可直接调用。
func (c *Collector) Cleanup() CleanupReport {
	if c == nil {
		return CleanupReport{}
	}
	now := c.now()
	cutoff := now.Add(-c.retention)

	c.mu.Lock()
	report := CleanupReport{At: now}
	c.ops, report.Operations = pruneRecords(c.ops, func(r OperationRecord) time.Time { return r.Timestamp }, cutoff)
	c.errs, report.Errors = pruneRecords(c.errs, func(r ErrorRecord) time.Time { return r.Timestamp }, cutoff)
	c.recs, report.Recoveries = pruneRecords(c.recs, func(r RecoveryRecord) time.Time { return r.Timestamp }, cutoff)
	callback := c.onCleaned
	c.mu.Unlock()

	if report.Total() > 0 && callback != nil {
		callback(report)
	}
	return report
}

// pruneRecords 删除 cutoff 之前的记录，返回保留的切片与删除数量。
func pruneRecords[T any](records []T, ts func(T) time.Time, cutoff time.Time) ([]T, int) {
	kept := records[:0]
	for _, rec := range records {
		if ts(rec).After(cutoff) {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}

// Export 导出全部保留记录为 JSON 快照
func (c *Collector) Export() ([]byte, error) {
	if c == nil {
		return nil, ErrNilCollector
	}

	c.mu.Lock()
	snap := Snapshot{
		ExportedAt: c.now(),
		Operations: append([]OperationRecord(nil), c.ops...),
		Errors:     append([]ErrorRecord(nil), c.errs...),
		Recoveries: append([]RecoveryRecord(nil), c.recs...),
	}
	c.mu.Unlock()

	return json.Marshal(snap)
}

// Import 从 JSON 快照恢复记录，整体替换现有记录。
func (c *Collector) Import(data []byte) error {
	if c == nil {
		return ErrNilCollector
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	c.ops = snap.Operations
	c.errs = snap.Errors
	c.recs = snap.Recoveries
	return nil
}

// Reset 清空全部记录
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.ops = nil
	c.errs = nil
	c.recs = nil
	c.mu.Unlock()
}

// Destroy 停止后台清理协程，可重复调用。
// 销毁后的记录调用被静默丢弃。
func (c *Collector) Destroy() {
	if c == nil {
		return
	}
	c.destroyOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
		c.mu.Lock()
		c.destroyed = true
		c.mu.Unlock()
	})
}
