package xclassify

import (
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// initialStackSize 初始堆栈缓冲区大小
	initialStackSize = 4096
	// maxStackSize 最大堆栈缓冲区大小（16KB，分类场景无需完整深栈）
	maxStackSize = 16 * 1024
)

// stackPool 堆栈缓冲区池，避免每次 Classify 都分配内存
var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

// ruleNameKey Metadata 中记录命中规则名的 key
const ruleNameKey = "rule"

// Classifier 错误分类器
//
// 维护一组有序规则，Classify 时按优先级降序逐条匹配。
// 并发安全：规则集读多写少，使用读写锁保护。
type Classifier struct {
	mu    sync.RWMutex
	rules []Rule
}

// Option 分类器配置选项
type Option func(*Classifier)

// WithRules 追加初始规则（在内置规则之外）
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) {
		c.rules = append(c.rules, rules...)
	}
}

// New 创建分类器，预置内置规则集
func New(opts ...Option) *Classifier {
	c := &Classifier{rules: builtinRules()}
	for _, opt := range opts {
		opt(c)
	}
	c.sortLocked()
	return c
}

// sortLocked 按优先级降序排序规则。
// 使用稳定排序，同优先级规则保持插入顺序。
// 调用方必须持有写锁（或在构造期间独占访问）。
func (c *Classifier) sortLocked() {
	sort.SliceStable(c.rules, func(i, j int) bool {
		return c.rules[i].Priority > c.rules[j].Priority
	})
}

// Classify 对错误进行分类
//
// 返回全新的 Classification，总是填充 Message/Stack/Timestamp。
// 无规则命中时返回默认分类（unknown / medium / 可恢复 / retry）。
// nil 错误也返回默认分类，消息为空。
func (c *Classifier) Classify(err error) Classification {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	lowered := strings.ToLower(msg)

	cls := Classification{
		Category:    CategoryUnknown,
		Severity:    SeverityMedium,
		Recoverable: true,
		Action:      ActionRetry,
		Message:     msg,
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Metadata:    map[string]string{},
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.rules {
		if r.Match != nil && r.Match(lowered) {
			cls.Category = r.Category
			cls.Severity = r.Severity
			cls.Recoverable = r.Recoverable
			cls.Action = r.Action
			cls.Metadata[ruleNameKey] = r.Name
			return cls
		}
	}
	return cls
}

// AddRule 添加规则并重新排序。
// 无匹配谓词的规则会被静默忽略。
func (c *Classifier) AddRule(r Rule) {
	if r.Match == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, r)
	c.sortLocked()
}

// RemoveRule 按名称移除规则，返回是否移除了至少一条。
func (c *Classifier) RemoveRule(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.rules[:0]
	removed := false
	for _, r := range c.rules {
		if r.Name == name {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	c.rules = kept
	return removed
}

// Reset 恢复为内置规则集，丢弃所有自定义规则。
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = builtinRules()
	c.sortLocked()
}

// Rules 返回当前规则集的副本（已按优先级排序）。
func (c *Classifier) Rules() []Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// captureStack 采集当前调用栈。
// 缓冲区被填满时翻倍扩展，直至上限；扩展后的大缓冲区交给 GC，
// 池中只保留初始大小的缓冲区。
func captureStack() string {
	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}

	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}

	// 必须在 Put 前完成 string 拷贝，防止池中缓冲区被其他 goroutine 覆盖
	s := string(buf[:n])
	stackPool.Put(bufp)
	return s
}
