package xmetrics

import "errors"

// 指标收集错误
var (
	// ErrNilCollector 传入的 Collector 为 nil
	ErrNilCollector = errors.New("xmetrics: collector cannot be nil")

	// ErrDestroyed Collector 已销毁
	ErrDestroyed = errors.New("xmetrics: collector is destroyed")

	// ErrBadSnapshot 导入的快照不合法
	ErrBadSnapshot = errors.New("xmetrics: invalid snapshot")
)
