package xcheckpoint

import "errors"

// 检查点错误
var (
	// ErrCheckpointNotFound 指定 ID 的检查点不存在
	ErrCheckpointNotFound = errors.New("xcheckpoint: checkpoint not found")

	// ErrSerialize 状态序列化失败（含不可 JSON 化的值）
	ErrSerialize = errors.New("xcheckpoint: cannot serialize state")

	// ErrDeserialize 快照反序列化失败（快照损坏或目标类型不匹配）
	ErrDeserialize = errors.New("xcheckpoint: cannot deserialize state")

	// ErrNilManager 传入的 Manager 为 nil
	ErrNilManager = errors.New("xcheckpoint: manager cannot be nil")

	// ErrEmptyOperationID 操作 ID 为空
	ErrEmptyOperationID = errors.New("xcheckpoint: operation id cannot be empty")
)
