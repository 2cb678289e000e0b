package xconf

import "errors"

// 配置加载和应用错误
var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 配置加载失败
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置解析失败
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 配置反序列化失败
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrInvalidStrategy 策略配置不合法
	ErrInvalidStrategy = errors.New("xconf: invalid strategy config")

	// ErrNilManager 传入的 Manager 为 nil
	ErrNilManager = errors.New("xconf: manager cannot be nil")

	// ErrNotWatchable 从字节数据创建的配置不支持监视
	ErrNotWatchable = errors.New("xconf: config is not backed by a file")
)
