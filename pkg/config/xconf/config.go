package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置文件格式
type Format string

// 支持的配置格式
const (
	// FormatYAML YAML 格式
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式
	FormatJSON Format = "json"
)

// Document 恢复配置文档
type Document struct {
	// Strategies 命名恢复策略
	Strategies map[string]StrategySpec `koanf:"strategies"`

	// Metrics 指标收集设置
	Metrics MetricsSpec `koanf:"metrics"`
}

// StrategySpec 单个策略的文件表示
type StrategySpec struct {
	// Retry 重试设置
	Retry RetrySpec `koanf:"retry"`

	// Breaker 熔断设置，缺省时不启用熔断
	Breaker *BreakerSpec `koanf:"breaker"`

	// EnableState 是否自动创建初始检查点
	EnableState bool `koanf:"enableState"`

	// EnableMetrics 是否记录指标
	EnableMetrics bool `koanf:"enableMetrics"`
}

// RetrySpec 重试设置
//
// Jitter 使用指针区分"未配置"与显式 false。
type RetrySpec struct {
	Strategy            string        `koanf:"strategy"`
	MaxAttempts         int           `koanf:"maxAttempts"`
	BaseDelay           time.Duration `koanf:"baseDelay"`
	MaxDelay            time.Duration `koanf:"maxDelay"`
	Multiplier          float64       `koanf:"multiplier"`
	Jitter              *bool         `koanf:"jitter"`
	RetryableCategories []string      `koanf:"retryableCategories"`
}

// BreakerSpec 熔断设置
type BreakerSpec struct {
	FailureThreshold  int           `koanf:"failureThreshold"`
	RecoveryTimeout   time.Duration `koanf:"recoveryTimeout"`
	MonitoringWindow  time.Duration `koanf:"monitoringWindow"`
	MinimumThroughput int           `koanf:"minimumThroughput"`
}

// MetricsSpec 指标收集设置
type MetricsSpec struct {
	Retention       time.Duration `koanf:"retention"`
	CleanupInterval time.Duration `koanf:"cleanupInterval"`
}

// File 已加载的配置文件，并发安全。
type File struct {
	mu     sync.RWMutex
	k      *koanf.Koanf
	path   string
	format Format
}

// Load 从文件加载配置，格式按扩展名检测。
func Load(path string) (*File, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	k, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	return &File{k: k, path: path, format: format}, nil
}

// LoadBytes 从字节数据加载配置，需要显式指定格式。
// 空数据产生空配置。
func LoadBytes(data []byte, format Format) (*File, error) {
	if !validFormat(format) {
		return nil, ErrUnsupportedFormat
	}
	k, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	return &File{k: k, format: format}, nil
}

// Document 反序列化整个配置文档
func (f *File) Document() (*Document, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var doc Document
	if err := f.k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return &doc, nil
}

// Reload 重新读取配置文件。
// 仅对从文件加载的配置有效。
func (f *File) Reload() error {
	if f.path == "" {
		return ErrNotWatchable
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, f.format)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.k = k
	f.mu.Unlock()
	return nil
}

// Path 返回配置文件路径，字节数据加载时为空。
func (f *File) Path() string {
	return f.path
}

// Format 返回配置格式
func (f *File) Format() Format {
	return f.format
}

// detectFormat 按扩展名检测配置格式
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func validFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

// parse 解析字节数据为 koanf 实例
func parse(data []byte, format Format) (*koanf.Koanf, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}

	k := koanf.New(".")
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
