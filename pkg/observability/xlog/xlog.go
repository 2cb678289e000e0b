package xlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 日志接口
//
// 所有方法都需要 context.Context 参数，方法签名只接受 slog.Attr。
type Logger interface {
	// Debug 记录 Debug 级别日志
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)

	// Info 记录 Info 级别日志
	Info(ctx context.Context, msg string, attrs ...slog.Attr)

	// Warn 记录 Warn 级别日志
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)

	// Error 记录 Error 级别日志
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger
	// 派生 logger 共享父级的 LevelVar，动态级别变更同步生效。
	With(attrs ...slog.Attr) Logger
}

// Leveler 级别控制接口
//
// 与 Logger 分离，通过类型断言获取动态级别能力。
type Leveler interface {
	// SetLevel 动态设置日志级别，运行时生效
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level
}

type config struct {
	output   io.Writer
	level    Level
	format   string
	source   bool
	rotation *lumberjack.Logger
	err      error
}

// Option 日志选项
type Option func(*config)

// WithOutput 设置输出目标，默认 os.Stderr。
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithLevel 设置日志级别，默认 Info。
func WithLevel(level Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithLevelString 通过字符串设置日志级别。
func WithLevelString(s string) Option {
	return func(c *config) {
		level, err := ParseLevel(s)
		if err != nil {
			c.err = err
			return
		}
		c.level = level
	}
}

// WithFormat 设置输出格式：text 或 json，默认 text。
func WithFormat(format string) Option {
	return func(c *config) {
		normalized := strings.ToLower(strings.TrimSpace(format))
		if normalized == "" {
			return
		}
		if normalized != "text" && normalized != "json" {
			c.err = fmt.Errorf("xlog: unknown format %q", format)
			return
		}
		c.format = normalized
	}
}

// WithSource 是否在日志中添加源码位置。
func WithSource(enable bool) Option {
	return func(c *config) {
		c.source = enable
	}
}

// RotationOption 轮转选项
type RotationOption func(*lumberjack.Logger)

// WithMaxSizeMB 设置单个日志文件的最大体积（MB）。
func WithMaxSizeMB(n int) RotationOption {
	return func(l *lumberjack.Logger) {
		if n > 0 {
			l.MaxSize = n
		}
	}
}

// WithMaxBackups 设置保留的旧文件数量。
func WithMaxBackups(n int) RotationOption {
	return func(l *lumberjack.Logger) {
		if n > 0 {
			l.MaxBackups = n
		}
	}
}

// WithMaxAgeDays 设置旧文件的最长保留天数。
func WithMaxAgeDays(n int) RotationOption {
	return func(l *lumberjack.Logger) {
		if n > 0 {
			l.MaxAge = n
		}
	}
}

// WithCompress 设置是否压缩旧文件。
func WithCompress(enable bool) RotationOption {
	return func(l *lumberjack.Logger) {
		l.Compress = enable
	}
}

// WithRotation 设置按体积轮转的文件输出（lumberjack）。
// 默认单文件 100MB、保留 3 份、30 天。
func WithRotation(filename string, opts ...RotationOption) Option {
	return func(c *config) {
		if filename == "" {
			c.err = fmt.Errorf("xlog: rotation filename cannot be empty")
			return
		}
		rotator := &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     30,
		}
		for _, opt := range opts {
			opt(rotator)
		}
		c.rotation = rotator
		c.output = rotator
	}
}

// New 构建 Logger
//
// 返回的 cleanup 负责关闭轮转文件句柄，未启用轮转时为空操作。
// 返回的 Logger 同时实现 Leveler。
func New(opts ...Option) (Logger, func(), error) {
	cfg := &config{
		output: os.Stderr,
		level:  LevelInfo,
		format: "text",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, nil, cfg.err
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.Level(cfg.level))

	handlerOpts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.source,
	}

	var handler slog.Handler
	if cfg.format == "json" {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	}

	cleanup := func() {}
	if cfg.rotation != nil {
		rotator := cfg.rotation
		cleanup = func() { _ = rotator.Close() }
	}

	return &xlogger{logger: slog.New(handler), levelVar: levelVar}, cleanup, nil
}

// xlogger Logger 的 slog 实现
type xlogger struct {
	logger   *slog.Logger
	levelVar *slog.LevelVar
}

var (
	_ Logger  = (*xlogger)(nil)
	_ Leveler = (*xlogger)(nil)
)

func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs...)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs...)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs...)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs...)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return &xlogger{logger: l.logger.With(args...), levelVar: l.levelVar}
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

// Nop 返回丢弃所有日志的 Logger
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

var _ Logger = nopLogger{}

func (nopLogger) Debug(context.Context, string, ...slog.Attr) {}
func (nopLogger) Info(context.Context, string, ...slog.Attr)  {}
func (nopLogger) Warn(context.Context, string, ...slog.Attr)  {}
func (nopLogger) Error(context.Context, string, ...slog.Attr) {}
func (nopLogger) With(...slog.Attr) Logger                    { return nopLogger{} }
