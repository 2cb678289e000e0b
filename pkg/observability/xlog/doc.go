// Package xlog 提供基于 log/slog 的结构化日志。
//
// Logger 接口强制 context 传递，方法签名只接受 slog.Attr，
// 避免隐式 key-value 转换。通过 LevelVar 支持运行时级别调整。
//
// # 使用方式
//
//	logger, cleanup, err := xlog.New(
//	    xlog.WithLevel(xlog.LevelDebug),
//	    xlog.WithFormat("json"),
//	    xlog.WithRotation("/var/log/recovery.log"),
//	)
//	if err != nil { ... }
//	defer cleanup()
//
//	logger.Info(ctx, "operation recovered",
//	    xlog.Operation("order-sync"),
//	    xlog.Count(3),
//	)
//
// 不需要日志的场景使用 Nop()。
package xlog
