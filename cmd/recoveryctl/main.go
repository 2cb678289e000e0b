// recoveryctl 是恢复运行时的演示与诊断工具。
//
// 用法:
//
//	recoveryctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config     恢复策略配置文件 (yaml/json)
//	-l, --log-level  日志级别 (debug/info/warn/error, 默认: info)
//	    --log-format 日志格式 (text/json, 默认: text)
//
// 命令:
//
//	simulate       以可配置的失败率并发压测恢复编排器，输出统计与健康状态
//	validate       校验恢复策略配置文件
//	help           显示帮助信息
//
// 退出码:
//
//	0: 执行成功
//	1: 执行失败
//	2: 参数错误
//
// 示例:
//
//	recoveryctl simulate --ops 100 --failure-rate 0.3
//	recoveryctl -c recovery.yaml simulate --strategy critical
//	recoveryctl -c recovery.yaml validate
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "recoveryctl",
		Usage:   "恢复运行时演示与诊断工具",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "恢复策略配置文件路径",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "日志级别",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: "text",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
	}
}

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func run() int {
	app := createApp()

	if err := app.Run(context.Background(), os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
