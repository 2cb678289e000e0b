package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/config/xconf"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/observability/xlog"
	"github.com/xiaoxiaofeiya/mcp-interface-validator-sub002/pkg/resilience/xrecover"
)

// createCommands 创建所有子命令
func createCommands() []*cli.Command {
	return []*cli.Command{
		createSimulateCommand(),
		createValidateCommand(),
	}
}

// newLogger 按全局选项构建日志器
func newLogger(cmd *cli.Command) (xlog.Logger, func(), error) {
	return xlog.New(
		xlog.WithOutput(os.Stderr),
		xlog.WithLevelString(cmd.String("log-level")),
		xlog.WithFormat(cmd.String("log-format")),
	)
}

// applyConfig 加载并应用 --config 指定的策略配置，未指定时跳过。
func applyConfig(cmd *cli.Command, mgr *xrecover.Manager) error {
	path := cmd.String("config")
	if path == "" {
		return nil
	}
	f, err := xconf.Load(path)
	if err != nil {
		return err
	}
	return xconf.Apply(f, mgr)
}

// createSimulateCommand 创建 simulate 命令
//
// 以给定失败率并发执行一批不稳定操作，观察重试、熔断与
// 降级的实际表现，最后输出统计与健康状态。
func createSimulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "并发压测恢复编排器并输出统计",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "ops",
				Aliases: []string{"n"},
				Usage:   "操作总数",
				Value:   50,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "并发度",
				Value: 8,
			},
			&cli.FloatFlag{
				Name:  "failure-rate",
				Usage: "单次调用失败概率 (0.0-1.0)",
				Value: 0.3,
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "使用的恢复策略",
				Value:   "default",
			},
			&cli.DurationFlag{
				Name:  "op-duration",
				Usage: "单次调用耗时",
				Value: 5 * time.Millisecond,
			},
			&cli.BoolFlag{
				Name:  "events",
				Usage: "打印恢复事件",
			},
		},
		Action: runSimulate,
	}
}

func runSimulate(ctx context.Context, cmd *cli.Command) error {
	ops := cmd.Int("ops")
	concurrency := cmd.Int("concurrency")
	failureRate := cmd.Float("failure-rate")
	strategy := cmd.String("strategy")
	opDuration := cmd.Duration("op-duration")

	if ops <= 0 || concurrency <= 0 {
		return &usageError{msg: "ops 和 concurrency 必须为正数"}
	}
	if failureRate < 0 || failureRate > 1 {
		return &usageError{msg: "failure-rate 必须在 0.0 到 1.0 之间"}
	}

	logger, cleanup, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	mgr := xrecover.New(xrecover.WithLogger(logger))
	if err := applyConfig(cmd, mgr); err != nil {
		return err
	}
	if _, ok := mgr.Strategy(strategy); !ok {
		return &usageError{msg: fmt.Sprintf("未知策略 %q，可用: %v", strategy, mgr.StrategyNames())}
	}

	if cmd.Bool("events") {
		unsubscribe := mgr.Subscribe(func(e xrecover.Event) {
			fmt.Printf("[event] %-20s op=%s meta=%v\n", e.Type, e.OperationID, e.Meta)
		})
		defer unsubscribe()
	}

	var succeeded, failed int
	results := make(chan bool, ops)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range ops {
		g.Go(func() error {
			opID := fmt.Sprintf("simulate-%03d", i)
			res := xrecover.Execute(gctx, mgr, opID, func(ctx context.Context) (string, error) {
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(opDuration):
				}
				if rand.Float64() < failureRate {
					return "", errors.New("connection refused by upstream")
				}
				return "ok", nil
			}, strategy)
			results <- res.Success
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(results)
	for ok := range results {
		if ok {
			succeeded++
		} else {
			failed++
		}
	}

	fmt.Printf("\n完成 %d 个操作: 成功 %d, 失败 %d\n\n", ops, succeeded, failed)
	if err := printJSON("统计", mgr.Stats()); err != nil {
		return err
	}
	if err := printJSON("健康状态", mgr.CheckHealth()); err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return mgr.Shutdown(shutdownCtx)
}

// createValidateCommand 创建 validate 命令
func createValidateCommand() *cli.Command {
	return &cli.Command{
		Name:   "validate",
		Usage:  "校验恢复策略配置文件",
		Action: runValidate,
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		return &usageError{msg: "validate 需要 --config 指定配置文件"}
	}

	f, err := xconf.Load(path)
	if err != nil {
		return err
	}

	mgr := xrecover.New(xrecover.WithLogger(xlog.Nop()))
	if err := xconf.Apply(f, mgr); err != nil {
		return fmt.Errorf("配置不合法: %w", err)
	}

	doc, err := f.Document()
	if err != nil {
		return err
	}
	fmt.Printf("配置合法 (%s, %s 格式)\n", f.Path(), f.Format())
	for name := range doc.Strategies {
		cfg, _ := mgr.Strategy(name)
		breaker := "无熔断"
		if cfg.Breaker != nil {
			breaker = fmt.Sprintf("熔断阈值 %d", cfg.Breaker.FailureThreshold())
		}
		fmt.Printf("  策略 %-12s 重试 %s × %d, %s\n",
			name, cfg.Retry.Strategy(), cfg.Retry.MaxAttempts(), breaker)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return mgr.Shutdown(shutdownCtx)
}

// printJSON 以缩进 JSON 打印带标题的结构
func printJSON(title string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s:\n%s\n\n", title, data)
	return nil
}
