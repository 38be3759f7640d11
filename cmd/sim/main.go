package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"impact-maker-go/config"
	"impact-maker-go/internal/container"
)

// 本地模拟：合成行情驱动冲击做市与猎杀策略，结束后输出盈亏报告。
// 不连接任何交易所。
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	events := flag.Int("events", 0, "每个交易对的行情事件数（0 使用配置）")
	seed := flag.Int64("seed", 0, "随机种子（0 使用配置）")
	hunter := flag.Bool("hunter", false, "同时运行猎杀策略")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *events > 0 {
		cfg.Sim.Events = *events
	}
	if *seed != 0 {
		cfg.Sim.Seed = *seed
	}
	if *hunter {
		cfg.Hunter.Enabled = true
	}

	c := container.NewWithConfig(cfg)
	if err := c.Build(); err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "模拟失败: %v\n", err)
		os.Exit(1)
	}
	if err := c.Report(time.Now()).Write(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "输出报告失败: %v\n", err)
		os.Exit(1)
	}
}
