package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zhanglei/newsrelay/internal/config"
	"github.com/zhanglei/newsrelay/internal/logger"
	"github.com/zhanglei/newsrelay/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "configs/newsrelay.yaml", "配置文件路径")
	once := flag.Bool("once", false, "只执行一个周期后退出（适合 cron 或 CI 调度）")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infof("[main] newsrelay 启动 (once=%v, interval=%ds)", *once, cfg.CheckInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在退出...", sig)
		cancel()
	}()

	p, err := pipeline.New(cfg, *once)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建流水线失败: %v\n", err)
		os.Exit(1)
	}

	if err := p.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "流水线运行出错: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("[main] newsrelay 已停止")
}
