// Package main 提供 pbsyncd 命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	pbsync "github.com/dep2p/go-pbsync"
	"github.com/dep2p/go-pbsync/internal/util/logger"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

var log = logger.Logger("cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
//
// 命令行参数用于运行时覆盖（「这次运行」想怎么跑），
// JSON 配置文件用于持久化配置（「这个客户端」的固定配置）。
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile = flag.String("config", "", "配置文件路径")
	device     = flag.String("device", "", "启动后自动连接的设备标识")
	dataDir    = flag.String("data-dir", "", "数据目录（覆盖配置文件）")
	profileID  = flag.String("profile", "", "档案服务标识（覆盖配置文件）")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

const startTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(pbsync.VersionInfo())
		return nil
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	client, err := pbsync.Start(startCtx, buildOptions()...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	log.Info("pbsyncd 已启动", "version", pbsync.Version)

	sub, err := client.SubscribeStateChanges()
	if err != nil {
		return fmt.Errorf("订阅状态事件失败: %w", err)
	}
	go watchTransitions(sub)

	if *device != "" {
		if err := client.Connect(types.DeviceID(*device)); err != nil {
			return fmt.Errorf("连接请求被拒绝: %w", err)
		}
		fmt.Printf("正在连接设备 %s ...\n", *device)
	}

	fmt.Println("pbsyncd 已启动，按 Ctrl+C 退出")
	waitForSignal()

	fmt.Println("\n正在关闭...")
	_ = sub.Close()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), startTimeout)
	defer cancelStop()
	return client.Close(stopCtx)
}

// buildOptions 构建启动选项
//
// 优先级（从高到低）：命令行参数 > 配置文件 > 默认值。
func buildOptions() []pbsync.Option {
	var opts []pbsync.Option

	if *configFile != "" {
		opts = append(opts, pbsync.WithConfigFile(*configFile))
	}
	if *dataDir != "" {
		opts = append(opts, pbsync.WithDataDir(*dataDir))
	}
	if *profileID != "" {
		opts = append(opts, pbsync.WithProfileID(*profileID))
	}

	return opts
}

// watchTransitions 打印连接状态变更
func watchTransitions(sub pkgif.Subscription) {
	for raw := range sub.Out() {
		ev, ok := raw.(types.ConnectionStateChanged)
		if !ok {
			continue
		}
		log.Info("连接状态变更",
			"device", ev.Device, "previous", ev.Previous, "current", ev.Current)
		fmt.Printf("[%s] %s → %s\n", ev.Device, ev.Previous, ev.Current)
	}
}

// waitForSignal 等待退出信号
func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}
