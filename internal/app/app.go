package app

import (
	"os"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-pbsync/config"
	"github.com/dep2p/go-pbsync/internal/util/logger"
)

// baseOptions 公共装配选项
//
// 配置与时钟在此统一供给；测试可通过 extra 注入替身覆盖。
func baseOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(func() clock.Clock { return clock.New() }),
		fx.Invoke(applyLogConfig),
		AllModules(),
	)
}

// applyLogConfig 应用配置文件中的日志级别
//
// 环境变量 PBSYNC_LOG_LEVEL 优先于配置文件。
func applyLogConfig(cfg *config.Config) {
	if os.Getenv("PBSYNC_LOG_LEVEL") != "" {
		return
	}
	if level, ok := logger.ParseLevel(cfg.Log.Level); ok {
		logger.SetGlobalLevel(level)
	}
}

// New 组装应用
//
// extra 用于入口追加 fx.Populate/fx.Invoke 等选项。
func New(cfg *config.Config, extra ...fx.Option) *fx.App {
	opts := []fx.Option{baseOptions(cfg)}
	opts = append(opts, extra...)
	return fx.New(opts...)
}
