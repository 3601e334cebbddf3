package worker

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-pbsync/config"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置
	Config *config.Config

	// AccountStore 账户存储
	AccountStore pkgif.AccountStore

	// Clock 时钟
	Clock clock.Clock
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// WorkerFactory worker 工厂
	WorkerFactory pkgif.WorkerFactory
}

// ProvideFactory 提供 worker 工厂
func ProvideFactory(input ModuleInput) (ModuleOutput, error) {
	factory, err := NewFactory(ConfigFromUnified(input.Config), input.AccountStore, input.Clock)
	if err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{WorkerFactory: factory}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("worker",
		fx.Provide(ProvideFactory),
	)
}
