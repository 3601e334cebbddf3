package statemachine

import (
	"context"

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

	// EventBus 事件总线
	EventBus pkgif.EventBus

	// Discoverer 档案发现器
	Discoverer pkgif.Discoverer

	// WorkerFactory worker 工厂
	WorkerFactory pkgif.WorkerFactory

	// AccountStore 账户存储
	AccountStore pkgif.AccountStore

	// Clock 时钟
	Clock clock.Clock
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// ConnectionManager 连接管理接口
	ConnectionManager pkgif.ConnectionManager

	// Machine 状态机实例（生命周期挂接用）
	Machine *Machine
}

// ProvideMachine 提供状态机实例
func ProvideMachine(input ModuleInput) (ModuleOutput, error) {
	m, err := New(
		ConfigFromUnified(input.Config),
		input.Discoverer,
		input.WorkerFactory,
		input.AccountStore,
		input.EventBus,
		input.Clock,
	)
	if err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{
		ConnectionManager: m,
		Machine:           m,
	}, nil
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, m *Machine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			m.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.Close()
		},
	})
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("statemachine",
		fx.Provide(ProvideMachine),
		fx.Invoke(registerLifecycle),
	)
}
