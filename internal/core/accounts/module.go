package accounts

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-pbsync/config"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
)

// ============================================================================
// 模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置
	Config *config.Config
}

// ============================================================================
// 模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// AccountStore 账户存储
	AccountStore pkgif.AccountStore
}

// ProvideStore 提供账户存储
func ProvideStore(input ModuleInput) (ModuleOutput, error) {
	store, err := New(ConfigFromUnified(input.Config))
	if err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{AccountStore: store}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("accounts",
		fx.Provide(ProvideStore),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC           fx.Lifecycle
	AccountStore pkgif.AccountStore
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.AccountStore.Close()
		},
	})
}
