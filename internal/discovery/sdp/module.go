package sdp

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-pbsync/config"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置
	Config *config.Config
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Discoverer 档案服务发现
	Discoverer pkgif.Discoverer
}

// ProvideResolver 提供 mDNS 解析器
func ProvideResolver(input ModuleInput) (ModuleOutput, error) {
	resolver, err := NewResolver(ConfigFromUnified(input.Config))
	if err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{Discoverer: resolver}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("discovery/sdp",
		fx.Provide(ProvideResolver),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Discoverer pkgif.Discoverer
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Discoverer.Close()
		},
	})
}
