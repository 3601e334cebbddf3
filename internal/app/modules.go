// Package app 提供模块集合清单与应用装配
//
// modules.go 集中维护模块归属，是装配的唯一模块来源，
// 避免命令行入口与测试各自拼装导致漂移。
package app

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-pbsync/internal/core/accounts"
	"github.com/dep2p/go-pbsync/internal/core/eventbus"
	"github.com/dep2p/go-pbsync/internal/core/statemachine"
	"github.com/dep2p/go-pbsync/internal/core/worker"
	"github.com/dep2p/go-pbsync/internal/discovery/sdp"
)

// FoundationModules 基础层模块组合
//
// 事件总线与账户存储，是其余模块的公共依赖。
func FoundationModules() fx.Option {
	return fx.Options(
		eventbus.Module(),
		accounts.Module(),
	)
}

// SessionModules 会话层模块组合
//
// 档案发现与连接 worker，为状态机提供协作方实现。
func SessionModules() fx.Option {
	return fx.Options(
		sdp.Module(),
		worker.Module(),
	)
}

// ClientModules 客户端模块组合
//
// 连接状态机，对外暴露 ConnectionManager。
func ClientModules() fx.Option {
	return fx.Options(
		statemachine.Module(),
	)
}

// AllModules 所有模块组合
func AllModules() fx.Option {
	return fx.Options(
		FoundationModules(),
		SessionModules(),
		ClientModules(),
	)
}
