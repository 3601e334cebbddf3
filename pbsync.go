// Package pbsync 提供电话簿同步客户端的顶层入口
//
// pbsync 管理与单个远端设备的档案会话：通过 mDNS 发现对端的
// 档案服务，建立连接后把电话簿与通话记录同步到本地账户存储。
// 连接生命周期由内部状态机串行驱动，对外 API 均为非阻塞请求，
// 结果通过 ConnectionStateChanged 事件观察。
//
// 使用示例：
//
//	client, err := pbsync.Start(ctx, pbsync.WithDataDir("./data"))
//	if err != nil {
//		return err
//	}
//	defer client.Close(ctx)
//
//	sub, _ := client.SubscribeStateChanges()
//	_ = client.Connect("remote-device")
//	for ev := range sub.Out() {
//		fmt.Println(ev)
//	}
package pbsync

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-pbsync/internal/app"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

// Client 电话簿同步客户端
type Client struct {
	app *fx.App
	cm  pkgif.ConnectionManager
	bus pkgif.EventBus
}

// Start 组装并启动客户端
func Start(ctx context.Context, opts ...Option) (*Client, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{}
	c.app = app.New(o.cfg, fx.Populate(&c.cm, &c.bus), fx.NopLogger)
	if err := c.app.Start(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect 请求连接指定设备（非阻塞）
func (c *Client) Connect(device types.DeviceID) error {
	return c.cm.Connect(device)
}

// Disconnect 请求断开指定设备（非阻塞）
func (c *Client) Disconnect(device types.DeviceID) {
	c.cm.Disconnect(device)
}

// ResumeDownload 请求重新启动下载阶段
func (c *Client) ResumeDownload() {
	c.cm.ResumeDownload()
}

// ConnectionState 返回当前连接状态
func (c *Client) ConnectionState() types.ConnectionState {
	return c.cm.GetConnectionState()
}

// DeviceConnectionState 返回指定设备的连接状态
func (c *Client) DeviceConnectionState(device types.DeviceID) types.ConnectionState {
	return c.cm.GetDeviceConnectionState(device)
}

// DevicesMatchingConnectionStates 返回状态匹配的设备列表
func (c *Client) DevicesMatchingConnectionStates(states []types.ConnectionState) []types.DeviceID {
	return c.cm.GetDevicesMatchingConnectionStates(states)
}

// SubscribeStateChanges 订阅连接状态变更事件
//
// 返回的订阅通道输出 types.ConnectionStateChanged。
func (c *Client) SubscribeStateChanges() (pkgif.Subscription, error) {
	return c.bus.Subscribe(new(types.ConnectionStateChanged), pkgif.BufSize(16))
}

// Close 停止客户端并释放资源
func (c *Client) Close(ctx context.Context) error {
	return c.app.Stop(ctx)
}
