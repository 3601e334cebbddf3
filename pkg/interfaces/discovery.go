package interfaces

import (
	"context"

	"github.com/dep2p/go-pbsync/pkg/types"
)

// DiscoverySink 接收发现结果
//
// 结果可能在任意 goroutine 上送达，实现方须转成自身队列事件。
type DiscoverySink interface {
	// DiscoveryComplete 档案记录解析完成
	DiscoveryComplete(device types.DeviceID, record *types.ProfileRecord)
}

// Discoverer 档案服务发现接口
//
// Lookup 为异步操作：立即返回，结果经 sink 回报。
// ctx 取消后不再回报。
type Discoverer interface {
	// Lookup 解析指定设备的档案记录
	Lookup(ctx context.Context, device types.DeviceID, sink DiscoverySink)

	// Close 关闭发现器
	Close() error
}
