// Package interfaces 定义 pbsync 公共接口
//
// 本包只含接口与设置类型，由 internal/core 下各模块实现，
// 调用方统一依赖本包而非具体实现。
package interfaces

import "github.com/dep2p/go-pbsync/pkg/types"

// ConnectionManager 连接生命周期管理接口
//
// 所有请求方法只入队、不阻塞；结果通过事件总线的
// ConnectionStateChanged 事件与 GetConnectionState 观察。
type ConnectionManager interface {
	// Connect 请求连接指定设备
	//
	// 唯一的同步失败是空设备标识（契约错误），立即返回 ErrInvalidDevice；
	// 其余结果均为异步。
	Connect(device types.DeviceID) error

	// Disconnect 请求断开指定设备
	//
	// 设备未连接时发射一次 disconnected→disconnected 幂等确认事件。
	Disconnect(device types.DeviceID)

	// ResumeDownload 请求重新启动下载阶段（未连接时为空操作）
	ResumeDownload()

	// GetConnectionState 返回当前连接状态
	GetConnectionState() types.ConnectionState

	// GetDeviceConnectionState 返回指定设备的连接状态
	//
	// 非当前设备一律返回 StateDisconnected。
	GetDeviceConnectionState(device types.DeviceID) types.ConnectionState

	// GetDevicesMatchingConnectionStates 返回状态匹配的设备列表
	//
	// 每个状态机实例至多管理一个设备，返回列表长度为 0 或 1。
	GetDevicesMatchingConnectionStates(states []types.ConnectionState) []types.DeviceID

	// Close 停止状态机（幂等）：取消定时器、终止 worker、退出事件循环
	Close() error
}
