package types

// ConnectionStateChanged 连接状态变更事件
//
// 状态机每次状态迁移都会向事件总线发射一次本事件，
// 包括 disconnected→disconnected、connected→connected 的幂等重申。
// 进入 disconnected 时事件仍携带离场设备的标识（之后才清空 currentDevice）。
type ConnectionStateChanged struct {
	// Device 事件所属设备
	Device DeviceID

	// Previous 迁移前状态
	Previous ConnectionState

	// Current 迁移后状态
	Current ConnectionState
}
