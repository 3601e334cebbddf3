package types

// ConnectionState 连接状态
//
// 状态机在任意时刻恰好处于四个状态之一，
// GetConnectionState 以此为唯一真源。
type ConnectionState int32

const (
	// StateDisconnected 未连接（初始状态，currentDevice 为空）
	StateDisconnected ConnectionState = iota

	// StateConnecting 连接建立中（发现 + 握手）
	StateConnecting

	// StateConnected 已连接（后台下载阶段）
	StateConnected

	// StateDisconnecting 断开中（worker 拆除会话）
	StateDisconnecting
)

// String 返回状态名称
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}
