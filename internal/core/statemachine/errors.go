package statemachine

import "errors"

var (
	// ErrInvalidDevice 设备标识为空（调用方契约错误）
	ErrInvalidDevice = errors.New("empty device id")

	// ErrClosed 状态机已关闭
	ErrClosed = errors.New("state machine closed")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid statemachine config")
)
