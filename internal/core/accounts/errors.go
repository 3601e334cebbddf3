package accounts

import "errors"

var (
	// ErrClosed 存储已关闭
	ErrClosed = errors.New("account store closed")

	// ErrAccountNotFound 账户不存在
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid accounts config")
)
