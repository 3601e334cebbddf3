package config

import (
	"errors"
	"time"
)

// 连接状态机超时默认值
const (
	// DefaultConnectTimeout 连接超时
	DefaultConnectTimeout = 10 * time.Second

	// DefaultDisconnectTimeout 断开超时
	DefaultDisconnectTimeout = 3 * time.Second

	// DefaultProfileID 档案服务标识
	DefaultProfileID = "/pbsync/1.0.0"
)

// ClientConfig 连接状态机配置
type ClientConfig struct {
	// ProfileID 期望的档案服务标识
	//
	// 发现记录的 Service 与此不一致时会被忽略。
	ProfileID string `json:"profile_id"`

	// ConnectTimeout 连接超时
	//
	// connecting 状态停留超过该时长即放弃本次尝试，进入 disconnecting。
	ConnectTimeout Duration `json:"connect_timeout"`

	// DisconnectTimeout 断开超时
	//
	// disconnecting 状态停留超过该时长即强制中止 worker。
	DisconnectTimeout Duration `json:"disconnect_timeout"`

	// AutoDownload 连接建立后是否自动启动下载
	AutoDownload bool `json:"auto_download"`
}

// DefaultClientConfig 返回默认配置
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ProfileID:         DefaultProfileID,
		ConnectTimeout:    Duration(DefaultConnectTimeout),
		DisconnectTimeout: Duration(DefaultDisconnectTimeout),
		AutoDownload:      true,
	}
}

// Validate 验证配置
func (c *ClientConfig) Validate() error {
	if c.ProfileID == "" {
		return errors.New("profile_id is empty")
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("connect_timeout must be positive")
	}
	if c.DisconnectTimeout <= 0 {
		return errors.New("disconnect_timeout must be positive")
	}
	return nil
}
