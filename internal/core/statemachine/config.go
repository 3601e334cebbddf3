package statemachine

import (
	"fmt"
	"time"

	"github.com/dep2p/go-pbsync/config"
)

// inboxBuffer 事件队列容量
//
// 事件循环是唯一消费者且处理很快，队列只为吸收突发回报。
const inboxBuffer = 32

// Config 状态机配置
type Config struct {
	// ProfileID 期望的档案服务标识
	ProfileID string

	// ConnectTimeout 连接阶段最长停留时间
	ConnectTimeout time.Duration

	// DisconnectTimeout 断开阶段最长停留时间
	DisconnectTimeout time.Duration

	// AutoDownload 连接建立后是否自动启动下载
	AutoDownload bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ProfileID:         config.DefaultProfileID,
		ConnectTimeout:    config.DefaultConnectTimeout,
		DisconnectTimeout: config.DefaultDisconnectTimeout,
		AutoDownload:      true,
	}
}

// ConfigFromUnified 从统一配置提取状态机配置
func ConfigFromUnified(c *config.Config) Config {
	if c == nil {
		return DefaultConfig()
	}
	return Config{
		ProfileID:         c.Client.ProfileID,
		ConnectTimeout:    time.Duration(c.Client.ConnectTimeout),
		DisconnectTimeout: time.Duration(c.Client.DisconnectTimeout),
		AutoDownload:      c.Client.AutoDownload,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.ProfileID == "" {
		return fmt.Errorf("%w: profile id is empty", ErrInvalidConfig)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: connect timeout must be positive", ErrInvalidConfig)
	}
	if c.DisconnectTimeout <= 0 {
		return fmt.Errorf("%w: disconnect timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
