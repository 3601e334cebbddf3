package worker

import (
	"errors"
	"time"

	"github.com/dep2p/go-pbsync/config"
)

const (
	// DefaultAbortGrace 强制中止后合成 WorkerClosed 的兜底时限
	DefaultAbortGrace = time.Second

	// commandBuffer 命令队列长度
	commandBuffer = 8

	// maxLineBytes 协议单行长度上限
	maxLineBytes = 4096
)

// Config worker 模块配置
type Config struct {
	// ProfileID 握手时声明的档案标识
	ProfileID string

	// AbortGrace 强制中止兜底时限
	AbortGrace time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ProfileID:  config.DefaultProfileID,
		AbortGrace: DefaultAbortGrace,
	}
}

// ConfigFromUnified 从统一配置创建 worker 配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()

	if cfg == nil {
		return c
	}

	if cfg.Client.ProfileID != "" {
		c.ProfileID = cfg.Client.ProfileID
	}

	return c
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.ProfileID == "" {
		return errors.New("profile id is empty")
	}
	if c.AbortGrace <= 0 {
		return errors.New("abort grace must be positive")
	}
	return nil
}
