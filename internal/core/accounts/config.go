package accounts

import "github.com/dep2p/go-pbsync/config"

// Config accounts 模块配置
type Config struct {
	// Path BadgerDB 数据库目录（必需）
	Path string

	// SyncWrites 是否同步写入
	SyncWrites bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Path:       "./data/accounts.db",
		SyncWrites: false,
	}
}

// ConfigFromUnified 从统一配置创建 accounts 配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()

	if cfg == nil {
		return c
	}

	if cfg.Storage.DataDir != "" {
		c.Path = cfg.Storage.DBPath()
	}
	c.SyncWrites = cfg.Storage.SyncWrites

	return c
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrInvalidConfig
	}
	return nil
}
