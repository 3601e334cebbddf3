package config

import (
	"errors"
	"path/filepath"
)

// StorageConfig 本地存储配置
//
// 账户存储统一使用 BadgerDB 持久化。
// 测试代码应使用 t.TempDir() 创建临时目录，确保测试与生产一致。
type StorageConfig struct {
	// DataDir 数据目录
	DataDir string `json:"data_dir"`

	// SyncWrites 是否同步写入
	// 启用后每次写入都会同步到磁盘，更安全但性能较低
	SyncWrites bool `json:"sync_writes"`
}

// DefaultStorageConfig 返回默认配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:    "./data",
		SyncWrites: false,
	}
}

// DBPath 返回 BadgerDB 数据库目录
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "accounts.db")
}

// Validate 验证配置
func (c *StorageConfig) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is empty")
	}
	return nil
}
