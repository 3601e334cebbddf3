package sdp

import (
	"errors"
	"time"

	"github.com/dep2p/go-pbsync/config"
)

// Config 服务发现配置
type Config struct {
	// ServiceTag mDNS 服务标签
	ServiceTag string

	// Domain mDNS 域名
	Domain string

	// LookupTimeout 单次查询超时
	LookupTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ServiceTag:    config.DefaultServiceTag,
		Domain:        config.DefaultMDNSDomain,
		LookupTimeout: config.DefaultLookupTimeout,
	}
}

// ConfigFromUnified 从统一配置创建发现配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()

	if cfg == nil {
		return c
	}

	if cfg.Discovery.ServiceTag != "" {
		c.ServiceTag = cfg.Discovery.ServiceTag
	}
	if cfg.Discovery.Domain != "" {
		c.Domain = cfg.Discovery.Domain
	}
	if d := cfg.Discovery.LookupTimeout.Duration(); d > 0 {
		c.LookupTimeout = d
	}

	return c
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.ServiceTag == "" {
		return errors.New("service tag is empty")
	}
	if c.LookupTimeout <= 0 {
		return errors.New("lookup timeout must be positive")
	}
	return nil
}
