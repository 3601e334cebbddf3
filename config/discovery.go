package config

import (
	"errors"
	"time"
)

// 服务发现默认值
const (
	// DefaultServiceTag mDNS 服务标签
	DefaultServiceTag = "_pbsync._tcp"

	// DefaultMDNSDomain mDNS 域名
	DefaultMDNSDomain = "local"

	// DefaultLookupTimeout 单次查询超时
	DefaultLookupTimeout = 5 * time.Second
)

// DiscoveryConfig 服务发现配置
type DiscoveryConfig struct {
	// ServiceTag mDNS 服务标签，默认 "_pbsync._tcp"
	ServiceTag string `json:"service_tag"`

	// Domain mDNS 域名，默认 "local"
	Domain string `json:"domain"`

	// LookupTimeout 单次查询超时
	LookupTimeout Duration `json:"lookup_timeout"`
}

// DefaultDiscoveryConfig 返回默认配置
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		ServiceTag:    DefaultServiceTag,
		Domain:        DefaultMDNSDomain,
		LookupTimeout: Duration(DefaultLookupTimeout),
	}
}

// Validate 验证配置
func (c *DiscoveryConfig) Validate() error {
	if c.ServiceTag == "" {
		return errors.New("service_tag is empty")
	}
	if c.Domain == "" {
		return errors.New("domain is empty")
	}
	if c.LookupTimeout <= 0 {
		return errors.New("lookup_timeout must be positive")
	}
	return nil
}
