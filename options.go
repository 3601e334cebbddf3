package pbsync

import (
	"errors"
	"time"

	"github.com/dep2p/go-pbsync/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	cfg *config.Config
}

func newOptions() *options {
	return &options{cfg: config.NewConfig()}
}

// WithConfig 使用完整配置对象
//
// 与其他选项组合时应放在最前，后续选项在其之上覆盖。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.cfg = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.cfg = cfg
		return nil
	}
}

// WithDataDir 设置数据目录
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("data dir is empty")
		}
		o.cfg.Storage.DataDir = dir
		return nil
	}
}

// WithProfileID 设置档案服务标识
func WithProfileID(id string) Option {
	return func(o *options) error {
		if id == "" {
			return errors.New("profile id is empty")
		}
		o.cfg.Client.ProfileID = id
		return nil
	}
}

// WithConnectTimeout 设置连接超时
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("connect timeout must be positive")
		}
		o.cfg.Client.ConnectTimeout = config.Duration(d)
		return nil
	}
}

// WithDisconnectTimeout 设置断开超时
func WithDisconnectTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("disconnect timeout must be positive")
		}
		o.cfg.Client.DisconnectTimeout = config.Duration(d)
		return nil
	}
}

// WithAutoDownload 设置连接建立后是否自动启动下载
func WithAutoDownload(enabled bool) Option {
	return func(o *options) error {
		o.cfg.Client.AutoDownload = enabled
		return nil
	}
}

// WithServiceTag 设置 mDNS 服务标签
func WithServiceTag(tag string) Option {
	return func(o *options) error {
		if tag == "" {
			return errors.New("service tag is empty")
		}
		o.cfg.Discovery.ServiceTag = tag
		return nil
	}
}
