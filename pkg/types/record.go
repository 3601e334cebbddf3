package types

import (
	"net"
	"strconv"
)

// ProfileRecord 服务发现解析出的档案记录
//
// 记录描述远端设备上 pbsync 档案服务的接入点。
// 只有 Service 与本地期望的档案标识一致的记录才会被状态机接受。
type ProfileRecord struct {
	// Device 记录所属的远端设备
	Device DeviceID `json:"device"`

	// Service 档案服务标识（例如 "/pbsync/1.0.0"）
	Service string `json:"service"`

	// Host 服务主机地址
	Host string `json:"host"`

	// Port 服务端口
	Port int `json:"port"`

	// Version 档案版本（可选）
	Version string `json:"version,omitempty"`
}

// Endpoint 返回 host:port 形式的拨号地址
func (r *ProfileRecord) Endpoint() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}
