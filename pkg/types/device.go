// Package types 定义 pbsync 公共值类型
//
// 本包只包含跨模块共享的小型值类型，不依赖任何内部实现包。
package types

// DeviceID 远端设备标识
//
// 设备标识是稳定的字符串（通常为设备硬件地址或节点 ID），
// 用于匹配发现记录和连接请求的目标。
type DeviceID string

// Empty 判断设备标识是否为空
func (d DeviceID) Empty() bool {
	return d == ""
}

// String 返回字符串表示
func (d DeviceID) String() string {
	return string(d)
}
