// Package sdp 提供档案服务发现
//
// Resolver 通过 mDNS 查询远端设备广播的 pbsync 档案记录
// （服务标签默认 "_pbsync._tcp"，TXT 字段携带 device/profile/version）。
// Lookup 为异步操作：结果经 DiscoverySink 回报，由状态机
// 转成自身队列中的 DiscoveryComplete 事件处理。
//
// 设备不匹配的记录在本包内过滤；档案标识是否匹配由状态机判定。
// StaticResolver 用于已知接入点的部署与测试。
package sdp
