// Package statemachine 实现单设备连接状态机
//
// 状态机在单一 goroutine 上顺序处理事件，对外请求（Connect/Disconnect/
// ResumeDownload）与协作方回报（发现结果、worker 回报、定时器超时）统一
// 经内部队列进入事件循环，彻底避免并发状态变更。
//
// 状态迁移图：
//
//	disconnected ──connect──▶ connecting ──worker成功──▶ connected
//	      ▲                       │                          │
//	      │                  失败/超时/断开               断开/对端关闭
//	      │                       ▼                          │
//	      └─────worker关闭─── disconnecting ◀────────────────┘
//
// 关键约束：
//   - connecting 停留超过 ConnectTimeout、disconnecting 停留超过
//     DisconnectTimeout 分别触发放弃与强制中止
//   - disconnecting 期间收到的 connect/disconnect 请求按序暂存，
//     回到 disconnected 后原序重放
//   - currentDevice 只在 disconnected 状态可变；进入 disconnected
//     时先发射携带离场设备的变更事件，再清空设备
//   - 每次状态迁移发射一次 ConnectionStateChanged 事件，包括
//     disconnected→disconnected、connected→connected 的幂等重申
package statemachine
