// Package eventbus 实现进程内事件总线
//
// 事件总线是连接状态变更通知的投递通道：状态机每次迁移
// 发射一个 types.ConnectionStateChanged 值，其他组件订阅该类型
// 即可观察连接生命周期。订阅与发射用指针作类型令牌，事件本身
// 按值投递。
//
// # 使用示例
//
//	bus := eventbus.NewBus()
//
//	sub, _ := bus.Subscribe(new(types.ConnectionStateChanged))
//	defer sub.Close()
//
//	em, _ := bus.Emitter(new(types.ConnectionStateChanged))
//	defer em.Close()
//
//	em.Emit(types.ConnectionStateChanged{...})
//	evt := (<-sub.Out()).(types.ConnectionStateChanged)
//
// 发射是非阻塞的：订阅者缓冲区满时事件被丢弃并记录慢消费者警告。
package eventbus
