// Package worker 实现连接 worker
//
// worker 是状态机之外的独立执行上下文，承担全部耗时 I/O：
// 档案会话握手、联系人下载、会话拆除。每次连接尝试创建一个
// Handler 实例（进入 connecting 时），回到 disconnected 时释放。
//
// # 命令与回报
//
// 状态机通过单向命令驱动 worker：
//
//	Connect(record)  -> WorkerSucceeded / WorkerFailed（恰好其一）
//	StartDownload    -> 无回报（失败只记日志）
//	Teardown         -> WorkerClosed
//	Abort            -> 最终仍以 WorkerClosed 结算（必要时合成）
//
// 命令在 Handler 自己的 goroutine 上顺序执行；Abort 例外，
// 它直接取消上下文并关闭传输以打断进行中的操作，同时启动一个
// 兜底定时器，保证即使 I/O 无法干净退出也会回报 WorkerClosed。
//
// # 会话协议
//
// 传输为 TCP + yamux 多路复用，每条命令一个流，行式协议：
//
//	握手流:  C: HELLO <profile> <device>      S: OK | ERR <reason>
//	下载流:  C: PULL <source>                 S: <name>;<number> ... END
package worker
