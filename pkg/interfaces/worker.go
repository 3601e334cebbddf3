package interfaces

import "github.com/dep2p/go-pbsync/pkg/types"

// Worker 连接 worker 接口
//
// Worker 在独立 goroutine 上执行耗时的握手/下载/拆除操作。
// 所有命令都是单向投递，状态机不等待返回；结果经 WorkerSink 回报。
// 除 Abort 外，状态机在上一条命令结算前不会发出新命令。
type Worker interface {
	// Connect 使用发现记录建立档案会话
	//
	// 结果为 WorkerSucceeded 或 WorkerFailed（二者恰好其一）。
	Connect(record *types.ProfileRecord)

	// StartDownload 启动（或重启）后台下载
	StartDownload()

	// Teardown 拆除会话，完成后回报 WorkerClosed
	Teardown()

	// Abort 强制中止（超时逃生口）
	//
	// 可在任意时刻调用以打断进行中的操作；无论中止是否干净，
	// 最终必须回报 WorkerClosed 以释放资源。
	Abort()
}

// WorkerSink 接收 worker 回报
//
// 实现方（状态机）须把回报转成自身队列中的普通事件，
// 不得在回调上下文中直接变更状态。
type WorkerSink interface {
	// WorkerSucceeded 握手成功
	WorkerSucceeded(device types.DeviceID)

	// WorkerFailed 建立阶段失败
	WorkerFailed(device types.DeviceID)

	// WorkerClosed 会话已拆除（或已强制中止）
	WorkerClosed(device types.DeviceID)
}

// WorkerFactory 按连接尝试创建 worker
//
// 每次进入 connecting 状态创建一个实例，回到 disconnected 时释放。
type WorkerFactory interface {
	// NewWorker 创建并启动一个 worker
	NewWorker(device types.DeviceID, sink WorkerSink) Worker
}
