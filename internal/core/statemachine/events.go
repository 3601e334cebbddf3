package statemachine

import "github.com/dep2p/go-pbsync/pkg/types"

// eventKind 队列事件类型
type eventKind int

const (
	evConnect eventKind = iota + 1
	evDisconnect
	evResumeDownload
	evDiscoveryComplete
	evWorkerSucceeded
	evWorkerFailed
	evWorkerClosed
	evConnectTimeout
	evDisconnectTimeout
)

// String 返回事件类型的可读名称
func (k eventKind) String() string {
	switch k {
	case evConnect:
		return "connect"
	case evDisconnect:
		return "disconnect"
	case evResumeDownload:
		return "resume_download"
	case evDiscoveryComplete:
		return "discovery_complete"
	case evWorkerSucceeded:
		return "worker_succeeded"
	case evWorkerFailed:
		return "worker_failed"
	case evWorkerClosed:
		return "worker_closed"
	case evConnectTimeout:
		return "connect_timeout"
	case evDisconnectTimeout:
		return "disconnect_timeout"
	default:
		return "unknown"
	}
}

// event 状态机队列事件
//
// 所有外部输入统一包装为 event 投入队列，由事件循环顺序消费。
type event struct {
	kind   eventKind
	device types.DeviceID
	record *types.ProfileRecord

	// gen 定时器代次
	//
	// 超时事件携带触发时的代次，与当前代次不符即为过期事件，直接丢弃。
	gen uint64
}
