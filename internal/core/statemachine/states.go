package statemachine

import (
	"context"

	"github.com/dep2p/go-pbsync/pkg/types"
)

// dispatch 按当前状态分发事件（仅在 run goroutine 上调用）
func (m *Machine) dispatch(ev event) {
	log.Debug("处理事件", "event", ev.kind, "state", m.currentState(), "device", ev.device)

	switch m.currentState() {
	case types.StateDisconnected:
		m.processDisconnected(ev)
	case types.StateConnecting:
		m.processConnecting(ev)
	case types.StateConnected:
		m.processConnected(ev)
	case types.StateDisconnecting:
		m.processDisconnecting(ev)
	}
}

// ============================================================================
// 状态处理
// ============================================================================

func (m *Machine) processDisconnected(ev event) {
	switch ev.kind {
	case evConnect:
		// currentDevice 只在本状态可变
		m.setDevice(ev.device)
		m.transitionTo(types.StateConnecting)

	case evDisconnect:
		// 幂等确认：设备本就未连接
		m.emitTransition(ev.device, types.StateDisconnected, types.StateDisconnected)

	case evConnectTimeout, evDisconnectTimeout:
		// 过期定时器

	default:
		log.Debug("disconnected 状态忽略事件", "event", ev.kind)
	}
}

func (m *Machine) processConnecting(ev event) {
	switch ev.kind {
	case evDiscoveryComplete:
		m.handleDiscoveryComplete(ev)

	case evWorkerSucceeded:
		m.transitionTo(types.StateConnected)

	case evWorkerFailed:
		m.transitionTo(types.StateDisconnecting)

	case evConnectTimeout:
		if ev.gen != m.connectGen {
			return
		}
		log.Warn("连接超时，放弃本次尝试",
			"device", m.currentDevice(), "timeout", m.cfg.ConnectTimeout)
		m.transitionTo(types.StateDisconnecting)

	case evDisconnect:
		if ev.device != m.currentDevice() {
			log.Debug("断开请求的设备非当前设备，忽略",
				"requested", ev.device, "current", m.currentDevice())
			return
		}
		m.transitionTo(types.StateDisconnecting)

	case evConnect:
		if ev.device != m.currentDevice() {
			log.Warn("已在连接其他设备，请求被忽略",
				"requested", ev.device, "current", m.currentDevice())
		}

	default:
		log.Debug("connecting 状态忽略事件", "event", ev.kind)
	}
}

func (m *Machine) processConnected(ev event) {
	switch ev.kind {
	case evConnect:
		if ev.device != m.currentDevice() {
			log.Warn("已连接其他设备", "requested", ev.device, "current", m.currentDevice())
		}
		// 无论请求针对哪个设备，都重申当前连接
		m.emitTransition(m.currentDevice(), types.StateConnected, types.StateConnected)

	case evDisconnect:
		if ev.device != m.currentDevice() {
			log.Debug("断开请求的设备非当前设备，忽略",
				"requested", ev.device, "current", m.currentDevice())
			return
		}
		m.transitionTo(types.StateDisconnecting)

	case evResumeDownload:
		m.worker.StartDownload()

	case evWorkerClosed:
		// 会话被对端（或底层传输）关闭；worker 已结算，无需拆除
		log.Warn("档案会话意外关闭", "device", m.currentDevice())
		m.worker = nil
		m.transitionTo(types.StateDisconnecting)

	case evWorkerFailed:
		log.Warn("档案会话报告失败", "device", m.currentDevice())
		m.transitionTo(types.StateDisconnecting)

	case evConnectTimeout, evDisconnectTimeout:
		// 过期定时器

	default:
		log.Debug("connected 状态忽略事件", "event", ev.kind)
	}
}

func (m *Machine) processDisconnecting(ev event) {
	switch ev.kind {
	case evWorkerClosed:
		m.worker = nil
		m.transitionTo(types.StateDisconnected)

	case evDisconnectTimeout:
		if ev.gen != m.disconnectGen {
			return
		}
		log.Warn("断开超时，强制中止 worker",
			"device", m.currentDevice(), "timeout", m.cfg.DisconnectTimeout)
		if m.worker != nil {
			m.worker.Abort()
		}

	case evConnect, evDisconnect:
		// 暂存，回到 disconnected 后原序重放
		log.Debug("断开进行中，请求暂存", "event", ev.kind, "device", ev.device)
		m.deferred = append(m.deferred, ev)

	case evConnectTimeout:
		// 过期定时器

	default:
		log.Debug("disconnecting 状态忽略事件", "event", ev.kind)
	}
}

// handleDiscoveryComplete 校验发现结果并下发 worker 连接
func (m *Machine) handleDiscoveryComplete(ev event) {
	if ev.device != m.currentDevice() || ev.record == nil {
		log.Warn("发现结果与当前设备不符，忽略",
			"result", ev.device, "current", m.currentDevice())
		return
	}
	if ev.record.Service != m.cfg.ProfileID {
		log.Warn("发现记录的服务标识不符，忽略",
			"device", ev.device, "service", ev.record.Service, "expected", m.cfg.ProfileID)
		return
	}

	log.Debug("发现完成，建立档案会话",
		"device", ev.device, "endpoint", ev.record.Endpoint())
	m.worker.Connect(ev.record)
}

// ============================================================================
// 状态迁移
// ============================================================================

// transitionTo 执行一次状态迁移
//
// 顺序：退出旧状态 → 更新快照 → 进入新状态 → 发射变更事件 →
// 清理离场设备（仅进入 disconnected）→ 重放暂存请求（仅离开 disconnecting）。
func (m *Machine) transitionTo(next types.ConnectionState) {
	prev := m.currentState()
	device := m.currentDevice()

	m.exitState(prev)
	m.setState(next)
	m.enterState(next)
	m.emitTransition(device, prev, next)

	if next == types.StateDisconnected {
		m.setDevice("")
	}
	if prev == types.StateDisconnecting {
		m.drainDeferred()
	}
}

// exitState 旧状态清理
func (m *Machine) exitState(state types.ConnectionState) {
	switch state {
	case types.StateConnecting:
		m.stopConnectTimer()
		if m.lookupCancel != nil {
			m.lookupCancel()
			m.lookupCancel = nil
		}
	case types.StateDisconnecting:
		m.stopDisconnectTimer()
	}
}

// enterState 新状态动作
func (m *Machine) enterState(state types.ConnectionState) {
	switch state {
	case types.StateConnecting:
		device := m.currentDevice()
		m.worker = m.factory.NewWorker(device, m)

		lookupCtx, cancel := context.WithCancel(m.ctx)
		m.lookupCancel = cancel
		m.disc.Lookup(lookupCtx, device, m)

		m.armConnectTimer()

	case types.StateConnected:
		if m.cfg.AutoDownload {
			m.worker.StartDownload()
		}

	case types.StateDisconnecting:
		if m.worker != nil {
			m.worker.Teardown()
			m.armDisconnectTimer()
		} else {
			// worker 已结算（对端关闭），直接走正常结算路径
			m.post(event{kind: evWorkerClosed, device: m.currentDevice()})
		}
	}
}

// drainDeferred 原序重放暂存请求
//
// 先取快照再分发：重放过程可能再次进入 disconnecting 并产生新的暂存。
func (m *Machine) drainDeferred() {
	if len(m.deferred) == 0 {
		return
	}

	pending := m.deferred
	m.deferred = nil
	log.Debug("重放暂存请求", "count", len(pending))

	for _, ev := range pending {
		m.dispatch(ev)
	}
}

// emitTransition 发射状态变更事件
func (m *Machine) emitTransition(device types.DeviceID, prev, next types.ConnectionState) {
	log.Info("连接状态变更", "device", device, "previous", prev, "current", next)

	err := m.emitter.Emit(types.ConnectionStateChanged{
		Device:   device,
		Previous: prev,
		Current:  next,
	})
	if err != nil {
		log.Warn("状态变更事件发射失败", "err", err)
	}
}
