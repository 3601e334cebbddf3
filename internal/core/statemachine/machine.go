package statemachine

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-pbsync/internal/util/logger"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

var log = logger.Logger("statemachine")

// Machine 单设备连接状态机
//
// 公共 API 与协作方回调只负责把事件投入队列；
// 真正的状态变更全部发生在 run goroutine 上。
type Machine struct {
	cfg     Config
	clk     clock.Clock
	disc    pkgif.Discoverer
	factory pkgif.WorkerFactory
	store   pkgif.AccountStore
	emitter pkgif.Emitter

	ctx    context.Context
	cancel context.CancelFunc

	inbox    chan event
	deferred []event

	// mu 保护跨线程读取的状态快照（state/device）
	mu     sync.RWMutex
	state  types.ConnectionState
	device types.DeviceID

	// 以下字段仅在 run goroutine 上访问
	worker          pkgif.Worker
	lookupCancel    context.CancelFunc
	connectTimer    *clock.Timer
	connectGen      uint64
	disconnectTimer *clock.Timer
	disconnectGen   uint64

	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

var (
	_ pkgif.ConnectionManager = (*Machine)(nil)
	_ pkgif.DiscoverySink     = (*Machine)(nil)
	_ pkgif.WorkerSink        = (*Machine)(nil)
)

// New 创建状态机
//
// 构造时会清理上次运行遗留的脏账户（失败只记日志，不阻止启动）。
func New(cfg Config, disc pkgif.Discoverer, factory pkgif.WorkerFactory, store pkgif.AccountStore, bus pkgif.EventBus, clk clock.Clock) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	emitter, err := bus.Emitter(new(types.ConnectionStateChanged), pkgif.Stateful())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		cfg:     cfg,
		clk:     clk,
		disc:    disc,
		factory: factory,
		store:   store,
		emitter: emitter,
		ctx:     ctx,
		cancel:  cancel,
		inbox:   make(chan event, inboxBuffer),
		state:   types.StateDisconnected,
	}
	m.removeUnclean()
	return m, nil
}

// Start 启动事件循环
func (m *Machine) Start() {
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go m.run()
	})
}

// Close 停止状态机（幂等）
//
// 取消事件循环并等待其退出；在途 worker 被强制中止。
func (m *Machine) Close() error {
	m.closeOnce.Do(func() {
		log.Info("关闭状态机")
		m.cancel()
		m.wg.Wait()
		_ = m.emitter.Close()
	})
	return nil
}

// ============================================================================
// 公共 API（只入队，不阻塞等待结果）
// ============================================================================

// Connect 请求连接指定设备
func (m *Machine) Connect(device types.DeviceID) error {
	if device.Empty() {
		return ErrInvalidDevice
	}
	if m.ctx.Err() != nil {
		return ErrClosed
	}

	m.post(event{kind: evConnect, device: device})
	return nil
}

// Disconnect 请求断开指定设备
func (m *Machine) Disconnect(device types.DeviceID) {
	m.post(event{kind: evDisconnect, device: device})
}

// ResumeDownload 请求重新启动下载阶段
//
// 每次调用都在入队前尽力清理脏账户，无论当前连接状态如何。
func (m *Machine) ResumeDownload() {
	m.removeUnclean()
	m.post(event{kind: evResumeDownload})
}

// removeUnclean 尽力清理脏账户（失败只记日志）
func (m *Machine) removeUnclean() {
	if n, err := m.store.RemoveUnclean(); err != nil {
		log.Warn("清理脏账户失败", "err", err)
	} else if n > 0 {
		log.Info("已清理脏账户", "count", n)
	}
}

// GetConnectionState 返回当前连接状态
func (m *Machine) GetConnectionState() types.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// GetDeviceConnectionState 返回指定设备的连接状态
func (m *Machine) GetDeviceConnectionState(device types.DeviceID) types.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if device != m.device {
		return types.StateDisconnected
	}
	return m.state
}

// GetDevicesMatchingConnectionStates 返回状态匹配的设备列表
func (m *Machine) GetDevicesMatchingConnectionStates(states []types.ConnectionState) []types.DeviceID {
	m.mu.RLock()
	state, device := m.state, m.device
	m.mu.RUnlock()

	if device.Empty() {
		return nil
	}
	for _, s := range states {
		if s == state {
			return []types.DeviceID{device}
		}
	}
	return nil
}

// ============================================================================
// 协作方回调（转成队列事件，不直接变更状态）
// ============================================================================

// DiscoveryComplete 实现 DiscoverySink
func (m *Machine) DiscoveryComplete(device types.DeviceID, record *types.ProfileRecord) {
	m.post(event{kind: evDiscoveryComplete, device: device, record: record})
}

// WorkerSucceeded 实现 WorkerSink
func (m *Machine) WorkerSucceeded(device types.DeviceID) {
	m.post(event{kind: evWorkerSucceeded, device: device})
}

// WorkerFailed 实现 WorkerSink
func (m *Machine) WorkerFailed(device types.DeviceID) {
	m.post(event{kind: evWorkerFailed, device: device})
}

// WorkerClosed 实现 WorkerSink
func (m *Machine) WorkerClosed(device types.DeviceID) {
	m.post(event{kind: evWorkerClosed, device: device})
}

// post 投递事件；状态机关闭后静默丢弃
func (m *Machine) post(ev event) {
	select {
	case m.inbox <- ev:
	case <-m.ctx.Done():
	}
}

// ============================================================================
// 事件循环
// ============================================================================

// run 顺序消费队列事件
func (m *Machine) run() {
	defer m.wg.Done()
	defer m.cleanup()

	for {
		select {
		case <-m.ctx.Done():
			return
		case ev := <-m.inbox:
			m.dispatch(ev)
		}
	}
}

// cleanup 事件循环退出时释放资源
func (m *Machine) cleanup() {
	m.stopConnectTimer()
	m.stopDisconnectTimer()
	if m.lookupCancel != nil {
		m.lookupCancel()
		m.lookupCancel = nil
	}
	if m.worker != nil {
		m.worker.Abort()
		m.worker = nil
	}
}

// ============================================================================
// 定时器（代次计数用于识别过期超时事件）
// ============================================================================

func (m *Machine) armConnectTimer() {
	m.connectGen++
	gen := m.connectGen
	m.connectTimer = m.clk.AfterFunc(m.cfg.ConnectTimeout, func() {
		m.post(event{kind: evConnectTimeout, gen: gen})
	})
}

func (m *Machine) stopConnectTimer() {
	if m.connectTimer != nil {
		m.connectTimer.Stop()
		m.connectTimer = nil
	}
	m.connectGen++
}

func (m *Machine) armDisconnectTimer() {
	m.disconnectGen++
	gen := m.disconnectGen
	m.disconnectTimer = m.clk.AfterFunc(m.cfg.DisconnectTimeout, func() {
		m.post(event{kind: evDisconnectTimeout, gen: gen})
	})
}

func (m *Machine) stopDisconnectTimer() {
	if m.disconnectTimer != nil {
		m.disconnectTimer.Stop()
		m.disconnectTimer = nil
	}
	m.disconnectGen++
}

// ============================================================================
// 状态快照
// ============================================================================

func (m *Machine) currentState() types.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Machine) currentDevice() types.DeviceID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device
}

func (m *Machine) setState(s types.ConnectionState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Machine) setDevice(d types.DeviceID) {
	m.mu.Lock()
	m.device = d
	m.mu.Unlock()
}
