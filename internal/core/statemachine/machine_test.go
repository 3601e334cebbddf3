package statemachine

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-pbsync/internal/core/eventbus"
	"github.com/dep2p/go-pbsync/internal/discovery/sdp"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

// ============================================================================
// 测试替身
// ============================================================================

// fakeWorker 记录收到的命令，按配置自动回报
type fakeWorker struct {
	device types.DeviceID
	sink   pkgif.WorkerSink

	autoSucceed bool
	autoFail    bool
	autoClose   bool

	mu        sync.Mutex
	connects  []*types.ProfileRecord
	downloads int
	teardowns int
	aborts    int

	closedOnce sync.Once
}

func (w *fakeWorker) Connect(record *types.ProfileRecord) {
	w.mu.Lock()
	w.connects = append(w.connects, record)
	w.mu.Unlock()

	switch {
	case w.autoSucceed:
		w.sink.WorkerSucceeded(w.device)
	case w.autoFail:
		w.sink.WorkerFailed(w.device)
	}
}

func (w *fakeWorker) StartDownload() {
	w.mu.Lock()
	w.downloads++
	w.mu.Unlock()
}

func (w *fakeWorker) Teardown() {
	w.mu.Lock()
	w.teardowns++
	w.mu.Unlock()

	if w.autoClose {
		w.reportClosed()
	}
}

func (w *fakeWorker) Abort() {
	w.mu.Lock()
	w.aborts++
	w.mu.Unlock()

	// 中止无论是否干净，最终必须结算
	w.reportClosed()
}

func (w *fakeWorker) reportClosed() {
	w.closedOnce.Do(func() {
		w.sink.WorkerClosed(w.device)
	})
}

func (w *fakeWorker) counts() (connects, downloads, teardowns, aborts int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.connects), w.downloads, w.teardowns, w.aborts
}

// fakeFactory 创建 fakeWorker 并保留引用
type fakeFactory struct {
	autoSucceed bool
	autoFail    bool
	autoClose   bool

	mu      sync.Mutex
	workers []*fakeWorker
}

func (f *fakeFactory) NewWorker(device types.DeviceID, sink pkgif.WorkerSink) pkgif.Worker {
	w := &fakeWorker{
		device:      device,
		sink:        sink,
		autoSucceed: f.autoSucceed,
		autoFail:    f.autoFail,
		autoClose:   f.autoClose,
	}

	f.mu.Lock()
	f.workers = append(f.workers, w)
	f.mu.Unlock()
	return w
}

func (f *fakeFactory) worker(i int) *fakeWorker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workers[i]
}

func (f *fakeFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.workers)
}

// fakeStore 记录脏账户清理次数
type fakeStore struct {
	mu          sync.Mutex
	removeCalls int
}

func (s *fakeStore) CreateAccount(types.DeviceID) (string, error) { return "acct", nil }
func (s *fakeStore) AddEntry(string, types.ContactEntry) error    { return nil }
func (s *fakeStore) MarkClean(string) error                       { return nil }
func (s *fakeStore) Close() error                                 { return nil }

func (s *fakeStore) RemoveUnclean() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCalls++
	return 0, nil
}

func (s *fakeStore) removed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeCalls
}

// ============================================================================
// 测试脚手架
// ============================================================================

type harness struct {
	t        *testing.T
	clk      *clock.Mock
	resolver *sdp.StaticResolver
	factory  *fakeFactory
	store    *fakeStore
	sub      pkgif.Subscription
	machine  *Machine
}

func newHarness(t *testing.T, factory *fakeFactory) *harness {
	t.Helper()

	bus := eventbus.NewBus()
	sub, err := bus.Subscribe(new(types.ConnectionStateChanged), pkgif.BufSize(16))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	clk := clock.NewMock()
	resolver := sdp.NewStaticResolver()
	store := &fakeStore{}

	m, err := New(DefaultConfig(), resolver, factory, store, bus, clk)
	require.NoError(t, err)
	m.Start()
	t.Cleanup(func() { _ = m.Close() })

	return &harness{
		t:        t,
		clk:      clk,
		resolver: resolver,
		factory:  factory,
		store:    store,
		sub:      sub,
		machine:  m,
	}
}

// expect 等待并断言下一条状态变更事件
func (h *harness) expect(device types.DeviceID, prev, next types.ConnectionState) {
	h.t.Helper()

	select {
	case raw := <-h.sub.Out():
		require.Equal(h.t, types.ConnectionStateChanged{
			Device:   device,
			Previous: prev,
			Current:  next,
		}, raw.(types.ConnectionStateChanged))
	case <-time.After(2 * time.Second):
		h.t.Fatalf("timed out waiting for %s→%s (%s)", prev, next, device)
	}
}

// barrier 用幂等断开确认证明事件循环已消费完之前的全部事件
//
// 只在 disconnected 态可用：其他状态下无关设备的断开请求被静默忽略。
func (h *harness) barrier() {
	h.t.Helper()
	h.machine.Disconnect("barrier-device")
	h.expect("barrier-device", types.StateDisconnected, types.StateDisconnected)
}

// reassert 用同设备连接重申作为 connected 态下的事件循环屏障
func (h *harness) reassert(device types.DeviceID) {
	h.t.Helper()
	require.NoError(h.t, h.machine.Connect(device))
	h.expect(device, types.StateConnected, types.StateConnected)
}

func record(device types.DeviceID) *types.ProfileRecord {
	return &types.ProfileRecord{
		Device:  device,
		Service: DefaultConfig().ProfileID,
		Host:    "127.0.0.1",
		Port:    40000,
	}
}

// ============================================================================
// 测试
// ============================================================================

// TestMachine_ConnectHappyPath 测试完整连接流程
func TestMachine_ConnectHappyPath(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoSucceed: true})
	h.resolver.Add(record("dev-1"))

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateConnected)

	assert.Equal(t, types.StateConnected, h.machine.GetConnectionState())
	assert.Equal(t, types.StateConnected, h.machine.GetDeviceConnectionState("dev-1"))
	assert.Equal(t, types.StateDisconnected, h.machine.GetDeviceConnectionState("dev-2"))
	assert.Equal(t, []types.DeviceID{"dev-1"},
		h.machine.GetDevicesMatchingConnectionStates([]types.ConnectionState{types.StateConnected}))
	assert.Empty(t,
		h.machine.GetDevicesMatchingConnectionStates([]types.ConnectionState{types.StateConnecting}))

	w := h.factory.worker(0)
	connects, downloads, _, _ := w.counts()
	assert.Equal(t, 1, connects)
	assert.Equal(t, 1, downloads, "自动下载应在进入 connected 时启动")

	// 连接成功后，已停止的连接定时器不应再触发任何迁移
	h.clk.Add(DefaultConfig().ConnectTimeout)
	h.reassert("dev-1")
	assert.Equal(t, types.StateConnected, h.machine.GetConnectionState())
}

// TestMachine_EmptyDeviceRejected 测试空设备标识被同步拒绝
func TestMachine_EmptyDeviceRejected(t *testing.T) {
	h := newHarness(t, &fakeFactory{})

	require.ErrorIs(t, h.machine.Connect(""), ErrInvalidDevice)
	assert.Equal(t, types.StateDisconnected, h.machine.GetConnectionState())
}

// TestMachine_ConnectTimeout 测试发现无结果时连接超时
func TestMachine_ConnectTimeout(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoClose: true})

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)

	h.clk.Add(DefaultConfig().ConnectTimeout)
	h.expect("dev-1", types.StateConnecting, types.StateDisconnecting)
	h.expect("dev-1", types.StateDisconnecting, types.StateDisconnected)

	w := h.factory.worker(0)
	_, _, teardowns, aborts := w.counts()
	assert.Equal(t, 1, teardowns)
	assert.Zero(t, aborts, "worker 正常拆除，不应被强制中止")
	assert.Empty(t, h.machine.GetDevicesMatchingConnectionStates(
		[]types.ConnectionState{types.StateDisconnected, types.StateConnecting}))
}

// TestMachine_WorkerFailed 测试会话建立失败后的回收流程
func TestMachine_WorkerFailed(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoFail: true, autoClose: true})
	h.resolver.Add(record("dev-1"))

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateDisconnecting)
	h.expect("dev-1", types.StateDisconnecting, types.StateDisconnected)

	assert.Equal(t, types.StateDisconnected, h.machine.GetConnectionState())
}

// TestMachine_DisconnectWhenIdle 测试未连接设备的幂等断开确认
func TestMachine_DisconnectWhenIdle(t *testing.T) {
	h := newHarness(t, &fakeFactory{})

	h.machine.Disconnect("ghost")
	h.expect("ghost", types.StateDisconnected, types.StateDisconnected)
	assert.Equal(t, types.StateDisconnected, h.machine.GetConnectionState())
	assert.Zero(t, h.factory.created())
}

// TestMachine_ConnectedReassert 测试对当前设备的重复连接请求
func TestMachine_ConnectedReassert(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoSucceed: true})
	h.resolver.Add(record("dev-1"))

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateConnected)

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateConnected, types.StateConnected)
	assert.Equal(t, 1, h.factory.created(), "重申不应创建新 worker")

	// 针对其他设备的请求同样只重申当前连接
	require.NoError(t, h.machine.Connect("dev-2"))
	h.expect("dev-1", types.StateConnected, types.StateConnected)
	assert.Equal(t, 1, h.factory.created())
	assert.Equal(t, types.StateConnected, h.machine.GetDeviceConnectionState("dev-1"))
	assert.Equal(t, types.StateDisconnected, h.machine.GetDeviceConnectionState("dev-2"))
}

// TestMachine_DisconnectTimeoutForcesAbort 测试断开超时触发恰好一次强制中止
func TestMachine_DisconnectTimeoutForcesAbort(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoSucceed: true})
	h.resolver.Add(record("dev-1"))

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateConnected)

	h.machine.Disconnect("dev-1")
	h.expect("dev-1", types.StateConnected, types.StateDisconnecting)

	// worker 不响应拆除，断开定时器到期后强制中止
	h.clk.Add(DefaultConfig().DisconnectTimeout)
	h.expect("dev-1", types.StateDisconnecting, types.StateDisconnected)

	w := h.factory.worker(0)
	_, _, teardowns, aborts := w.counts()
	assert.Equal(t, 1, teardowns)
	assert.Equal(t, 1, aborts)

	// 定时器只触发一次，不会重复中止
	h.clk.Add(DefaultConfig().DisconnectTimeout)
	h.barrier()
	_, _, _, aborts = w.counts()
	assert.Equal(t, 1, aborts)
}

// TestMachine_DeferredRequestsReplay 测试断开期间的请求暂存与原序重放
func TestMachine_DeferredRequestsReplay(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoSucceed: true})
	h.resolver.Add(record("dev-1"))

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateConnected)

	// 进入 disconnecting（worker 不自动结算，状态保持）
	h.machine.Disconnect("dev-1")
	h.expect("dev-1", types.StateConnected, types.StateDisconnecting)

	// 断开进行中提交的请求被暂存
	require.NoError(t, h.machine.Connect("dev-2"))
	h.machine.Disconnect("dev-1")

	// worker 结算后按提交顺序重放；重放的断开此时已非当前设备，被静默忽略
	h.factory.worker(0).reportClosed()
	h.expect("dev-1", types.StateDisconnecting, types.StateDisconnected)
	h.expect("dev-2", types.StateDisconnected, types.StateConnecting)

	assert.Equal(t, types.StateConnecting, h.machine.GetDeviceConnectionState("dev-2"))
	assert.Equal(t, 2, h.factory.created())
}

// TestMachine_DeferredDisconnectThenConnect 测试先断开后连接的暂存顺序
func TestMachine_DeferredDisconnectThenConnect(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoSucceed: true})
	h.resolver.Add(record("dev-1"))

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateConnected)

	h.machine.Disconnect("dev-1")
	h.expect("dev-1", types.StateConnected, types.StateDisconnecting)

	// 断开进行中：先提交断开、再提交连接
	h.machine.Disconnect("dev-1")
	require.NoError(t, h.machine.Connect("dev-1"))

	h.factory.worker(0).reportClosed()
	h.expect("dev-1", types.StateDisconnecting, types.StateDisconnected)
	// 重放的断开在 disconnected 态作幂等确认
	h.expect("dev-1", types.StateDisconnected, types.StateDisconnected)
	// 重放的连接开启全新一轮尝试
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateConnected)

	assert.Equal(t, 2, h.factory.created())
}

// TestMachine_RemoteClose 测试对端关闭会话后的回收流程
func TestMachine_RemoteClose(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoSucceed: true})
	h.resolver.Add(record("dev-1"))

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateConnected)

	// 对端主动关闭：worker 直接结算，无需拆除
	w := h.factory.worker(0)
	w.reportClosed()
	h.expect("dev-1", types.StateConnected, types.StateDisconnecting)
	h.expect("dev-1", types.StateDisconnecting, types.StateDisconnected)

	_, _, teardowns, aborts := w.counts()
	assert.Zero(t, teardowns)
	assert.Zero(t, aborts)
}

// TestMachine_ResumeDownload 测试下载重启与脏账户清理
func TestMachine_ResumeDownload(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoSucceed: true})
	h.resolver.Add(record("dev-1"))

	// 构造时清理一次
	assert.Equal(t, 1, h.store.removed())

	// 未连接时不触发下载，但脏账户清理照做
	h.machine.ResumeDownload()
	h.barrier()
	assert.Equal(t, 2, h.store.removed())

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)
	h.expect("dev-1", types.StateConnecting, types.StateConnected)

	h.machine.ResumeDownload()
	h.reassert("dev-1")

	assert.Equal(t, 3, h.store.removed())
	_, downloads, _, _ := h.factory.worker(0).counts()
	assert.Equal(t, 2, downloads, "自动下载一次 + 重启一次")
}

// TestMachine_DiscoveryMismatchIgnored 测试服务标识不符的发现记录被忽略
func TestMachine_DiscoveryMismatchIgnored(t *testing.T) {
	h := newHarness(t, &fakeFactory{autoClose: true})

	wrong := record("dev-1")
	wrong.Service = "/other/9.9.9"
	h.resolver.Add(wrong)

	require.NoError(t, h.machine.Connect("dev-1"))
	h.expect("dev-1", types.StateDisconnected, types.StateConnecting)

	// 记录被忽略，连接只能等超时
	h.clk.Add(DefaultConfig().ConnectTimeout)
	h.expect("dev-1", types.StateConnecting, types.StateDisconnecting)
	h.expect("dev-1", types.StateDisconnecting, types.StateDisconnected)

	connects, _, _, _ := h.factory.worker(0).counts()
	assert.Zero(t, connects)
}

// TestMachine_CloseIdempotent 测试重复关闭与关闭后的请求拒绝
func TestMachine_CloseIdempotent(t *testing.T) {
	h := newHarness(t, &fakeFactory{})

	require.NoError(t, h.machine.Close())
	require.NoError(t, h.machine.Close())
	require.ErrorIs(t, h.machine.Connect("dev-1"), ErrClosed)
}

// TestMachine_InvalidConfig 测试配置校验
func TestMachine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectTimeout = 0

	_, err := New(cfg, sdp.NewStaticResolver(), &fakeFactory{}, &fakeStore{}, eventbus.NewBus(), nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
