package worker

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-pbsync/internal/util/logger"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

var log = logger.Logger("worker")

// commandKind 命令类型
type commandKind int

const (
	cmdConnect commandKind = iota + 1
	cmdDownload
	cmdTeardown
)

// command worker 命令
type command struct {
	kind   commandKind
	record *types.ProfileRecord
}

// Handler 单次连接尝试的 worker
//
// 命令在 Handler 自己的 goroutine 上顺序执行。
// 建立阶段恰好回报一次 Succeeded/Failed，生命周期结束恰好回报一次 Closed。
type Handler struct {
	device types.DeviceID
	sink   pkgif.WorkerSink
	store  pkgif.AccountStore
	cfg    Config
	clk    clock.Clock

	ctx    context.Context
	cancel context.CancelFunc

	commands chan command
	done     chan struct{}

	// mu 保护传输句柄（run goroutine 写入，Abort 从状态机线程关闭）
	mu        sync.Mutex
	conn      net.Conn
	session   *yamux.Session
	accountID string

	setupOnce  sync.Once
	closedOnce sync.Once
	aborted    atomic.Bool
}

var _ pkgif.Worker = (*Handler)(nil)

// newHandler 创建 worker（不启动）
func newHandler(device types.DeviceID, sink pkgif.WorkerSink, store pkgif.AccountStore, cfg Config, clk clock.Clock) *Handler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Handler{
		device:   device,
		sink:     sink,
		store:    store,
		cfg:      cfg,
		clk:      clk,
		ctx:      ctx,
		cancel:   cancel,
		commands: make(chan command, commandBuffer),
		done:     make(chan struct{}),
	}
}

// ============================================================================
// 命令入口（单向投递，不阻塞调用方）
// ============================================================================

// Connect 建立档案会话
func (h *Handler) Connect(record *types.ProfileRecord) {
	h.post(command{kind: cmdConnect, record: record})
}

// StartDownload 启动（或重启）下载
func (h *Handler) StartDownload() {
	h.post(command{kind: cmdDownload})
}

// Teardown 拆除会话
func (h *Handler) Teardown() {
	h.post(command{kind: cmdTeardown})
}

// Abort 强制中止
//
// 取消上下文并关闭传输以打断进行中的操作。若 run goroutine
// 未能在 AbortGrace 内退出，合成 WorkerClosed，保证状态机
// 不会永远停留在 disconnecting。
func (h *Handler) Abort() {
	if h.aborted.Swap(true) {
		return
	}

	log.Warn("强制中止 worker", "device", h.device)
	h.cancel()
	h.closeTransport()

	grace := h.clk.AfterFunc(h.cfg.AbortGrace, func() {
		log.Error("worker 未在时限内退出，合成 WorkerClosed",
			"device", h.device, "grace", h.cfg.AbortGrace)
		h.reportClosed()
	})

	go func() {
		<-h.done
		grace.Stop()
		h.reportClosed()
	}()
}

// post 投递命令；队列满时丢弃并记日志（状态机不重复发命令，正常不会发生）
func (h *Handler) post(cmd command) {
	select {
	case h.commands <- cmd:
	case <-h.ctx.Done():
	default:
		log.Error("worker 命令队列已满，命令被丢弃", "device", h.device, "kind", cmd.kind)
	}
}

// ============================================================================
// run 循环
// ============================================================================

// run 顺序执行命令，直到拆除或中止
func (h *Handler) run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeTransport()
			h.reportClosed()
			return
		case cmd := <-h.commands:
			switch cmd.kind {
			case cmdConnect:
				h.doConnect(cmd.record)
			case cmdDownload:
				h.doDownload()
			case cmdTeardown:
				h.closeTransport()
				h.reportClosed()
				return
			}
		}
	}
}

// doConnect 拨号 + 多路复用会话 + 握手 + 创建账户
func (h *Handler) doConnect(record *types.ProfileRecord) {
	if record == nil {
		h.reportFailed(errors.New("nil profile record"))
		return
	}

	log.Info("建立档案会话", "device", h.device, "endpoint", record.Endpoint())

	var d net.Dialer
	conn, err := d.DialContext(h.ctx, "tcp", record.Endpoint())
	if err != nil {
		h.reportFailed(err)
		return
	}

	ycfg := yamux.DefaultConfig()
	ycfg.LogOutput = io.Discard
	session, err := yamux.Client(conn, ycfg)
	if err != nil {
		_ = conn.Close()
		h.reportFailed(err)
		return
	}

	h.mu.Lock()
	h.conn = conn
	h.session = session
	h.mu.Unlock()

	// Abort 可能在拨号期间到达，此时立即放弃刚建立的传输
	if h.ctx.Err() != nil {
		h.closeTransport()
		h.reportFailed(h.ctx.Err())
		return
	}

	stream, err := session.Open()
	if err != nil {
		h.reportFailed(err)
		return
	}
	defer stream.Close()

	if err := handshake(stream, h.cfg.ProfileID, h.device); err != nil {
		h.reportFailed(err)
		return
	}

	accountID, err := h.store.CreateAccount(h.device)
	if err != nil {
		h.reportFailed(err)
		return
	}

	h.mu.Lock()
	h.accountID = accountID
	h.mu.Unlock()

	h.reportSucceeded()
	go h.watchSession(session)
}

// watchSession 监视会话被对端关闭
//
// 对端掉线时取消上下文，促使 run 循环结算并回报 WorkerClosed。
// 本地拆除/中止也会关闭会话，此时取消是空操作。
func (h *Handler) watchSession(session *yamux.Session) {
	select {
	case <-session.CloseChan():
		log.Warn("会话被对端关闭", "device", h.device)
		h.cancel()
	case <-h.ctx.Done():
	}
}

// doDownload 逐来源拉取条目，全部成功后标记账户 clean
//
// 下载失败不是连接失败：只记日志，会话保持，等待下一次 ResumeDownload。
func (h *Handler) doDownload() {
	h.mu.Lock()
	session := h.session
	accountID := h.accountID
	h.mu.Unlock()

	if session == nil || accountID == "" {
		log.Warn("下载请求但会话未建立", "device", h.device)
		return
	}

	for _, source := range []string{types.SourcePhonebook, types.SourceCallHistory} {
		if h.ctx.Err() != nil {
			return
		}
		if err := h.pullSource(session, accountID, source); err != nil {
			log.Warn("下载失败", "device", h.device, "source", source, "err", err)
			return
		}
	}

	if err := h.store.MarkClean(accountID); err != nil {
		log.Warn("标记账户 clean 失败", "account", accountID, "err", err)
		return
	}

	log.Info("下载完成", "device", h.device, "account", accountID)
}

// pullSource 在新流上拉取一个来源
func (h *Handler) pullSource(session *yamux.Session, accountID, source string) error {
	stream, err := session.Open()
	if err != nil {
		return err
	}
	defer stream.Close()

	count := 0
	err = pullEntries(stream, source, func(entry types.ContactEntry) error {
		count++
		return h.store.AddEntry(accountID, entry)
	})
	if err != nil {
		return err
	}

	log.Debug("来源拉取完成", "source", source, "entries", count)
	return nil
}

// ============================================================================
// 回报与清理
// ============================================================================

// reportSucceeded 握手成功（与 reportFailed 恰好其一）
func (h *Handler) reportSucceeded() {
	h.setupOnce.Do(func() {
		log.Info("档案会话就绪", "device", h.device)
		h.sink.WorkerSucceeded(h.device)
	})
}

// reportFailed 建立阶段失败
func (h *Handler) reportFailed(err error) {
	h.setupOnce.Do(func() {
		log.Warn("档案会话建立失败", "device", h.device, "err", err)
		h.sink.WorkerFailed(h.device)
	})
}

// reportClosed 会话结算（恰好一次）
func (h *Handler) reportClosed() {
	h.closedOnce.Do(func() {
		log.Debug("worker 已结算", "device", h.device)
		h.sink.WorkerClosed(h.device)
	})
}

// closeTransport 关闭传输句柄（幂等，nil 安全）
func (h *Handler) closeTransport() {
	h.mu.Lock()
	session := h.session
	conn := h.conn
	h.session = nil
	h.conn = nil
	h.mu.Unlock()

	if session != nil {
		_ = session.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}
