package worker

import (
	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

// Factory 按连接尝试创建 worker
type Factory struct {
	cfg   Config
	store pkgif.AccountStore
	clk   clock.Clock
}

var _ pkgif.WorkerFactory = (*Factory)(nil)

// NewFactory 创建工厂
func NewFactory(cfg Config, store pkgif.AccountStore, clk clock.Clock) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Factory{
		cfg:   cfg,
		store: store,
		clk:   clk,
	}, nil
}

// NewWorker 创建并启动一个 worker
func (f *Factory) NewWorker(device types.DeviceID, sink pkgif.WorkerSink) pkgif.Worker {
	h := newHandler(device, sink, f.store, f.cfg, f.clk)
	go h.run()
	return h
}
