package sdp

import (
	"context"
	"strings"
	"sync"

	"github.com/hashicorp/mdns"

	"github.com/dep2p/go-pbsync/internal/util/logger"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

var log = logger.Logger("discovery/sdp")

// TXT 记录字段前缀
const (
	txtDevice  = "device="
	txtProfile = "profile="
	txtVersion = "version="
)

// Resolver 基于 mDNS 的档案记录解析器
type Resolver struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ pkgif.Discoverer = (*Resolver)(nil)

// NewResolver 创建解析器
func NewResolver(cfg Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Resolver{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Lookup 解析指定设备的档案记录
//
// 立即返回；查询在后台执行，首个设备匹配的记录经 sink 回报。
// ctx 或 Resolver 关闭后不再回报。
func (r *Resolver) Lookup(ctx context.Context, device types.DeviceID, sink pkgif.DiscoverySink) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.query(ctx, device, sink)
	}()
}

// query 执行一次 mDNS 查询
func (r *Resolver) query(ctx context.Context, device types.DeviceID, sink pkgif.DiscoverySink) {
	entries := make(chan *mdns.ServiceEntry, 16)

	go func() {
		err := mdns.Query(&mdns.QueryParam{
			Service:     r.cfg.ServiceTag,
			Domain:      r.cfg.Domain,
			Timeout:     r.cfg.LookupTimeout,
			Entries:     entries,
			DisableIPv6: true,
		})
		if err != nil {
			log.Warn("mDNS 查询失败", "device", device, "err", err)
		}
		close(entries)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				log.Debug("mDNS 查询结束，未找到记录", "device", device)
				return
			}

			record, ok := parseEntry(entry)
			if !ok {
				continue
			}
			if record.Device != device {
				log.Debug("忽略其他设备的记录", "device", record.Device)
				continue
			}

			log.Info("档案记录解析完成",
				"device", device,
				"service", record.Service,
				"endpoint", record.Endpoint())
			sink.DiscoveryComplete(device, record)

			// 只回报首个匹配记录；排空剩余条目直到查询结束，避免阻塞 Query
			for range entries {
			}
			return
		}
	}
}

// parseEntry 把 mDNS 条目解析为档案记录
//
// TXT 字段至少需要 device= 与 profile=，地址优先 IPv4。
func parseEntry(entry *mdns.ServiceEntry) (*types.ProfileRecord, bool) {
	if entry == nil || entry.Port == 0 {
		return nil, false
	}

	record := &types.ProfileRecord{Port: entry.Port}

	for _, field := range entry.InfoFields {
		switch {
		case strings.HasPrefix(field, txtDevice):
			record.Device = types.DeviceID(field[len(txtDevice):])
		case strings.HasPrefix(field, txtProfile):
			record.Service = field[len(txtProfile):]
		case strings.HasPrefix(field, txtVersion):
			record.Version = field[len(txtVersion):]
		}
	}

	if record.Device.Empty() || record.Service == "" {
		return nil, false
	}

	switch {
	case entry.AddrV4 != nil:
		record.Host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		record.Host = entry.AddrV6.String()
	case entry.Host != "":
		record.Host = strings.TrimSuffix(entry.Host, ".")
	default:
		return nil, false
	}

	return record, true
}

// Close 关闭解析器，等待在途查询退出
func (r *Resolver) Close() error {
	r.cancel()
	r.wg.Wait()
	return nil
}
