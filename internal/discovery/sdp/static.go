package sdp

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

// StaticResolver 固定记录解析器
//
// 用于接入点已知的部署（无 mDNS 的网络）与测试。
// 记录表不可变，Lookup 异步回报表中的匹配记录。
type StaticResolver struct {
	mu      sync.RWMutex
	records map[types.DeviceID]*types.ProfileRecord
	wg      sync.WaitGroup
}

var _ pkgif.Discoverer = (*StaticResolver)(nil)

// NewStaticResolver 创建固定记录解析器
func NewStaticResolver(records ...*types.ProfileRecord) *StaticResolver {
	m := make(map[types.DeviceID]*types.ProfileRecord, len(records))
	for _, r := range records {
		m[r.Device] = r
	}
	return &StaticResolver{records: m}
}

// Add 登记一条记录
func (s *StaticResolver) Add(record *types.ProfileRecord) {
	s.mu.Lock()
	s.records[record.Device] = record
	s.mu.Unlock()
}

// Lookup 回报登记过的记录；未登记的设备无回报
func (s *StaticResolver) Lookup(ctx context.Context, device types.DeviceID, sink pkgif.DiscoverySink) {
	s.mu.RLock()
	record, ok := s.records[device]
	s.mu.RUnlock()

	if !ok {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
		default:
			sink.DiscoveryComplete(device, record)
		}
	}()
}

// Close 等待在途回报退出
func (s *StaticResolver) Close() error {
	s.wg.Wait()
	return nil
}
