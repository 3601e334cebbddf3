package interfaces

import "github.com/dep2p/go-pbsync/pkg/types"

// AccountStore 本地账户与联系人条目存储
//
// 每次连接尝试对应一个账户：创建时为 dirty，下载完整结束后
// 由 worker 标记为 clean。RemoveUnclean 清理上次不正常退出
// 遗留的 dirty 账户及其全部条目。
type AccountStore interface {
	// CreateAccount 为设备创建新账户（初始为 dirty），返回账户 ID
	CreateAccount(device types.DeviceID) (string, error)

	// AddEntry 向账户追加一条下载条目
	AddEntry(accountID string, entry types.ContactEntry) error

	// MarkClean 标记账户下载完整
	MarkClean(accountID string) error

	// RemoveUnclean 删除所有 dirty 账户及其条目，返回删除的账户数
	RemoveUnclean() (int, error)

	// Close 关闭存储
	Close() error
}
