package types

// 联系人条目来源
const (
	// SourcePhonebook 通讯录
	SourcePhonebook = "phonebook"

	// SourceCallHistory 通话记录
	SourceCallHistory = "callhistory"
)

// ContactEntry 下载阶段拉取的单条记录
type ContactEntry struct {
	// Source 条目来源（phonebook / callhistory）
	Source string `json:"source"`

	// Name 显示名称
	Name string `json:"name"`

	// Number 号码
	Number string `json:"number"`
}
