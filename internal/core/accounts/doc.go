// Package accounts 提供本地账户与联系人条目的持久化存储
//
// 每次连接尝试对应一个账户：worker 握手成功后创建账户（dirty），
// 下载完整结束后标记为 clean。进程不正常退出会遗留 dirty 账户，
// 状态机在构造时与每次 ResumeDownload 时调用 RemoveUnclean
// 清理这些残留（尽力而为，失败只记日志）。
//
// # 存储布局
//
// 基于 BadgerDB，键空间：
//
//	acct/<id>          -> accountRecord JSON（device / created / clean）
//	entry/<id>/<uuid>  -> types.ContactEntry JSON
//
// 测试代码应使用 t.TempDir() 创建临时目录，确保测试与生产一致。
package accounts
