package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-pbsync/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(Config{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// TestStore_CreateAndFill 测试账户创建与条目写入
func TestStore_CreateAndFill(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateAccount("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, store.AddEntry(id, types.ContactEntry{
		Source: types.SourcePhonebook, Name: "Alice", Number: "100",
	}))
	require.NoError(t, store.AddEntry(id, types.ContactEntry{
		Source: types.SourceCallHistory, Name: "Bob", Number: "200",
	}))

	n, err := store.CountEntries(id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// TestStore_AddEntry_UnknownAccount 测试向不存在的账户写入
func TestStore_AddEntry_UnknownAccount(t *testing.T) {
	store := newTestStore(t)

	err := store.AddEntry("no-such-account", types.ContactEntry{Name: "x"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// TestStore_RemoveUnclean 测试只清理 dirty 账户
func TestStore_RemoveUnclean(t *testing.T) {
	store := newTestStore(t)

	// clean 账户：下载完整
	cleanID, err := store.CreateAccount("device-clean")
	require.NoError(t, err)
	require.NoError(t, store.AddEntry(cleanID, types.ContactEntry{Name: "keep"}))
	require.NoError(t, store.MarkClean(cleanID))

	// dirty 账户：模拟下载中断
	dirtyID, err := store.CreateAccount("device-dirty")
	require.NoError(t, err)
	require.NoError(t, store.AddEntry(dirtyID, types.ContactEntry{Name: "drop"}))

	removed, err := store.RemoveUnclean()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// clean 账户保留
	n, err := store.CountEntries(cleanID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// dirty 账户及条目全部删除
	n, err = store.CountEntries(dirtyID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, store.AddEntry(dirtyID, types.ContactEntry{}), ErrAccountNotFound)

	// 再次清理无残留
	removed, err = store.RemoveUnclean()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

// TestStore_MarkClean_UnknownAccount 测试标记不存在的账户
func TestStore_MarkClean_UnknownAccount(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.MarkClean("nope"), ErrAccountNotFound)
}

// TestStore_ClosedOps 测试关闭后的操作
func TestStore_ClosedOps(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())
	// Close 幂等
	require.NoError(t, store.Close())

	_, err := store.CreateAccount("x")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.RemoveUnclean()
	assert.ErrorIs(t, err, ErrClosed)
}
