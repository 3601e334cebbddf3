package accounts

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/dep2p/go-pbsync/internal/util/logger"
	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

var log = logger.Logger("accounts")

// 键前缀
const (
	acctPrefix  = "acct/"
	entryPrefix = "entry/"
)

// accountRecord 账户持久化记录
type accountRecord struct {
	Device  types.DeviceID `json:"device"`
	Created time.Time      `json:"created"`
	Clean   bool           `json:"clean"`
}

// Store BadgerDB 账户存储
type Store struct {
	db     *badger.DB
	closed atomic.Bool
}

var _ pkgif.AccountStore = (*Store)(nil)

// New 打开账户存储
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Path, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateAccount 为设备创建新账户（初始为 dirty）
func (s *Store) CreateAccount(device types.DeviceID) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}

	id := uuid.NewString()
	rec := accountRecord{
		Device:  device,
		Created: time.Now().UTC(),
		Clean:   false,
	}

	data, err := json.Marshal(&rec)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(acctKey(id), data)
	})
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}

	log.Debug("账户已创建", "account", id, "device", device)
	return id, nil
}

// AddEntry 向账户追加一条下载条目
func (s *Store) AddEntry(accountID string, entry types.ContactEntry) error {
	if s.closed.Load() {
		return ErrClosed
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(acctKey(accountID)); err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		return txn.Set(entryKey(accountID, uuid.NewString()), data)
	})
}

// MarkClean 标记账户下载完整
func (s *Store) MarkClean(accountID string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(acctKey(accountID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrAccountNotFound
			}
			return err
		}

		var rec accountRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}

		rec.Clean = true
		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(acctKey(accountID), data)
	})
}

// RemoveUnclean 删除所有 dirty 账户及其条目
//
// 返回删除的账户数。用于清理上次不正常退出的残留。
func (s *Store) RemoveUnclean() (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	// 先收集 dirty 账户 ID
	var dirty []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(acctPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var rec accountRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}

			if !rec.Clean {
				dirty = append(dirty, string(item.Key()[len(acctPrefix):]))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan accounts: %w", err)
	}

	// 逐账户删除（账户记录 + 全部条目）
	for _, id := range dirty {
		if err := s.removeAccount(id); err != nil {
			return 0, fmt.Errorf("remove account %s: %w", id, err)
		}
		log.Warn("清理 dirty 账户", "account", id)
	}

	return len(dirty), nil
}

// removeAccount 删除单个账户及其全部条目
func (s *Store) removeAccount(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix + id + "/")
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return txn.Delete(acctKey(id))
	})
}

// CountEntries 返回账户的条目数（用于诊断与测试）
func (s *Store) CountEntries(accountID string) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix + accountID + "/")
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close 关闭存储（幂等）
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// acctKey 构造账户键
func acctKey(id string) []byte {
	return []byte(acctPrefix + id)
}

// entryKey 构造条目键
func entryKey(accountID, entryID string) []byte {
	return []byte(entryPrefix + accountID + "/" + entryID)
}
