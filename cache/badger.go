package cache

import (
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCache is a Cache backed by an embedded badger.DB, relying on
// badger's own TTL support rather than reimplementing expiry.
type BadgerCache struct {
	db *badger.DB
}

// NewBadgerCache opens (or creates) a badger database at dir. Callers own
// the returned *badger.DB's lifecycle via Close.
func NewBadgerCache(dir string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCache{db: db}, nil
}

// Close closes the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// Get implements Cache.
func (c *BadgerCache) Get(key string) ([]byte, bool) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	return value, true
}

// Set implements Cache using badger's native per-entry TTL.
func (c *BadgerCache) Set(key string, value []byte, ttl time.Duration) {
	_ = c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// Len implements Cache by counting live keys; badger has no O(1) count, so
// this is an O(n) iteration and is intended for diagnostics, not hot paths.
func (c *BadgerCache) Len() int {
	count := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

var _ Cache = (*BadgerCache)(nil)
