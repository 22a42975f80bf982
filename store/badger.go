package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore is the sole backing implementation of Store, grounded on the
// teacher's blockchain.go (openDB/retry lock-recovery) and utxo.go
// (prefix-scan/prefix-delete) — generalized here to cover all four buckets
// instead of being reimplemented per caller.
type BadgerStore struct {
	db *badger.DB
}

// Exists reports whether a Badger database already lives at path, the
// same MANIFEST-file probe the teacher's DBExists used.
func Exists(path string) bool {
	if _, err := os.Stat(filepath.Join(path, "MANIFEST")); os.IsNotExist(err) {
		return false
	}
	return true
}

// Open opens (or creates) a Badger-backed Store at path.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := openWithLockRecovery(path, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return &BadgerStore{db: db}, nil
}

// openWithLockRecovery mirrors the teacher's openDB/retry dance: a stale
// LOCK file left behind by an unclean shutdown is removed once, then the
// open is retried.
func openWithLockRecovery(dir string, opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	if err == nil {
		return db, nil
	}
	if !strings.Contains(err.Error(), "LOCK") {
		return nil, err
	}
	if rmErr := os.Remove(filepath.Join(dir, "LOCK")); rmErr != nil {
		return nil, err
	}
	return badger.Open(opts)
}

func bucketKey(bucket string, key []byte) []byte {
	full := make([]byte, 0, len(bucket)+1+len(key))
	full = append(full, bucket...)
	full = append(full, ':')
	full = append(full, key...)
	return full
}

func (s *BadgerStore) Get(bucket string, key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bucketKey(bucket, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return value, value != nil, nil
}

func (s *BadgerStore) Put(bucket string, key []byte, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bucketKey(bucket, key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (s *BadgerStore) Delete(bucket string, key []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(bucketKey(bucket, key))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Clear removes every key in bucket, batching deletes exactly as the
// teacher's DeleteByPrefix does to avoid holding one huge transaction.
func (s *BadgerStore) Clear(bucket string) error {
	const batchSize = 10000
	prefix := append([]byte(bucket), ':')

	deleteBatch := func(keys [][]byte) error {
		return s.db.Update(func(txn *badger.Txn) error {
			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		batch := make([][]byte, 0, batchSize)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			batch = append(batch, it.Item().KeyCopy(nil))
			if len(batch) == batchSize {
				if err := deleteBatch(batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if len(batch) > 0 {
			return deleteBatch(batch)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Scan opens a read-only transaction that stays alive until the returned
// Iterator is closed, giving callers a consistent snapshot for the whole
// scan per spec.md §4.A.
func (s *BadgerStore) Scan(bucket string) (Iterator, error) {
	prefix := append([]byte(bucket), ':')
	txn := s.db.NewTransaction(false)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	return &badgerIterator{txn: txn, it: it, prefix: prefix, started: false}, nil
}

type badgerIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	prefix  []byte
	started bool
}

func (bi *badgerIterator) Next() bool {
	if !bi.started {
		bi.it.Seek(bi.prefix)
		bi.started = true
	} else {
		bi.it.Next()
	}
	return bi.it.ValidForPrefix(bi.prefix)
}

func (bi *badgerIterator) Key() []byte {
	return bytes.TrimPrefix(bi.it.Item().KeyCopy(nil), bi.prefix)
}

func (bi *badgerIterator) Value() ([]byte, error) {
	v, err := bi.it.Item().ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return v, nil
}

func (bi *badgerIterator) Close() {
	bi.it.Close()
	bi.txn.Discard()
}
