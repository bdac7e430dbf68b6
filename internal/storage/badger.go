package storage

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

type badgerKV[T any] struct {
	db     *badger.DB
	bucket string
}

// NewBadgerKV opens (or creates) a badger-backed bucket under dir.
// SyncWrites is enabled so every mutation reaches stable storage before the
// call returns.
func NewBadgerKV[T any](dir, bucket string) (KV[T], error) {
	opts := badger.DefaultOptions(filepath.Join(dir, bucket))
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %q: %w", bucket, err)
	}

	return &badgerKV[T]{db: db, bucket: bucket}, nil
}

func (b *badgerKV[T]) Get(key string) (T, bool, error) {
	var val T
	var rawVal []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		rawVal, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return val, false, fmt.Errorf("failed to read %q from %s: %w", key, b.bucket, err)
	}

	if rawVal == nil {
		return val, false, nil
	}

	if err := Unmarshal(rawVal, &val); err != nil {
		return val, false, fmt.Errorf("failed to decode %q from %s: %w", key, b.bucket, err)
	}

	return val, true, nil
}

func (b *badgerKV[T]) Set(key string, value T) error {
	rawVal, err := Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), rawVal)
	})
	if err != nil {
		return fmt.Errorf("failed to write %q to %s: %w", key, b.bucket, err)
	}

	return nil
}

func (b *badgerKV[T]) SetIfAbsent(key string, value T) (bool, error) {
	rawVal, err := Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to encode value for %q: %w", key, err)
	}

	written := false
	err = b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		written = true
		return txn.Set([]byte(key), rawVal)
	})
	if err != nil {
		return false, fmt.Errorf("failed to write %q to %s: %w", key, b.bucket, err)
	}

	return written, nil
}

func (b *badgerKV[T]) Has(key string) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check %q in %s: %w", key, b.bucket, err)
	}
	return found, nil
}

func (b *badgerKV[T]) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q from %s: %w", key, b.bucket, err)
	}
	return nil
}

func (b *badgerKV[T]) ForEach(fn func(key string, value T) error) error {
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			var val T
			if err := Unmarshal(raw, &val); err != nil {
				return fmt.Errorf("failed to decode %q: %w", item.Key(), err)
			}

			if err := fn(string(item.Key()), val); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to iterate %s: %w", b.bucket, err)
	}

	return nil
}

func (b *badgerKV[T]) Close() error {
	return b.db.Close()
}
