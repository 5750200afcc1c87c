package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
)

var errDBConnection = errors.New("badger database connection error")

type badgerStorage[T any] struct {
	db     *badger.DB
	prefix []byte
}

// NewBadgerStorage opens a Badger-backed storage under dataDir. Records
// are JSON-encoded and namespaced by prefix so several stores can share
// one database.
func NewBadgerStorage[T any](db *badger.DB, prefix string) Storage[T] {
	return &badgerStorage[T]{
		db:     db,
		prefix: []byte(prefix + ":"),
	}
}

// Open opens the shared Badger database with logging disabled.
func Open(dataDir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dataDir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errDBConnection, err)
	}

	return db, nil
}

func (s *badgerStorage[T]) key(k string) []byte {
	return append(append([]byte{}, s.prefix...), k...)
}

func (s *badgerStorage[T]) Create(_ context.Context, key string, value T) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}
	val, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(s.key(key)); err == nil {
			return pkgerrors.ErrEntityExists
		}

		return txn.Set(s.key(key), val)
	})
}

func (s *badgerStorage[T]) Get(_ context.Context, key string) (T, error) {
	var value T
	if key == "" {
		return value, pkgerrors.ErrEmptyKey
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return value, pkgerrors.ErrNotFound
		}

		return value, fmt.Errorf("database query error: %w", err)
	}

	return value, nil
}

func (s *badgerStorage[T]) Update(_ context.Context, key string, value T) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}
	val, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(s.key(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return pkgerrors.ErrNotFound
			}

			return err
		}

		return txn.Set(s.key(key), val)
	})
}

// List walks keys in lexicographic order, matching the in-memory
// backend's pagination behavior.
func (s *badgerStorage[T]) List(_ context.Context, offset, limit uint64) ([]T, uint64, error) {
	var result []T
	var total uint64

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var idx uint64
		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			if idx >= offset && uint64(len(result)) < limit {
				var value T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &value)
				})
				if err != nil {
					return err
				}
				result = append(result, value)
			}
			idx++
		}
		total = idx

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("database scan error: %w", err)
	}

	return result, total, nil
}

func (s *badgerStorage[T]) Delete(_ context.Context, key string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
}
