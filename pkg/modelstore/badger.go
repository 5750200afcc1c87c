package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/rodneyosodo/mosaic/model"
	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
)

// Version keys are zero-padded so lexicographic key order equals
// numeric version order and the latest pointer can be derived by a
// reverse scan on recovery.
const versionKeyFormat = "model:%020d"

type badgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) Store {
	return &badgerStore{db: db}
}

func (s *badgerStore) Put(_ context.Context, m model.GlobalModel) error {
	key := []byte(fmt.Sprintf(versionKeyFormat, m.Version))
	val, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return pkgerrors.ErrEntityExists
		}

		return txn.Set(key, val)
	})
}

func (s *badgerStore) Get(_ context.Context, version uint64) (model.GlobalModel, error) {
	var m model.GlobalModel
	key := []byte(fmt.Sprintf(versionKeyFormat, version))

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return model.GlobalModel{}, pkgerrors.ErrNotFound
		}

		return model.GlobalModel{}, fmt.Errorf("database query error: %w", err)
	}

	return m, nil
}

func (s *badgerStore) Latest(_ context.Context) (model.GlobalModel, error) {
	var m model.GlobalModel
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the last possible version key, then step back into
		// the model prefix.
		it.Seek([]byte("model:~"))
		if !it.ValidForPrefix([]byte("model:")) {
			return nil
		}
		found = true

		return it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		return model.GlobalModel{}, fmt.Errorf("database scan error: %w", err)
	}
	if !found {
		return model.GlobalModel{}, pkgerrors.ErrNotFound
	}

	return m, nil
}
