package modelstore

import (
	"context"
	"sync"

	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/pkg/errors"
)

type inMemoryStore struct {
	sync.Mutex

	models map[uint64]model.GlobalModel
	latest uint64
}

func NewInMemoryStore() Store {
	return &inMemoryStore{
		models: make(map[uint64]model.GlobalModel),
	}
}

func (s *inMemoryStore) Put(_ context.Context, m model.GlobalModel) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.models[m.Version]; ok {
		return errors.ErrEntityExists
	}

	s.models[m.Version] = m
	if m.Version > s.latest {
		s.latest = m.Version
	}

	return nil
}

func (s *inMemoryStore) Get(_ context.Context, version uint64) (model.GlobalModel, error) {
	s.Lock()
	defer s.Unlock()

	m, ok := s.models[version]
	if !ok {
		return model.GlobalModel{}, errors.ErrNotFound
	}

	return m, nil
}

func (s *inMemoryStore) Latest(_ context.Context) (model.GlobalModel, error) {
	s.Lock()
	defer s.Unlock()

	m, ok := s.models[s.latest]
	if !ok {
		return model.GlobalModel{}, errors.ErrNotFound
	}

	return m, nil
}
