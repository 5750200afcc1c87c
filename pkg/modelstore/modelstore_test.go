package modelstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/mosaic/model"
	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
	"github.com/rodneyosodo/mosaic/pkg/modelstore"
)

func TestPutAndGet(t *testing.T) {
	t.Parallel()

	s := modelstore.NewInMemoryStore()

	m := model.GlobalModel{
		Version: 1,
		Payload: []byte("payload-1"),
		Descriptor: model.Descriptor{
			DataType: model.DataTypeRational,
			Shape:    []uint64{3},
		},
	}
	require.NoError(t, s.Put(context.Background(), m))

	got, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, m.Payload, got.Payload)

	_, err = s.Get(context.Background(), 2)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestPutIsAppendOnly(t *testing.T) {
	t.Parallel()

	s := modelstore.NewInMemoryStore()

	require.NoError(t, s.Put(context.Background(), model.GlobalModel{Version: 1, Payload: []byte("first")}))

	err := s.Put(context.Background(), model.GlobalModel{Version: 1, Payload: []byte("overwrite")})
	assert.ErrorIs(t, err, pkgerrors.ErrEntityExists)

	got, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got.Payload)
}

func TestLatest(t *testing.T) {
	t.Parallel()

	s := modelstore.NewInMemoryStore()

	_, err := s.Latest(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	for _, version := range []uint64{1, 2, 5} {
		require.NoError(t, s.Put(context.Background(), model.GlobalModel{Version: version}))
	}

	latest, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), latest.Version)
}
