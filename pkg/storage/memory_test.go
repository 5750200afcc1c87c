package storage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
	"github.com/rodneyosodo/mosaic/pkg/storage"
)

type record struct {
	Name string `json:"name"`
}

func TestCreate(t *testing.T) {
	t.Parallel()

	s := storage.NewInMemoryStorage[record]()

	cases := []struct {
		desc  string
		key   string
		value record
		err   error
	}{
		{
			desc:  "create new entity",
			key:   "alpha",
			value: record{Name: "alpha"},
			err:   nil,
		},
		{
			desc:  "create duplicate entity",
			key:   "alpha",
			value: record{Name: "alpha"},
			err:   pkgerrors.ErrEntityExists,
		},
		{
			desc:  "create with empty key",
			key:   "",
			value: record{Name: "empty"},
			err:   pkgerrors.ErrEmptyKey,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := s.Create(context.Background(), tc.key, tc.value)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	s := storage.NewInMemoryStorage[record]()
	require.NoError(t, s.Create(context.Background(), "alpha", record{Name: "alpha"}))

	cases := []struct {
		desc string
		key  string
		want record
		err  error
	}{
		{
			desc: "get existing entity",
			key:  "alpha",
			want: record{Name: "alpha"},
			err:  nil,
		},
		{
			desc: "get missing entity",
			key:  "beta",
			err:  pkgerrors.ErrNotFound,
		},
		{
			desc: "get with empty key",
			key:  "",
			err:  pkgerrors.ErrEmptyKey,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := s.Get(context.Background(), tc.key)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	s := storage.NewInMemoryStorage[record]()
	require.NoError(t, s.Create(context.Background(), "alpha", record{Name: "alpha"}))

	err := s.Update(context.Background(), "alpha", record{Name: "updated"})
	require.NoError(t, err)

	got, err := s.Get(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Name)

	err = s.Update(context.Background(), "missing", record{})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := storage.NewInMemoryStorage[record]()
	require.NoError(t, s.Create(context.Background(), "alpha", record{Name: "alpha"}))

	require.NoError(t, s.Delete(context.Background(), "alpha"))
	_, err := s.Get(context.Background(), "alpha")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	// Deleting a missing key is a no-op.
	assert.NoError(t, s.Delete(context.Background(), "alpha"))
	assert.ErrorIs(t, s.Delete(context.Background(), ""), pkgerrors.ErrEmptyKey)
}

func TestListOrderedAndPaged(t *testing.T) {
	t.Parallel()

	s := storage.NewInMemoryStorage[record]()
	for i := range 10 {
		key := fmt.Sprintf("key-%02d", i)
		require.NoError(t, s.Create(context.Background(), key, record{Name: key}))
	}

	page, total, err := s.List(context.Background(), 0, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), total)
	require.Len(t, page, 4)
	assert.Equal(t, "key-00", page[0].Name)
	assert.Equal(t, "key-03", page[3].Name)

	page, total, err = s.List(context.Background(), 8, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), total)
	require.Len(t, page, 2)
	assert.Equal(t, "key-09", page[1].Name)

	page, total, err = s.List(context.Background(), 20, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), total)
	assert.Empty(t, page)
}
