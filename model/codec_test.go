package model_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/mosaic/model"
)

func TestVectorRoundTrip(t *testing.T) {
	t.Parallel()

	v := model.Vector{
		big.NewRat(7, 3),
		big.NewRat(-1, 2),
		new(big.Rat),
	}

	payload, err := model.EncodeVector(v)
	require.NoError(t, err)

	got, err := model.DecodeVector(payload, model.Descriptor{
		DataType: model.DataTypeRational,
		Shape:    []uint64{3},
	})
	require.NoError(t, err)

	require.Len(t, got, 3)
	for i := range v {
		assert.Zero(t, v[i].Cmp(got[i]))
	}
}

func TestEncodeVectorCanonical(t *testing.T) {
	t.Parallel()

	// 2/4 and 1/2 are the same rational; big.Rat normalizes, so the
	// encodings match byte for byte.
	a, err := model.EncodeVector(model.Vector{big.NewRat(2, 4)})
	require.NoError(t, err)
	b, err := model.EncodeVector(model.Vector{big.NewRat(1, 2)})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDecodeVectorShapeMismatch(t *testing.T) {
	t.Parallel()

	payload, err := model.EncodeVector(model.Vector{big.NewRat(1, 1), big.NewRat(2, 1)})
	require.NoError(t, err)

	_, err = model.DecodeVector(payload, model.Descriptor{
		DataType: model.DataTypeRational,
		Shape:    []uint64{3},
	})
	assert.Error(t, err)
}

func TestDecodeVectorMalformed(t *testing.T) {
	t.Parallel()

	_, err := model.DecodeVector([]byte("not cbor"), model.Descriptor{Shape: []uint64{1}})
	assert.Error(t, err)
}

func TestDescriptorLen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		shape []uint64
		want  uint64
	}{
		{desc: "scalar shape", shape: []uint64{1}, want: 1},
		{desc: "vector shape", shape: []uint64{10}, want: 10},
		{desc: "matrix shape", shape: []uint64{3, 4}, want: 12},
		{desc: "empty shape", shape: nil, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			d := model.Descriptor{DataType: model.DataTypeRational, Shape: tc.shape}
			assert.Equal(t, tc.want, d.Len())
		})
	}
}

func TestDescriptorEqual(t *testing.T) {
	t.Parallel()

	base := model.Descriptor{DataType: model.DataTypeRational, Shape: []uint64{3, 4}}

	assert.True(t, base.Equal(model.Descriptor{DataType: model.DataTypeRational, Shape: []uint64{3, 4}}))
	assert.False(t, base.Equal(model.Descriptor{DataType: model.DataTypeRational, Shape: []uint64{4, 3}}))
	assert.False(t, base.Equal(model.Descriptor{DataType: "float64", Shape: []uint64{3, 4}}))
	assert.False(t, base.Equal(model.Descriptor{DataType: model.DataTypeRational, Shape: []uint64{3}}))
}

func TestUpdateWeight(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(1), model.Update{}.Weight())
	assert.Equal(t, uint64(50), model.Update{NumSamples: 50}.Weight())
}
