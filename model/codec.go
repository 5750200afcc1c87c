package model

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// Payloads carry rationals as canonical "numerator/denominator" strings
// under CBOR. big.Rat keeps its representation reduced, so encoding the
// same vector always yields the same bytes.

func EncodeVector(v Vector) ([]byte, error) {
	out := make([]string, len(v))
	for i, r := range v {
		out[i] = r.RatString()
	}

	return cbor.Marshal(out)
}

func DecodeVector(payload []byte, d Descriptor) (Vector, error) {
	var raw []string
	if err := cbor.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode parameter payload: %w", err)
	}
	if want := d.Len(); uint64(len(raw)) != want {
		return nil, fmt.Errorf("payload carries %d elements, descriptor declares %d", len(raw), want)
	}

	v := make(Vector, len(raw))
	for i, s := range raw {
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, fmt.Errorf("invalid rational at element %d: %q", i, s)
		}
		v[i] = r
	}

	return v, nil
}
