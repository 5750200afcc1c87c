package aggregator

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/rodneyosodo/mosaic/model"
)

// Optimizer accumulators travel with the model version that produced
// them, encoded the same way as parameter payloads.
type stateWire struct {
	MT []string `cbor:"mt"`
	VT []string `cbor:"vt"`
}

// EncodeState serializes a result's accumulators. Strategies without
// carried state yield nil, which decodes back to absent accumulators.
func EncodeState(res Result) ([]byte, error) {
	if len(res.MT) == 0 && len(res.VT) == 0 {
		return nil, nil
	}

	wire := stateWire{
		MT: make([]string, len(res.MT)),
		VT: make([]string, len(res.VT)),
	}
	for i, r := range res.MT {
		wire.MT[i] = r.RatString()
	}
	for i, r := range res.VT {
		wire.VT[i] = r.RatString()
	}

	return cbor.Marshal(wire)
}

// DecodeState restores carried accumulators. A nil or empty state is
// valid and returns absent vectors, which every strategy treats as
// zeros.
func DecodeState(data []byte) (model.Vector, model.Vector, error) {
	if len(data) == 0 {
		return nil, nil, nil
	}

	var wire stateWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, nil, fmt.Errorf("failed to decode optimizer state: %w", err)
	}

	decode := func(raw []string) (model.Vector, error) {
		v := make(model.Vector, len(raw))
		for i, s := range raw {
			r, ok := new(big.Rat).SetString(s)
			if !ok {
				return nil, fmt.Errorf("invalid rational at element %d: %q", i, s)
			}
			v[i] = r
		}

		return v, nil
	}

	mt, err := decode(wire.MT)
	if err != nil {
		return nil, nil, err
	}
	vt, err := decode(wire.VT)
	if err != nil {
		return nil, nil, err
	}

	return mt, vt, nil
}
