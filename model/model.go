package model

import (
	"math/big"
	"time"
)

// Descriptor declares the shape and precision of a parameter payload.
// The payload itself stays opaque to the transport; only the aggregator
// decodes it.
type Descriptor struct {
	DataType string   `json:"data_type"`
	Shape    []uint64 `json:"shape"`
}

// DataTypeRational is the only precision the aggregator operates in.
// Client-side representations are converted before submission.
const DataTypeRational = "rational"

func (d Descriptor) Len() uint64 {
	if len(d.Shape) == 0 {
		return 0
	}
	n := uint64(1)
	for _, s := range d.Shape {
		n *= s
	}

	return n
}

func (d Descriptor) Equal(other Descriptor) bool {
	if d.DataType != other.DataType || len(d.Shape) != len(other.Shape) {
		return false
	}
	for i := range d.Shape {
		if d.Shape[i] != other.Shape[i] {
			return false
		}
	}

	return true
}

// Update is a participant's contribution to one round. It is transient:
// the coordinator discards it once the round closes.
type Update struct {
	RoundID       uint64     `json:"round_id"`
	ParticipantID string     `json:"participant_id"`
	Payload       []byte     `json:"payload"`
	Descriptor    Descriptor `json:"descriptor"`
	NumSamples    uint64     `json:"num_samples"`
	Signature     []byte     `json:"signature"`
	ReceivedAt    time.Time  `json:"received_at,omitempty"`
}

// Weight is the aggregation weight the update carries. Updates that
// declare no sample count contribute uniformly.
func (u Update) Weight() uint64 {
	if u.NumSamples == 0 {
		return 1
	}

	return u.NumSamples
}

// GlobalModel is one published version of the shared model. Versions
// match the round id that produced them and are immutable once written.
type GlobalModel struct {
	Version     uint64     `json:"version"`
	Payload     []byte     `json:"payload"`
	Descriptor  Descriptor `json:"descriptor"`
	OptState    []byte     `json:"opt_state,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
}

// Vector is a dense parameter vector in exact rational form. All
// aggregation arithmetic happens on vectors so that results do not
// depend on update arrival order.
type Vector []*big.Rat

func Zeros(n uint64) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = new(big.Rat)
	}

	return v
}

func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for i, r := range v {
		out[i] = new(big.Rat).Set(r)
	}

	return out
}
