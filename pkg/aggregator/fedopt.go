package aggregator

import (
	"math/big"

	"github.com/rodneyosodo/mosaic/model"
)

// sqrtPrec is the mantissa width used for the one inexact operation in
// the FedOpt family, the square root of v_t. A fixed precision and
// rounding mode keep the result identical across runs and platforms.
const sqrtPrec = 53

// fedOpt implements the adaptive server optimizers of Reddi et al.,
// Adaptive Federated Optimization (https://arxiv.org/pdf/2003.00295.pdf).
// The three variants differ only in the second-moment update v_t.
type fedOpt struct {
	name   string
	params Params
}

func (f *fedOpt) Name() string {
	return f.name
}

func (f *fedOpt) Aggregate(feats Features) (Result, error) {
	if err := validate(feats); err != nil {
		return Result{}, err
	}

	upd := weightedMean(feats.Locals, feats.Stakes)
	width := uint64(len(upd))

	global := feats.Global
	if len(global) == 0 {
		global = model.Zeros(width)
	}
	mPrev := feats.MT
	if len(mPrev) == 0 {
		mPrev = model.Zeros(width)
	}
	vPrev := feats.VT
	if len(vPrev) == 0 {
		vPrev = model.Zeros(width)
	}

	delta := f.deltaT(upd, global)
	mt := f.mT(delta, mPrev)
	vt := f.vT(delta, vPrev)
	next := f.adjust(global, mt, vt)

	return Result{Model: next, MT: mt, VT: vt}, nil
}

// deltaT computes the pseudo-gradient upd - global.
func (f *fedOpt) deltaT(upd, global model.Vector) model.Vector {
	out := make(model.Vector, len(upd))
	for i := range upd {
		out[i] = new(big.Rat).Sub(upd[i], global[i])
	}

	return out
}

// mT computes beta1*m_prev + (1-beta1)*delta.
func (f *fedOpt) mT(delta, mPrev model.Vector) model.Vector {
	oneMinus := new(big.Rat).Sub(big.NewRat(1, 1), f.params.Beta1)
	out := make(model.Vector, len(delta))
	for i := range delta {
		momentum := new(big.Rat).Mul(f.params.Beta1, mPrev[i])
		out[i] = momentum.Add(momentum, new(big.Rat).Mul(oneMinus, delta[i]))
	}

	return out
}

// vT computes the strategy-specific second moment.
func (f *fedOpt) vT(delta, vPrev model.Vector) model.Vector {
	oneMinus := new(big.Rat).Sub(big.NewRat(1, 1), f.params.Beta2)
	out := make(model.Vector, len(delta))
	for i := range delta {
		sq := new(big.Rat).Mul(delta[i], delta[i])
		switch f.name {
		case StrategyFedAdagrad:
			out[i] = new(big.Rat).Add(vPrev[i], sq)
		case StrategyFedAdam:
			v := new(big.Rat).Mul(f.params.Beta2, vPrev[i])
			out[i] = v.Add(v, new(big.Rat).Mul(oneMinus, sq))
		case StrategyFedYogi:
			// v_prev - (1-beta2) * delta^2 * sign(v_prev - delta^2)
			sign := big.NewRat(int64(new(big.Rat).Sub(vPrev[i], sq).Sign()), 1)
			step := new(big.Rat).Mul(oneMinus, sq)
			step.Mul(step, sign)
			out[i] = new(big.Rat).Sub(vPrev[i], step)
		}
	}

	return out
}

// adjust computes global + eta * m_t / (sqrt(v_t) + tau).
func (f *fedOpt) adjust(global, mt, vt model.Vector) model.Vector {
	out := make(model.Vector, len(global))
	for i := range global {
		denom := sqrtRat(vt[i])
		denom.Add(denom, f.params.Tau)

		adj := new(big.Rat).Quo(mt[i], denom)
		adj.Mul(adj, f.params.Eta)
		out[i] = adj.Add(adj, global[i])
	}

	return out
}

// sqrtRat takes a fixed-precision square root of a non-negative
// rational. v_t is a sum of squares scaled by non-negative factors, so
// negativity here would be a defect upstream; clamp to zero rather than
// panic.
func sqrtRat(v *big.Rat) *big.Rat {
	if v.Sign() <= 0 {
		return new(big.Rat)
	}

	fl := new(big.Float).SetPrec(sqrtPrec).SetRat(v)
	fl.Sqrt(fl)
	out, _ := fl.Rat(nil)

	return out
}
