package aggregator

import (
	"fmt"
	"math/big"

	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/pkg/errors"
)

const (
	StrategyFedAvg     = "fedavg"
	StrategyFedAdagrad = "fedadagrad"
	StrategyFedAdam    = "fedadam"
	StrategyFedYogi    = "fedyogi"
)

// Params tunes the FedOpt strategy family. FedAvg ignores them.
type Params struct {
	// Eta is the server-side learning rate.
	Eta *big.Rat
	// Beta1 is the first-moment momentum parameter.
	Beta1 *big.Rat
	// Beta2 is the second-moment momentum parameter.
	Beta2 *big.Rat
	// Tau controls the degree of adaptability.
	Tau *big.Rat
}

// DefaultParams mirrors the defaults of Reddi et al., Adaptive Federated
// Optimization: eta=0.1, beta1=0.9, beta2=0.99, tau=1e-9.
func DefaultParams() Params {
	return Params{
		Eta:   big.NewRat(1, 10),
		Beta1: big.NewRat(9, 10),
		Beta2: big.NewRat(99, 100),
		Tau:   big.NewRat(1, 1_000_000_000),
	}
}

// Features is everything a strategy consumes: the previous global
// model, the round's local updates with their stakes, and the carried
// optimizer accumulators. Accumulators are absent on the first round.
type Features struct {
	Global model.Vector
	Locals []model.Vector
	Stakes []uint64
	MT     model.Vector
	VT     model.Vector
}

// Result is a candidate global model plus the accumulator state to be
// versioned alongside it.
type Result struct {
	Model model.Vector
	MT    model.Vector
	VT    model.Vector
}

// Strategy combines one round's updates into a candidate model. It is a
// pure function of its features: no strategy touches round state or
// blocks.
type Strategy interface {
	Name() string
	Aggregate(feats Features) (Result, error)
}

// New resolves an aggregation strategy by name. The strategy set is
// closed and known at build time.
func New(name string, params Params) (Strategy, error) {
	switch name {
	case StrategyFedAvg:
		return &fedAvg{}, nil
	case StrategyFedAdagrad:
		return &fedOpt{name: StrategyFedAdagrad, params: params}, nil
	case StrategyFedAdam:
		return &fedOpt{name: StrategyFedAdam, params: params}, nil
	case StrategyFedYogi:
		return &fedOpt{name: StrategyFedYogi, params: params}, nil
	default:
		return nil, fmt.Errorf("unknown aggregation strategy %q", name)
	}
}

// validate rejects feature sets no strategy can operate on. An empty
// update set here means the coordinator's quorum check was bypassed.
func validate(feats Features) error {
	if len(feats.Locals) == 0 {
		return errors.ErrEmptyUpdateSet
	}
	if len(feats.Stakes) != len(feats.Locals) {
		return fmt.Errorf("%w: %d updates, %d stakes", errors.ErrShapeMismatch, len(feats.Locals), len(feats.Stakes))
	}
	width := len(feats.Locals[0])
	for _, local := range feats.Locals[1:] {
		if len(local) != width {
			return fmt.Errorf("%w: updates disagree on width", errors.ErrShapeMismatch)
		}
	}
	if len(feats.Global) != 0 && len(feats.Global) != width {
		return fmt.Errorf("%w: update width %d, global width %d", errors.ErrShapeMismatch, width, len(feats.Global))
	}

	return nil
}

// weightedMean computes per element sum(stake_i * x_i) / sum(stake_i)
// in exact rational arithmetic. Exactness is what makes the result
// independent of summation order.
func weightedMean(locals []model.Vector, stakes []uint64) model.Vector {
	width := len(locals[0])
	sum := model.Zeros(uint64(width))
	totalStake := new(big.Rat)

	for i, local := range locals {
		stake := new(big.Rat).SetUint64(stakes[i])
		totalStake.Add(totalStake, stake)
		term := new(big.Rat)
		for j, x := range local {
			sum[j].Add(sum[j], term.Mul(stake, x))
		}
	}

	for j := range sum {
		sum[j].Quo(sum[j], totalStake)
	}

	return sum
}
