package aggregator

// fedAvg is the weighted-mean baseline of McMahan et al.,
// Communication-Efficient Learning of Deep Networks from Decentralized
// Data (https://arxiv.org/abs/1602.05629). It carries no optimizer
// state across rounds.
type fedAvg struct{}

func (f *fedAvg) Name() string {
	return StrategyFedAvg
}

func (f *fedAvg) Aggregate(feats Features) (Result, error) {
	if err := validate(feats); err != nil {
		return Result{}, err
	}

	return Result{Model: weightedMean(feats.Locals, feats.Stakes)}, nil
}
