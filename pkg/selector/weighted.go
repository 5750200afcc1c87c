package selector

import (
	"math/big"
	"math/rand"

	"github.com/rodneyosodo/mosaic/participant"
)

type weighted struct {
	rng       *rand.Rand
	minCohort uint
}

// NewWeighted samples without replacement with probability proportional
// to each participant's declared dataset size, so better-provisioned
// clients are admitted more often.
func NewWeighted(seed int64, minCohort uint) Selector {
	return &weighted{
		rng:       rand.New(rand.NewSource(seed)),
		minCohort: minCohort,
	}
}

func (w *weighted) Select(eligible []participant.Participant, target uint) ([]participant.Participant, error) {
	cohort := make([]participant.Participant, 0, target)
	candidates, err := prepare(eligible, w.minCohort)
	if err != nil {
		return nil, err
	}

	// Dataset sizes are client-declared and untrusted, so stakes are
	// summed and sampled in big.Int: no declared weight can overflow the
	// draw.
	for uint(len(cohort)) < target && len(candidates) > 0 {
		total := new(big.Int)
		weight := new(big.Int)
		for _, p := range candidates {
			total.Add(total, weight.SetUint64(p.Weight()))
		}

		pick := new(big.Int).Rand(w.rng, total)
		idx := 0
		for i, p := range candidates {
			if pick.Cmp(weight.SetUint64(p.Weight())) < 0 {
				idx = i

				break
			}
			pick.Sub(pick, weight)
		}

		cohort = append(cohort, candidates[idx])
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}

	return cohort, nil
}
