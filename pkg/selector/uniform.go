package selector

import (
	"math/rand"

	"github.com/rodneyosodo/mosaic/participant"
)

type uniform struct {
	rng       *rand.Rand
	minCohort uint
}

// NewUniform samples the cohort uniformly at random without
// replacement.
func NewUniform(seed int64, minCohort uint) Selector {
	return &uniform{
		rng:       rand.New(rand.NewSource(seed)),
		minCohort: minCohort,
	}
}

func (u *uniform) Select(eligible []participant.Participant, target uint) ([]participant.Participant, error) {
	candidates, err := prepare(eligible, u.minCohort)
	if err != nil {
		return nil, err
	}

	u.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if uint(len(candidates)) > target {
		candidates = candidates[:target]
	}

	return candidates, nil
}
