package selector

import (
	"sort"

	"github.com/rodneyosodo/mosaic/participant"
)

type roundRobin struct {
	minCohort uint
	lastRound map[string]uint64
	counter   uint64
}

// NewRoundRobin admits the participants selected least recently,
// breaking ties by ID. It needs no randomness, so it is trivially
// reproducible.
func NewRoundRobin(minCohort uint) Selector {
	return &roundRobin{
		minCohort: minCohort,
		lastRound: make(map[string]uint64),
	}
}

func (r *roundRobin) Select(eligible []participant.Participant, target uint) ([]participant.Participant, error) {
	candidates, err := prepare(eligible, r.minCohort)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return r.lastRound[candidates[i].ID] < r.lastRound[candidates[j].ID]
	})

	if uint(len(candidates)) > target {
		candidates = candidates[:target]
	}

	r.counter++
	for _, p := range candidates {
		r.lastRound[p.ID] = r.counter
	}

	return candidates, nil
}
