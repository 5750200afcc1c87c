package selector

import (
	"fmt"
	"sort"

	"github.com/rodneyosodo/mosaic/participant"
	"github.com/rodneyosodo/mosaic/pkg/errors"
)

const (
	PolicyUniform    = "uniform"
	PolicyWeighted   = "weighted"
	PolicyRoundRobin = "roundrobin"
)

// Selector produces the admitted cohort for a round out of the
// registry's eligible snapshot. Implementations must be deterministic
// for a fixed seed so rounds are reproducible in tests.
type Selector interface {
	Select(eligible []participant.Participant, target uint) ([]participant.Participant, error)
}

// New resolves a sampling policy by name. The policy set is closed:
// unknown names are a configuration error, not a fallback.
func New(policy string, seed int64, minCohort uint) (Selector, error) {
	switch policy {
	case PolicyUniform:
		return NewUniform(seed, minCohort), nil
	case PolicyWeighted:
		return NewWeighted(seed, minCohort), nil
	case PolicyRoundRobin:
		return NewRoundRobin(minCohort), nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", policy)
	}
}

// prepare filters out non-eligible entries and orders candidates by ID
// so that sampling sees the same sequence regardless of snapshot order.
func prepare(eligible []participant.Participant, minCohort uint) ([]participant.Participant, error) {
	candidates := make([]participant.Participant, 0, len(eligible))
	for _, p := range eligible {
		if p.Eligible && p.Alive {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})

	if uint(len(candidates)) < minCohort {
		return nil, fmt.Errorf("%w: have %d, need %d", errors.ErrInsufficientEligible, len(candidates), minCohort)
	}

	return candidates, nil
}
