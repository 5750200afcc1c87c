package selector_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/mosaic/participant"
	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
	"github.com/rodneyosodo/mosaic/pkg/selector"
)

func eligible(n int) []participant.Participant {
	out := make([]participant.Participant, 0, n)
	for i := range n {
		out = append(out, participant.Participant{
			ID:          fmt.Sprintf("participant-%02d", i),
			DatasetSize: uint64(i + 1),
			Eligible:    true,
			Alive:       true,
		})
	}

	return out
}

func ids(cohort []participant.Participant) []string {
	out := make([]string, len(cohort))
	for i, p := range cohort {
		out[i] = p.ID
	}

	return out
}

func TestNewUnknownPolicy(t *testing.T) {
	t.Parallel()

	_, err := selector.New("lottery", 0, 1)
	assert.Error(t, err)
}

func TestSelectDeterministicForSeed(t *testing.T) {
	t.Parallel()

	for _, policy := range []string{selector.PolicyUniform, selector.PolicyWeighted} {
		t.Run(policy, func(t *testing.T) {
			t.Parallel()

			first, err := selector.New(policy, 42, 1)
			require.NoError(t, err)
			second, err := selector.New(policy, 42, 1)
			require.NoError(t, err)

			a, err := first.Select(eligible(20), 5)
			require.NoError(t, err)
			b, err := second.Select(eligible(20), 5)
			require.NoError(t, err)

			assert.Equal(t, ids(a), ids(b))
			assert.Len(t, a, 5)
		})
	}
}

func TestSelectSnapshotOrderIrrelevant(t *testing.T) {
	t.Parallel()

	pool := eligible(10)
	reversed := make([]participant.Participant, len(pool))
	for i, p := range pool {
		reversed[len(pool)-1-i] = p
	}

	first, err := selector.New(selector.PolicyUniform, 7, 1)
	require.NoError(t, err)
	second, err := selector.New(selector.PolicyUniform, 7, 1)
	require.NoError(t, err)

	a, err := first.Select(pool, 4)
	require.NoError(t, err)
	b, err := second.Select(reversed, 4)
	require.NoError(t, err)

	assert.Equal(t, ids(a), ids(b))
}

func TestSelectFiltersIneligible(t *testing.T) {
	t.Parallel()

	pool := eligible(4)
	pool[1].Eligible = false
	pool[2].Alive = false

	sel, err := selector.New(selector.PolicyUniform, 0, 1)
	require.NoError(t, err)

	cohort, err := sel.Select(pool, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"participant-00", "participant-03"}, ids(cohort))
}

func TestSelectInsufficientEligible(t *testing.T) {
	t.Parallel()

	for _, policy := range []string{selector.PolicyUniform, selector.PolicyWeighted, selector.PolicyRoundRobin} {
		t.Run(policy, func(t *testing.T) {
			t.Parallel()

			sel, err := selector.New(policy, 0, 5)
			require.NoError(t, err)

			_, err = sel.Select(eligible(3), 5)
			assert.ErrorIs(t, err, pkgerrors.ErrInsufficientEligible)
		})
	}
}

func TestSelectEmptySnapshot(t *testing.T) {
	t.Parallel()

	sel, err := selector.New(selector.PolicyUniform, 0, 1)
	require.NoError(t, err)

	_, err = sel.Select(nil, 5)
	assert.ErrorIs(t, err, pkgerrors.ErrInsufficientEligible)
}

func TestWeightedSamplesWithoutReplacement(t *testing.T) {
	t.Parallel()

	sel, err := selector.New(selector.PolicyWeighted, 3, 1)
	require.NoError(t, err)

	cohort, err := sel.Select(eligible(8), 8)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, p := range cohort {
		assert.False(t, seen[p.ID], "participant %s selected twice", p.ID)
		seen[p.ID] = true
	}
	assert.Len(t, cohort, 8)
}

func TestWeightedOverflowingStakes(t *testing.T) {
	t.Parallel()

	// Declared dataset sizes are untrusted; two of these sum past int64
	// and the draw must still succeed.
	pool := []participant.Participant{
		{ID: "participant-00", DatasetSize: math.MaxUint64 / 2, Eligible: true, Alive: true},
		{ID: "participant-01", DatasetSize: math.MaxUint64 / 2, Eligible: true, Alive: true},
		{ID: "participant-02", DatasetSize: math.MaxUint64, Eligible: true, Alive: true},
	}

	sel, err := selector.New(selector.PolicyWeighted, 11, 1)
	require.NoError(t, err)

	cohort, err := sel.Select(pool, 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"participant-00", "participant-01", "participant-02"}, ids(cohort))
}

func TestRoundRobinRotates(t *testing.T) {
	t.Parallel()

	sel, err := selector.New(selector.PolicyRoundRobin, 0, 1)
	require.NoError(t, err)

	pool := eligible(4)

	first, err := sel.Select(pool, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"participant-00", "participant-01"}, ids(first))

	second, err := sel.Select(pool, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"participant-02", "participant-03"}, ids(second))

	third, err := sel.Select(pool, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"participant-00", "participant-01"}, ids(third))
}
