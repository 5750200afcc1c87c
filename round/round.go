package round

import (
	"time"

	"github.com/rodneyosodo/mosaic/model"
)

// State is the lifecycle phase of a round. Transitions are driven
// exclusively by the coordinator.
type State uint8

const (
	Idle State = iota
	Selecting
	Collecting
	Aggregating
	Publishing
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Selecting:
		return "Selecting"
	case Collecting:
		return "Collecting"
	case Aggregating:
		return "Aggregating"
	case Publishing:
		return "Publishing"
	case Closed:
		return "Closed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Round is one aggregation cycle. The record is owned by the coordinator
// for its entire lifetime and mutated only through state transitions.
type Round struct {
	ID         uint64                  `json:"id"`
	State      State                   `json:"state"`
	TargetSize uint                    `json:"target_size"`
	MinUpdates uint                    `json:"min_updates"`
	CreatedAt  time.Time               `json:"created_at"`
	Deadline   time.Time               `json:"deadline"`
	Cohort     map[string]struct{}     `json:"-"`
	CohortIDs  []string                `json:"cohort,omitempty"`
	Updates    map[string]model.Update `json:"-"`
	Received   uint                    `json:"received"`
	FailReason string                  `json:"fail_reason,omitempty"`
}

// Admitted reports whether the participant belongs to the round's frozen
// cohort.
func (r *Round) Admitted(participantID string) bool {
	_, ok := r.Cohort[participantID]

	return ok
}

// Submitted reports whether the participant already has an accepted
// update this round.
func (r *Round) Submitted(participantID string) bool {
	_, ok := r.Updates[participantID]

	return ok
}

// Config carries the per-round knobs the coordinator reads at
// start-round time. It is resolved once from configuration; rounds never
// consult global settings afterwards.
type Config struct {
	Timeout    time.Duration `json:"timeout"    toml:"timeout"`
	TargetSize uint          `json:"target_size" toml:"target_size"`
	MinCohort  uint          `json:"min_cohort"  toml:"min_cohort"`
	MinUpdates uint          `json:"min_updates" toml:"min_updates"`
}
