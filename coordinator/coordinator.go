package coordinator

import (
	"context"
	"time"

	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/participant"
	"github.com/rodneyosodo/mosaic/round"
)

// RoundInfo is what a participant learns when it polls the coordinator:
// whether a round is open, whether it is admitted, and the token it
// must present alongside its update.
type RoundInfo struct {
	RoundID      uint64      `json:"round_id"`
	State        round.State `json:"state"`
	StateName    string      `json:"state_name"`
	Admitted     bool        `json:"admitted"`
	SessionToken string      `json:"session_token,omitempty"`
	Deadline     time.Time   `json:"deadline,omitempty"`
	ModelVersion uint64      `json:"model_version"`
}

// Service is the round coordination core. All round state transitions
// happen behind this interface; callers never reach into round
// internals.
type Service interface {
	// StartRound opens the next round: allocates the id, selects the
	// cohort and arms the collection deadline. Fails with
	// ErrRoundAlreadyOpen while a round is open and with ErrEmptyCohort
	// when selection cannot fill the minimum cohort.
	StartRound(ctx context.Context) (round.Round, error)

	// CurrentRound reports the open round from a participant's point of
	// view, including a session token when the participant is admitted.
	CurrentRound(ctx context.Context, participantID string) (RoundInfo, error)

	// SubmitUpdate verifies and records one participant update. Protocol
	// violations reject the single request and leave the round intact.
	SubmitUpdate(ctx context.Context, update model.Update) error

	// GetModel returns the published model for a version, or the latest
	// when version is zero.
	GetModel(ctx context.Context, version uint64) (model.GlobalModel, error)

	// GetRound returns a round record, open or archived.
	GetRound(ctx context.Context, id uint64) (round.Round, error)

	// Heartbeat refreshes a participant's registry record.
	Heartbeat(ctx context.Context, p participant.Participant) (participant.Participant, error)

	// ListParticipants pages through the registry.
	ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error)

	// Subscribe attaches the coordinator to the heartbeat topic so
	// participants can announce themselves over the broker.
	Subscribe(ctx context.Context) error
}
