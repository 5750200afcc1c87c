package errors

import "errors"

// Storage and data errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("empty key")
	ErrInvalidData  = errors.New("invalid data type")
	ErrEntityExists = errors.New("entity already exists")
)

// Protocol violations. These reject a single request and leave round
// state untouched.
var (
	ErrNotAdmitted          = errors.New("participant not admitted to the current round")
	ErrDuplicateSubmission  = errors.New("participant already submitted an update this round")
	ErrStaleRound           = errors.New("update targets a round that is not collecting")
	ErrAuthenticationFailed = errors.New("update failed authentication")
	ErrShapeMismatch        = errors.New("update shape disagrees with the global model")
)

// Round-level failures. These terminate the round.
var (
	ErrRoundAlreadyOpen     = errors.New("a round is already open")
	ErrEmptyCohort          = errors.New("selected cohort is below the configured minimum")
	ErrInsufficientEligible = errors.New("not enough eligible participants")
	ErrQuorumNotMet         = errors.New("round deadline reached below the update quorum")
)

// Invariant violations. Reaching these indicates a defect, not a bad request.
var ErrEmptyUpdateSet = errors.New("aggregation invoked with zero updates")

// Kind classifies an error per the failure taxonomy so that the transport
// layer can map it to status codes without knowing any wire format.
type Kind int

const (
	KindUnknown Kind = iota
	KindProtocolViolation
	KindRoundFailure
	KindInvariantViolation
)

func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNotAdmitted),
		errors.Is(err, ErrDuplicateSubmission),
		errors.Is(err, ErrStaleRound),
		errors.Is(err, ErrAuthenticationFailed),
		errors.Is(err, ErrShapeMismatch):
		return KindProtocolViolation
	case errors.Is(err, ErrEmptyCohort),
		errors.Is(err, ErrInsufficientEligible),
		errors.Is(err, ErrQuorumNotMet),
		errors.Is(err, ErrRoundAlreadyOpen):
		return KindRoundFailure
	case errors.Is(err, ErrEmptyUpdateSet):
		return KindInvariantViolation
	default:
		return KindUnknown
	}
}
