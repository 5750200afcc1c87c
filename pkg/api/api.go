package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/absmach/supermq"

	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType     = "application/json"
	ContentTypeCBOR = "application/cbor"

	MaxLimitSize = 100
)

func EncodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

// EncodeError maps the core error taxonomy to status codes: protocol
// violations reject the single request, round failures surface as
// conflicts, backend failures as 5xx.
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, pkgerrors.ErrAuthenticationFailed):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, pkgerrors.ErrNotAdmitted):
		w.WriteHeader(http.StatusForbidden)
	case errors.Is(err, pkgerrors.ErrDuplicateSubmission),
		errors.Is(err, pkgerrors.ErrRoundAlreadyOpen):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, pkgerrors.ErrStaleRound):
		w.WriteHeader(http.StatusGone)
	case errors.Is(err, pkgerrors.ErrShapeMismatch):
		w.WriteHeader(http.StatusUnprocessableEntity)
	case errors.Is(err, pkgerrors.ErrEmptyCohort),
		errors.Is(err, pkgerrors.ErrInsufficientEligible),
		errors.Is(err, pkgerrors.ErrQuorumNotMet):
		w.WriteHeader(http.StatusPreconditionFailed)
	case errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrInvalidData):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, pkgerrors.ErrEntityExists):
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if err := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
