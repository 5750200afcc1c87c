package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rodneyosodo/mosaic/pkg/api"
	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
)

func TestEncodeErrorStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code int
	}{
		{err: pkgerrors.ErrAuthenticationFailed, code: http.StatusUnauthorized},
		{err: pkgerrors.ErrNotAdmitted, code: http.StatusForbidden},
		{err: pkgerrors.ErrDuplicateSubmission, code: http.StatusConflict},
		{err: pkgerrors.ErrRoundAlreadyOpen, code: http.StatusConflict},
		{err: pkgerrors.ErrStaleRound, code: http.StatusGone},
		{err: pkgerrors.ErrShapeMismatch, code: http.StatusUnprocessableEntity},
		{err: pkgerrors.ErrInsufficientEligible, code: http.StatusPreconditionFailed},
		{err: pkgerrors.ErrQuorumNotMet, code: http.StatusPreconditionFailed},
		{err: pkgerrors.ErrEmptyKey, code: http.StatusBadRequest},
		{err: pkgerrors.ErrInvalidData, code: http.StatusBadRequest},
		{err: pkgerrors.ErrNotFound, code: http.StatusNotFound},
		{err: pkgerrors.ErrEntityExists, code: http.StatusConflict},
		{err: errors.New("backend exploded"), code: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			api.EncodeError(context.Background(), tc.err, w)

			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, api.ContentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tc.err.Error())
		})
	}
}

func TestEncodeErrorWrapped(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	api.EncodeError(context.Background(), fmt.Errorf("submit: %w", pkgerrors.ErrStaleRound), w)

	assert.Equal(t, http.StatusGone, w.Code)
}
