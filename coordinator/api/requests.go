package api

import (
	apiutil "github.com/absmach/supermq/api/http/util"

	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/participant"
)

type startRoundReq struct{}

type currentRoundReq struct {
	participantID string
}

func (r *currentRoundReq) validate() error {
	return nil
}

type getRoundReq struct {
	id uint64
}

func (r *getRoundReq) validate() error {
	if r.id == 0 {
		return apiutil.ErrMissingID
	}

	return nil
}

type getModelReq struct {
	// version zero requests the latest published model.
	version uint64
}

func (r *getModelReq) validate() error {
	return nil
}

type submitUpdateReq struct {
	model.Update `json:",inline"`
}

func (r *submitUpdateReq) validate() error {
	if r.ParticipantID == "" {
		return apiutil.ErrMissingID
	}
	if len(r.Payload) == 0 {
		return apiutil.ErrEmptyList
	}

	return nil
}

type heartbeatReq struct {
	participant.Participant `json:",inline"`
}

func (r *heartbeatReq) validate() error {
	if r.ID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (r *listEntityReq) validate() error {
	return nil
}
