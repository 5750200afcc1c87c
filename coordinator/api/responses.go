package api

import (
	"fmt"
	"net/http"

	"github.com/absmach/supermq"

	"github.com/rodneyosodo/mosaic/coordinator"
	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/participant"
	"github.com/rodneyosodo/mosaic/round"
)

var (
	_ supermq.Response = (*roundResponse)(nil)
	_ supermq.Response = (*roundInfoResponse)(nil)
	_ supermq.Response = (*updateResponse)(nil)
	_ supermq.Response = (*modelResponse)(nil)
	_ supermq.Response = (*participantResponse)(nil)
	_ supermq.Response = (*listParticipantsResponse)(nil)
)

type roundResponse struct {
	round.Round
	started bool
}

func (r roundResponse) Code() int {
	if r.started {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (r roundResponse) Headers() map[string]string {
	if r.started {
		return map[string]string{
			"Location": fmt.Sprintf("/rounds/%d", r.ID),
		}
	}

	return map[string]string{}
}

func (r roundResponse) Empty() bool {
	return false
}

type roundInfoResponse struct {
	coordinator.RoundInfo
}

func (r roundInfoResponse) Code() int {
	return http.StatusOK
}

func (r roundInfoResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r roundInfoResponse) Empty() bool {
	return false
}

type updateResponse struct {
	accepted bool
}

func (u updateResponse) Code() int {
	if u.accepted {
		return http.StatusAccepted
	}

	return http.StatusOK
}

func (u updateResponse) Headers() map[string]string {
	return map[string]string{}
}

func (u updateResponse) Empty() bool {
	return true
}

type modelResponse struct {
	model.GlobalModel
}

func (m modelResponse) Code() int {
	return http.StatusOK
}

func (m modelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (m modelResponse) Empty() bool {
	return false
}

type participantResponse struct {
	participant.Participant
}

func (p participantResponse) Code() int {
	return http.StatusOK
}

func (p participantResponse) Headers() map[string]string {
	return map[string]string{}
}

func (p participantResponse) Empty() bool {
	return false
}

type listParticipantsResponse struct {
	participant.Page
}

func (l listParticipantsResponse) Code() int {
	return http.StatusOK
}

func (l listParticipantsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listParticipantsResponse) Empty() bool {
	return false
}
