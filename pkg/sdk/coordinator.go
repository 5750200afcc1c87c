package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	roundsEndpoint       = "/rounds"
	updatesEndpoint      = "/updates"
	modelsEndpoint       = "/models"
	participantsEndpoint = "/participants"
)

type Round struct {
	ID         uint64    `json:"id"`
	State      uint8     `json:"state"`
	TargetSize uint      `json:"target_size"`
	MinUpdates uint      `json:"min_updates"`
	CreatedAt  time.Time `json:"created_at"`
	Deadline   time.Time `json:"deadline"`
	Cohort     []string  `json:"cohort,omitempty"`
	Received   uint      `json:"received"`
	FailReason string    `json:"fail_reason,omitempty"`
}

type RoundInfo struct {
	RoundID      uint64    `json:"round_id"`
	State        uint8     `json:"state"`
	StateName    string    `json:"state_name"`
	Admitted     bool      `json:"admitted"`
	SessionToken string    `json:"session_token,omitempty"`
	Deadline     time.Time `json:"deadline,omitempty"`
	ModelVersion uint64    `json:"model_version"`
}

type Descriptor struct {
	DataType string   `json:"data_type"`
	Shape    []uint64 `json:"shape"`
}

type Update struct {
	RoundID       uint64     `json:"round_id"`
	ParticipantID string     `json:"participant_id"`
	Payload       []byte     `json:"payload"`
	Descriptor    Descriptor `json:"descriptor"`
	NumSamples    uint64     `json:"num_samples"`
	Signature     []byte     `json:"signature"`
}

type Model struct {
	Version     uint64     `json:"version"`
	Payload     []byte     `json:"payload"`
	Descriptor  Descriptor `json:"descriptor"`
	OptState    []byte     `json:"opt_state,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
}

type Participant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	PublicKey   []byte    `json:"public_key"`
	DatasetSize uint64    `json:"dataset_size"`
	ActiveRound uint64    `json:"active_round,omitempty"`
	Eligible    bool      `json:"eligible"`
	Alive       bool      `json:"alive"`
	LastSeen    time.Time `json:"last_seen"`
}

type ParticipantPage struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Participants []Participant `json:"participants"`
}

func (sdk *mosaicSDK) StartRound() (Round, error) {
	url := sdk.coordinatorURL + roundsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, nil, http.StatusCreated)
	if err != nil {
		return Round{}, err
	}

	var r Round
	if err := json.Unmarshal(body, &r); err != nil {
		return Round{}, err
	}

	return r, nil
}

func (sdk *mosaicSDK) GetRound(id uint64) (Round, error) {
	url := fmt.Sprintf("%s%s/%d", sdk.coordinatorURL, roundsEndpoint, id)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Round{}, err
	}

	var r Round
	if err := json.Unmarshal(body, &r); err != nil {
		return Round{}, err
	}

	return r, nil
}

func (sdk *mosaicSDK) CurrentRound(participantID string) (RoundInfo, error) {
	url := sdk.coordinatorURL + roundsEndpoint + "/current"
	if participantID != "" {
		url += "?participant_id=" + participantID
	}

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return RoundInfo{}, err
	}

	var info RoundInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return RoundInfo{}, err
	}

	return info, nil
}

func (sdk *mosaicSDK) SubmitUpdate(update Update) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}

	url := sdk.coordinatorURL + updatesEndpoint

	if _, err := sdk.processRequest(http.MethodPost, url, data, http.StatusAccepted); err != nil {
		return err
	}

	return nil
}

func (sdk *mosaicSDK) GetModel(version uint64) (Model, error) {
	url := fmt.Sprintf("%s%s/%d", sdk.coordinatorURL, modelsEndpoint, version)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Model{}, err
	}

	var m Model
	if err := json.Unmarshal(body, &m); err != nil {
		return Model{}, err
	}

	return m, nil
}

func (sdk *mosaicSDK) LatestModel() (Model, error) {
	url := sdk.coordinatorURL + modelsEndpoint + "/latest"

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Model{}, err
	}

	var m Model
	if err := json.Unmarshal(body, &m); err != nil {
		return Model{}, err
	}

	return m, nil
}

func (sdk *mosaicSDK) Heartbeat(p Participant) (Participant, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Participant{}, err
	}

	url := fmt.Sprintf("%s%s/%s/heartbeat", sdk.coordinatorURL, participantsEndpoint, p.ID)

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return Participant{}, err
	}

	var out Participant
	if err := json.Unmarshal(body, &out); err != nil {
		return Participant{}, err
	}

	return out, nil
}

func (sdk *mosaicSDK) ListParticipants(offset, limit uint64) (ParticipantPage, error) {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	query := ""
	if len(queries) > 0 {
		query = "?" + strings.Join(queries, "&")
	}
	url := sdk.coordinatorURL + participantsEndpoint + query

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return ParticipantPage{}, err
	}

	var page ParticipantPage
	if err := json.Unmarshal(body, &page); err != nil {
		return ParticipantPage{}, err
	}

	return page, nil
}
