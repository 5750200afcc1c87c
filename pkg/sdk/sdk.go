package sdk

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
)

const CTJSON string = "application/json"

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// StartRound opens the next federated round.
	//
	// example:
	//  round, _ := sdk.StartRound()
	//  fmt.Println(round)
	StartRound() (Round, error)

	// GetRound gets a round by id, open or archived.
	//
	// example:
	//  round, _ := sdk.GetRound(42)
	//  fmt.Println(round)
	GetRound(id uint64) (Round, error)

	// CurrentRound reports the open round from a participant's point of
	// view. An empty participant id asks for the public view only.
	//
	// example:
	//  info, _ := sdk.CurrentRound("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(info)
	CurrentRound(participantID string) (RoundInfo, error)

	// SubmitUpdate submits a signed model update for the open round.
	//
	// example:
	//  _ = sdk.SubmitUpdate(update)
	SubmitUpdate(update Update) error

	// GetModel gets a published global model by version.
	//
	// example:
	//  m, _ := sdk.GetModel(3)
	//  fmt.Println(m.Version)
	GetModel(version uint64) (Model, error)

	// LatestModel gets the most recently published global model.
	//
	// example:
	//  m, _ := sdk.LatestModel()
	//  fmt.Println(m.Version)
	LatestModel() (Model, error)

	// Heartbeat registers a participant or refreshes its liveness.
	//
	// example:
	//  p, _ := sdk.Heartbeat(sdk.Participant{ID: "worker-1"})
	//  fmt.Println(p)
	Heartbeat(p Participant) (Participant, error)

	// ListParticipants pages through the registry.
	//
	// example:
	//  page, _ := sdk.ListParticipants(0, 10)
	//  fmt.Println(page)
	ListParticipants(offset uint64, limit uint64) (ParticipantPage, error)
}

type mosaicSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &mosaicSDK{
		coordinatorURL: cfg.CoordinatorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *mosaicSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d: %s", resp.StatusCode, body)
	}

	return body, nil
}
