package participant

import "time"

// Participant is a remote client that trains locally and submits model
// updates. The registry owns these records; rounds only reference them
// by ID.
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

// SetAlive refreshes the liveness flag against the given heartbeat
// freshness window.
func (p *Participant) SetAlive(window time.Duration) {
	p.Alive = !p.LastSeen.IsZero() && time.Since(p.LastSeen) <= window
}

// Weight is the aggregation weight a participant's updates carry. A
// participant that declares no dataset size contributes uniformly.
func (p Participant) Weight() uint64 {
	if p.DatasetSize == 0 {
		return 1
	}

	return p.DatasetSize
}

type Page struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Participants []Participant `json:"participants"`
}
