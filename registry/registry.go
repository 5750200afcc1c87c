package registry

import (
	"context"
	"errors"
	"time"

	"github.com/rodneyosodo/mosaic/participant"
	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
	"github.com/rodneyosodo/mosaic/pkg/storage"
)

const snapshotPageSize = 100

// Service tracks known participants and their eligibility metadata.
// Records are refreshed by heartbeats and never deleted mid-round.
type Service interface {
	// Heartbeat upserts a participant record and refreshes its
	// last-seen timestamp.
	Heartbeat(ctx context.Context, p participant.Participant) (participant.Participant, error)
	Get(ctx context.Context, id string) (participant.Participant, error)
	List(ctx context.Context, offset, limit uint64) (participant.Page, error)
	Delete(ctx context.Context, id string) error
	// EligibleSnapshot is a point-in-time read of all participants with
	// liveness computed against the freshness window. Staleness is
	// acceptable; the selector does not need linearizable reads.
	EligibleSnapshot(ctx context.Context) ([]participant.Participant, error)
	// MarkAdmitted records that a participant entered the given round,
	// keeping it out of eligible snapshots until released.
	MarkAdmitted(ctx context.Context, id string, roundID uint64) error
	// Release clears a participant's active-round marker.
	Release(ctx context.Context, id string) error
}

type service struct {
	participants storage.Storage[participant.Participant]
	freshness    time.Duration
}

func NewService(participants storage.Storage[participant.Participant], freshness time.Duration) Service {
	return &service{
		participants: participants,
		freshness:    freshness,
	}
}

func (svc *service) Heartbeat(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	if p.ID == "" {
		return participant.Participant{}, pkgerrors.ErrEmptyKey
	}

	existing, err := svc.participants.Get(ctx, p.ID)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		p.Eligible = true
		p.LastSeen = time.Now()
		p.SetAlive(svc.freshness)
		if err := svc.participants.Create(ctx, p.ID, p); err != nil {
			return participant.Participant{}, err
		}

		return p, nil
	case err != nil:
		return participant.Participant{}, err
	}

	existing.LastSeen = time.Now()
	if len(p.PublicKey) > 0 {
		existing.PublicKey = p.PublicKey
	}
	if p.DatasetSize > 0 {
		existing.DatasetSize = p.DatasetSize
	}
	if p.Name != "" {
		existing.Name = p.Name
	}
	existing.SetAlive(svc.freshness)

	if err := svc.participants.Update(ctx, p.ID, existing); err != nil {
		return participant.Participant{}, err
	}

	return existing, nil
}

func (svc *service) Get(ctx context.Context, id string) (participant.Participant, error) {
	p, err := svc.participants.Get(ctx, id)
	if err != nil {
		return participant.Participant{}, err
	}
	p.SetAlive(svc.freshness)

	return p, nil
}

func (svc *service) List(ctx context.Context, offset, limit uint64) (participant.Page, error) {
	data, total, err := svc.participants.List(ctx, offset, limit)
	if err != nil {
		return participant.Page{}, err
	}
	for i := range data {
		data[i].SetAlive(svc.freshness)
	}

	return participant.Page{
		Offset:       offset,
		Limit:        limit,
		Total:        total,
		Participants: data,
	}, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.participants.Delete(ctx, id)
}

func (svc *service) EligibleSnapshot(ctx context.Context) ([]participant.Participant, error) {
	var snapshot []participant.Participant
	var offset uint64
	for {
		data, total, err := svc.participants.List(ctx, offset, snapshotPageSize)
		if err != nil {
			return nil, err
		}
		for _, p := range data {
			p.SetAlive(svc.freshness)
			if p.ActiveRound != 0 {
				continue
			}
			snapshot = append(snapshot, p)
		}
		offset += uint64(len(data))
		if offset >= total || len(data) == 0 {
			break
		}
	}

	return snapshot, nil
}

func (svc *service) MarkAdmitted(ctx context.Context, id string, roundID uint64) error {
	p, err := svc.participants.Get(ctx, id)
	if err != nil {
		return err
	}
	p.ActiveRound = roundID

	return svc.participants.Update(ctx, id, p)
}

func (svc *service) Release(ctx context.Context, id string) error {
	p, err := svc.participants.Get(ctx, id)
	if err != nil {
		return err
	}
	p.ActiveRound = 0

	return svc.participants.Update(ctx, id, p)
}
