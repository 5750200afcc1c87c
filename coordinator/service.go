package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/participant"
	"github.com/rodneyosodo/mosaic/pkg/aggregator"
	"github.com/rodneyosodo/mosaic/pkg/crypto"
	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
	"github.com/rodneyosodo/mosaic/pkg/modelstore"
	"github.com/rodneyosodo/mosaic/pkg/mqtt"
	"github.com/rodneyosodo/mosaic/pkg/selector"
	"github.com/rodneyosodo/mosaic/pkg/storage"
	"github.com/rodneyosodo/mosaic/registry"
	"github.com/rodneyosodo/mosaic/round"
)

const (
	archivePageSize = 100
	maxBackendTries = 4

	TopicRoundOpen      = "fl/rounds/open"
	TopicRoundClosed    = "fl/rounds/closed"
	TopicModelPublished = "fl/models/published"
	TopicHeartbeat      = "fl/participants/heartbeat"
)

// Config is the plain settings struct the coordinator consumes. It is
// resolved once at construction; rounds never consult global state.
type Config struct {
	Round     round.Config
	Strategy  string
	Policy    string
	Seed      int64
	Freshness time.Duration
	TokenKey  []byte
}

type service struct {
	mu      sync.Mutex
	current *round.Round
	lastID  uint64
	timer   *time.Timer

	cfg      Config
	registry registry.Service
	selector selector.Selector
	strategy aggregator.Strategy
	models   modelstore.Store
	rounds   storage.Storage[round.Round]
	verifier crypto.Verifier
	tokens   crypto.TokenIssuer
	pubsub   mqtt.PubSub
	logger   *slog.Logger
}

// NewService wires the coordination core. The rounds storage archives
// terminated rounds; on restart the next round id resumes past both the
// archive and the latest published model, so ids stay strictly
// increasing across restarts and failed rounds alike.
func NewService(
	cfg Config,
	reg registry.Service,
	sel selector.Selector,
	strat aggregator.Strategy,
	models modelstore.Store,
	rounds storage.Storage[round.Round],
	verifier crypto.Verifier,
	pubsub mqtt.PubSub,
	logger *slog.Logger,
) (Service, error) {
	svc := &service{
		cfg:      cfg,
		registry: reg,
		selector: sel,
		strategy: strat,
		models:   models,
		rounds:   rounds,
		verifier: verifier,
		tokens:   crypto.NewTokenIssuer(cfg.TokenKey),
		pubsub:   pubsub,
		logger:   logger,
	}
	if err := svc.restore(context.Background()); err != nil {
		return nil, err
	}

	return svc, nil
}

func (svc *service) restore(ctx context.Context) error {
	var offset uint64
	for {
		archived, total, err := svc.rounds.List(ctx, offset, archivePageSize)
		if err != nil {
			return fmt.Errorf("failed to restore round archive: %w", err)
		}
		for _, r := range archived {
			if r.ID > svc.lastID {
				svc.lastID = r.ID
			}
		}
		offset += uint64(len(archived))
		if offset >= total || len(archived) == 0 {
			break
		}
	}

	latest, err := svc.models.Latest(ctx)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to read latest model: %w", err)
	case latest.Version > svc.lastID:
		svc.lastID = latest.Version
	}

	return nil
}

func (svc *service) StartRound(ctx context.Context) (round.Round, error) {
	svc.mu.Lock()
	if svc.current != nil {
		svc.mu.Unlock()

		return round.Round{}, pkgerrors.ErrRoundAlreadyOpen
	}

	svc.lastID++
	r := &round.Round{
		ID:         svc.lastID,
		State:      round.Selecting,
		TargetSize: svc.cfg.Round.TargetSize,
		MinUpdates: svc.cfg.Round.MinUpdates,
		CreatedAt:  time.Now(),
		Deadline:   time.Now().Add(svc.cfg.Round.Timeout),
		Cohort:     make(map[string]struct{}),
		Updates:    make(map[string]model.Update),
	}
	svc.current = r
	svc.mu.Unlock()

	// Selection touches the registry, so it happens off the round lock.
	snapshot, err := svc.eligibleSnapshot(ctx)
	if err != nil {
		svc.failRound(ctx, r.ID, fmt.Errorf("%w: %w", pkgerrors.ErrEmptyCohort, err))

		return round.Round{}, err
	}

	cohort, err := svc.selector.Select(snapshot, r.TargetSize)
	if err != nil || uint(len(cohort)) < svc.cfg.Round.MinCohort {
		if err == nil {
			err = pkgerrors.ErrInsufficientEligible
		}
		err = fmt.Errorf("%w: %w", pkgerrors.ErrEmptyCohort, err)
		svc.failRound(ctx, r.ID, err)

		return round.Round{}, err
	}

	svc.mu.Lock()
	if svc.current == nil || svc.current.ID != r.ID || r.State != round.Selecting {
		svc.mu.Unlock()

		return round.Round{}, pkgerrors.ErrStaleRound
	}
	ids := make([]string, 0, len(cohort))
	for _, p := range cohort {
		r.Cohort[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	r.CohortIDs = ids
	r.State = round.Collecting
	svc.timer = time.AfterFunc(time.Until(r.Deadline), func() {
		svc.expireCollection(r.ID)
	})
	snapshotRound := *r
	svc.mu.Unlock()

	for _, id := range ids {
		if err := svc.registry.MarkAdmitted(ctx, id, r.ID); err != nil {
			svc.logger.Warn("failed to mark participant admitted",
				slog.String("participant_id", id), slog.Any("error", err))
		}
	}

	svc.publish(ctx, TopicRoundOpen, map[string]any{
		"round_id": r.ID,
		"cohort":   ids,
		"deadline": r.Deadline,
	})

	return snapshotRound, nil
}

func (svc *service) eligibleSnapshot(ctx context.Context) ([]participant.Participant, error) {
	return backoff.Retry(ctx, func() ([]participant.Participant, error) {
		return svc.registry.EligibleSnapshot(ctx)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxBackendTries))
}

func (svc *service) SubmitUpdate(ctx context.Context, update model.Update) error {
	// Admission checks are read-only; authentication happens before any
	// round state is mutated.
	svc.mu.Lock()
	r := svc.current
	if r == nil || r.State != round.Collecting || update.RoundID != r.ID {
		svc.mu.Unlock()

		return pkgerrors.ErrStaleRound
	}
	if !r.Admitted(update.ParticipantID) {
		svc.mu.Unlock()

		return pkgerrors.ErrNotAdmitted
	}
	if r.Submitted(update.ParticipantID) {
		svc.mu.Unlock()

		return pkgerrors.ErrDuplicateSubmission
	}
	roundID := r.ID
	svc.mu.Unlock()

	p, err := svc.registry.Get(ctx, update.ParticipantID)
	if err != nil {
		return fmt.Errorf("%w: unknown participant", pkgerrors.ErrAuthenticationFailed)
	}
	if err := svc.verifier.Verify(update, p.PublicKey); err != nil {
		return err
	}
	if err := svc.checkShape(ctx, update); err != nil {
		return err
	}

	svc.mu.Lock()
	r = svc.current
	// The deadline may have fired while the signature was checked.
	if r == nil || r.State != round.Collecting || r.ID != roundID {
		svc.mu.Unlock()

		return pkgerrors.ErrStaleRound
	}
	if r.Submitted(update.ParticipantID) {
		svc.mu.Unlock()

		return pkgerrors.ErrDuplicateSubmission
	}
	update.ReceivedAt = time.Now()
	r.Updates[update.ParticipantID] = update
	r.Received++

	// Early close: every admitted participant has reported.
	if r.Received >= uint(len(r.Cohort)) {
		r.State = round.Aggregating
		if svc.timer != nil {
			svc.timer.Stop()
		}
		go svc.closeRound(context.WithoutCancel(ctx), r)
	}
	svc.mu.Unlock()

	return nil
}

// checkShape rejects an update whose descriptor disagrees with the
// published model before it can poison the round.
func (svc *service) checkShape(ctx context.Context, update model.Update) error {
	if _, err := model.DecodeVector(update.Payload, update.Descriptor); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrShapeMismatch, err)
	}

	prev, err := svc.models.Latest(ctx)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read latest model: %w", err)
	}
	if !update.Descriptor.Equal(prev.Descriptor) {
		return pkgerrors.ErrShapeMismatch
	}

	return nil
}

// expireCollection is the collection deadline edge. Quorum met moves
// the round to aggregation; otherwise it fails with QuorumNotMet.
func (svc *service) expireCollection(roundID uint64) {
	ctx := context.Background()

	svc.mu.Lock()
	r := svc.current
	if r == nil || r.ID != roundID || r.State != round.Collecting {
		svc.mu.Unlock()

		return
	}
	if r.Received >= r.MinUpdates {
		r.State = round.Aggregating
		svc.mu.Unlock()
		go svc.closeRound(ctx, r)

		return
	}

	cause := fmt.Errorf("%w: received %d of %d", pkgerrors.ErrQuorumNotMet, r.Received, r.MinUpdates)
	r.State = round.Failed
	r.FailReason = cause.Error()
	failed := *r
	svc.current = nil
	svc.mu.Unlock()

	svc.finalizeFailed(ctx, failed, cause)
}

// closeRound runs aggregation and publishing. The round is already in
// Aggregating, so no submission can race it; once started, aggregation
// always runs to completion or explicit failure.
func (svc *service) closeRound(ctx context.Context, r *round.Round) {
	prev, err := backoff.Retry(ctx, func() (model.GlobalModel, error) {
		m, err := svc.models.Latest(ctx)
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return model.GlobalModel{}, nil
		}

		return m, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxBackendTries))
	if err != nil {
		svc.failRound(ctx, r.ID, fmt.Errorf("failed to load previous model: %w", err))

		return
	}

	feats, descriptor, err := svc.features(prev, r)
	if err != nil {
		svc.failRound(ctx, r.ID, err)

		return
	}

	result, err := svc.strategy.Aggregate(feats)
	if err != nil {
		svc.failRound(ctx, r.ID, fmt.Errorf("aggregation failed: %w", err))

		return
	}

	svc.mu.Lock()
	if svc.current == nil || svc.current.ID != r.ID || r.State != round.Aggregating {
		svc.mu.Unlock()

		return
	}
	r.State = round.Publishing
	svc.mu.Unlock()

	candidate, err := svc.encodeCandidate(r.ID, descriptor, result)
	if err != nil {
		svc.failRound(ctx, r.ID, err)

		return
	}

	// Write-then-transition: the round closes only after the new version
	// is durably recorded.
	if _, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := svc.models.Put(ctx, candidate)
		if errors.Is(err, pkgerrors.ErrEntityExists) {
			return struct{}{}, backoff.Permanent(err)
		}

		return struct{}{}, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxBackendTries)); err != nil {
		svc.failRound(ctx, r.ID, fmt.Errorf("failed to publish model: %w", err))

		return
	}

	svc.mu.Lock()
	r.State = round.Closed
	closed := *r
	svc.current = nil
	svc.mu.Unlock()

	svc.archive(ctx, closed)
	svc.releaseCohort(ctx, closed.CohortIDs)

	svc.logger.Info("round closed",
		slog.Uint64("round_id", closed.ID),
		slog.Uint64("model_version", candidate.Version),
		slog.Int("updates", int(closed.Received)),
		slog.String("strategy", svc.strategy.Name()),
	)

	svc.publish(ctx, TopicModelPublished, map[string]any{
		"round_id": closed.ID,
		"version":  candidate.Version,
	})
}

// features decodes the round's updates into aggregator inputs, ordered
// by participant id. The exact arithmetic makes ordering irrelevant to
// the result; a fixed order keeps diagnostics stable.
func (svc *service) features(prev model.GlobalModel, r *round.Round) (aggregator.Features, model.Descriptor, error) {
	svc.mu.Lock()
	updates := make([]model.Update, 0, len(r.Updates))
	for _, u := range r.Updates {
		updates = append(updates, u)
	}
	svc.mu.Unlock()

	sort.Slice(updates, func(i, j int) bool {
		return updates[i].ParticipantID < updates[j].ParticipantID
	})

	if len(updates) == 0 {
		return aggregator.Features{}, model.Descriptor{}, pkgerrors.ErrEmptyUpdateSet
	}

	descriptor := updates[0].Descriptor
	feats := aggregator.Features{
		Locals: make([]model.Vector, 0, len(updates)),
		Stakes: make([]uint64, 0, len(updates)),
	}

	if len(prev.Payload) > 0 {
		global, err := model.DecodeVector(prev.Payload, prev.Descriptor)
		if err != nil {
			return aggregator.Features{}, model.Descriptor{}, fmt.Errorf("failed to decode global model: %w", err)
		}
		feats.Global = global
		descriptor = prev.Descriptor

		mt, vt, err := aggregator.DecodeState(prev.OptState)
		if err != nil {
			return aggregator.Features{}, model.Descriptor{}, err
		}
		feats.MT, feats.VT = mt, vt
	}

	for _, u := range updates {
		local, err := model.DecodeVector(u.Payload, u.Descriptor)
		if err != nil {
			return aggregator.Features{}, model.Descriptor{}, fmt.Errorf("%w: %w", pkgerrors.ErrShapeMismatch, err)
		}
		if !u.Descriptor.Equal(descriptor) {
			return aggregator.Features{}, model.Descriptor{}, pkgerrors.ErrShapeMismatch
		}
		feats.Locals = append(feats.Locals, local)
		feats.Stakes = append(feats.Stakes, u.Weight())
	}

	return feats, descriptor, nil
}

func (svc *service) encodeCandidate(version uint64, descriptor model.Descriptor, result aggregator.Result) (model.GlobalModel, error) {
	payload, err := model.EncodeVector(result.Model)
	if err != nil {
		return model.GlobalModel{}, fmt.Errorf("failed to encode candidate model: %w", err)
	}
	state, err := aggregator.EncodeState(result)
	if err != nil {
		return model.GlobalModel{}, fmt.Errorf("failed to encode optimizer state: %w", err)
	}

	return model.GlobalModel{
		Version:     version,
		Payload:     payload,
		Descriptor:  descriptor,
		OptState:    state,
		PublishedAt: time.Now(),
	}, nil
}

// failRound terminates the round. Failed is terminal for the round, not
// the server: state is archived and discarded, and the coordinator is
// immediately eligible to start the next round.
func (svc *service) failRound(ctx context.Context, roundID uint64, cause error) {
	svc.mu.Lock()
	r := svc.current
	if r == nil || r.ID != roundID || r.State == round.Failed {
		svc.mu.Unlock()

		return
	}
	r.State = round.Failed
	r.FailReason = cause.Error()
	failed := *r
	svc.current = nil
	if svc.timer != nil {
		svc.timer.Stop()
	}
	svc.mu.Unlock()

	svc.finalizeFailed(ctx, failed, cause)
}

func (svc *service) finalizeFailed(ctx context.Context, failed round.Round, cause error) {
	svc.archive(ctx, failed)
	svc.releaseCohort(ctx, failed.CohortIDs)

	svc.logger.Warn("round failed",
		slog.Uint64("round_id", failed.ID),
		slog.Int("updates", int(failed.Received)),
		slog.Any("error", cause),
	)

	svc.publish(ctx, TopicRoundClosed, map[string]any{
		"round_id": failed.ID,
		"state":    failed.State.String(),
		"reason":   failed.FailReason,
	})
}

func (svc *service) archive(ctx context.Context, r round.Round) {
	if err := svc.rounds.Create(ctx, archiveKey(r.ID), r); err != nil {
		svc.logger.Warn("failed to archive round",
			slog.Uint64("round_id", r.ID), slog.Any("error", err))
	}
}

func (svc *service) releaseCohort(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := svc.registry.Release(ctx, id); err != nil {
			svc.logger.Warn("failed to release participant",
				slog.String("participant_id", id), slog.Any("error", err))
		}
	}
}

func (svc *service) publish(ctx context.Context, topic string, msg any) {
	if svc.pubsub == nil {
		return
	}
	if err := svc.pubsub.Publish(ctx, topic, msg); err != nil {
		svc.logger.Warn("failed to publish event",
			slog.String("topic", topic), slog.Any("error", err))
	}
}

func (svc *service) CurrentRound(ctx context.Context, participantID string) (RoundInfo, error) {
	var version uint64
	latest, err := svc.models.Latest(ctx)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
	case err != nil:
		return RoundInfo{}, err
	default:
		version = latest.Version
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	info := RoundInfo{
		State:        round.Idle,
		StateName:    round.Idle.String(),
		ModelVersion: version,
	}
	r := svc.current
	if r == nil {
		return info, nil
	}

	info.RoundID = r.ID
	info.State = r.State
	info.StateName = r.State.String()
	info.Deadline = r.Deadline
	if participantID != "" && r.Admitted(participantID) {
		info.Admitted = true
		info.SessionToken = svc.tokens.Issue(r.ID, participantID)
	}

	return info, nil
}

func (svc *service) GetModel(ctx context.Context, version uint64) (model.GlobalModel, error) {
	if version == 0 {
		return svc.models.Latest(ctx)
	}

	return svc.models.Get(ctx, version)
}

func (svc *service) GetRound(ctx context.Context, id uint64) (round.Round, error) {
	svc.mu.Lock()
	if svc.current != nil && svc.current.ID == id {
		r := *svc.current
		svc.mu.Unlock()

		return r, nil
	}
	svc.mu.Unlock()

	return svc.rounds.Get(ctx, archiveKey(id))
}

func (svc *service) Heartbeat(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	return svc.registry.Heartbeat(ctx, p)
}

func (svc *service) ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error) {
	return svc.registry.List(ctx, offset, limit)
}

// Subscribe lets participants announce themselves over the broker
// instead of HTTP.
func (svc *service) Subscribe(ctx context.Context) error {
	if svc.pubsub == nil {
		return nil
	}

	return svc.pubsub.Subscribe(ctx, TopicHeartbeat, func(topic string, msg map[string]any) error {
		p := participant.Participant{}
		if id, ok := msg["participant_id"].(string); ok {
			p.ID = id
		}
		if name, ok := msg["name"].(string); ok {
			p.Name = name
		}
		if size, ok := msg["dataset_size"].(float64); ok && size > 0 {
			p.DatasetSize = uint64(size)
		}
		if _, err := svc.registry.Heartbeat(ctx, p); err != nil {
			return fmt.Errorf("failed to process heartbeat: %w", err)
		}

		return nil
	})
}

func archiveKey(id uint64) string {
	return fmt.Sprintf("%020d", id)
}
