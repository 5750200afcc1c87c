package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rodneyosodo/mosaic/coordinator"
	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/participant"
	"github.com/rodneyosodo/mosaic/round"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) StartRound(ctx context.Context) (round.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "start-round")
	defer span.End()

	return tm.svc.StartRound(ctx)
}

func (tm *tracing) CurrentRound(ctx context.Context, participantID string) (coordinator.RoundInfo, error) {
	ctx, span := tm.tracer.Start(ctx, "current-round", trace.WithAttributes(
		attribute.String("participant_id", participantID),
	))
	defer span.End()

	return tm.svc.CurrentRound(ctx, participantID)
}

func (tm *tracing) SubmitUpdate(ctx context.Context, update model.Update) error {
	ctx, span := tm.tracer.Start(ctx, "submit-update", trace.WithAttributes(
		attribute.Int64("round_id", int64(update.RoundID)),
		attribute.String("participant_id", update.ParticipantID),
	))
	defer span.End()

	return tm.svc.SubmitUpdate(ctx, update)
}

func (tm *tracing) GetModel(ctx context.Context, version uint64) (model.GlobalModel, error) {
	ctx, span := tm.tracer.Start(ctx, "get-model", trace.WithAttributes(
		attribute.Int64("version", int64(version)),
	))
	defer span.End()

	return tm.svc.GetModel(ctx, version)
}

func (tm *tracing) GetRound(ctx context.Context, id uint64) (round.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "get-round", trace.WithAttributes(
		attribute.Int64("id", int64(id)),
	))
	defer span.End()

	return tm.svc.GetRound(ctx, id)
}

func (tm *tracing) Heartbeat(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	ctx, span := tm.tracer.Start(ctx, "heartbeat", trace.WithAttributes(
		attribute.String("participant_id", p.ID),
	))
	defer span.End()

	return tm.svc.Heartbeat(ctx, p)
}

func (tm *tracing) ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-participants", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListParticipants(ctx, offset, limit)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}
