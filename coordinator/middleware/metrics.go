package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/rodneyosodo/mosaic/coordinator"
	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/participant"
	"github.com/rodneyosodo/mosaic/round"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) StartRound(ctx context.Context) (round.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "start-round").Add(1)
		mm.latency.With("method", "start-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.StartRound(ctx)
}

func (mm *metricsMiddleware) CurrentRound(ctx context.Context, participantID string) (coordinator.RoundInfo, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "current-round").Add(1)
		mm.latency.With("method", "current-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CurrentRound(ctx, participantID)
}

func (mm *metricsMiddleware) SubmitUpdate(ctx context.Context, update model.Update) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update").Add(1)
		mm.latency.With("method", "submit-update").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdate(ctx, update)
}

func (mm *metricsMiddleware) GetModel(ctx context.Context, version uint64) (model.GlobalModel, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-model").Add(1)
		mm.latency.With("method", "get-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetModel(ctx, version)
}

func (mm *metricsMiddleware) GetRound(ctx context.Context, id uint64) (round.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-round").Add(1)
		mm.latency.With("method", "get-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRound(ctx, id)
}

func (mm *metricsMiddleware) Heartbeat(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "heartbeat").Add(1)
		mm.latency.With("method", "heartbeat").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Heartbeat(ctx, p)
}

func (mm *metricsMiddleware) ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-participants").Add(1)
		mm.latency.With("method", "list-participants").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListParticipants(ctx, offset, limit)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "subscribe").Add(1)
		mm.latency.With("method", "subscribe").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Subscribe(ctx)
}
