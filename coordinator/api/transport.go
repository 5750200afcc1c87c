package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rodneyosodo/mosaic/coordinator"
	"github.com/rodneyosodo/mosaic/pkg/api"
)

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/rounds", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			startRoundEndpoint(svc),
			decodeStartRoundReq,
			api.EncodeResponse,
			opts...,
		), "start-round").ServeHTTP)
		r.Get("/current", otelhttp.NewHandler(kithttp.NewServer(
			currentRoundEndpoint(svc),
			decodeCurrentRoundReq,
			api.EncodeResponse,
			opts...,
		), "current-round").ServeHTTP)
		r.Get("/{roundID}", otelhttp.NewHandler(kithttp.NewServer(
			getRoundEndpoint(svc),
			decodeGetRoundReq,
			api.EncodeResponse,
			opts...,
		), "get-round").ServeHTTP)
	})

	mux.Post("/updates", otelhttp.NewHandler(kithttp.NewServer(
		submitUpdateEndpoint(svc),
		decodeSubmitUpdateReq,
		api.EncodeResponse,
		opts...,
	), "submit-update").ServeHTTP)

	mux.Route("/models", func(r chi.Router) {
		r.Get("/latest", otelhttp.NewHandler(kithttp.NewServer(
			getModelEndpoint(svc),
			decodeLatestModelReq,
			api.EncodeResponse,
			opts...,
		), "get-latest-model").ServeHTTP)
		r.Get("/{version}", otelhttp.NewHandler(kithttp.NewServer(
			getModelEndpoint(svc),
			decodeGetModelReq,
			api.EncodeResponse,
			opts...,
		), "get-model").ServeHTTP)
	})

	mux.Route("/participants", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listParticipantsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-participants").ServeHTTP)
		r.Post("/{participantID}/heartbeat", otelhttp.NewHandler(kithttp.NewServer(
			heartbeatEndpoint(svc),
			decodeHeartbeatReq,
			api.EncodeResponse,
			opts...,
		), "heartbeat").ServeHTTP)
	})

	mux.Get("/health", supermq.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeStartRoundReq(_ context.Context, _ *http.Request) (any, error) {
	return startRoundReq{}, nil
}

func decodeCurrentRoundReq(_ context.Context, r *http.Request) (any, error) {
	return currentRoundReq{
		participantID: r.URL.Query().Get("participant_id"),
	}, nil
}

func decodeGetRoundReq(_ context.Context, r *http.Request) (any, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "roundID"), 10, 64)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return getRoundReq{id: id}, nil
}

func decodeLatestModelReq(_ context.Context, _ *http.Request) (any, error) {
	return getModelReq{}, nil
}

func decodeGetModelReq(_ context.Context, r *http.Request) (any, error) {
	version, err := strconv.ParseUint(chi.URLParam(r, "version"), 10, 64)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return getModelReq{version: version}, nil
}

// Updates arrive as JSON or, for constrained clients, CBOR.
func decodeSubmitUpdateReq(_ context.Context, r *http.Request) (any, error) {
	var req submitUpdateReq
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, api.ContentTypeCBOR):
		if err := cbor.NewDecoder(r.Body).Decode(&req.Update); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	case strings.Contains(ct, api.ContentType):
		if err := json.NewDecoder(r.Body).Decode(&req.Update); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	default:
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	return req, nil
}

func decodeHeartbeatReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req heartbeatReq
	if err := json.NewDecoder(r.Body).Decode(&req.Participant); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}
	req.Participant.ID = chi.URLParam(r, "participantID")

	return req, nil
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	offset, err := readNumQuery(r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, err
	}
	limit, err := readNumQuery(r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, err
	}
	if limit > api.MaxLimitSize {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrLimitSize)
	}

	return listEntityReq{offset: offset, limit: limit}, nil
}

func readNumQuery(r *http.Request, key string, def uint64) (uint64, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def, nil
	}
	num, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, errors.Join(apiutil.ErrValidation, err)
	}

	return num, nil
}
