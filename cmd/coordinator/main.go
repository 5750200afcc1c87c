package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/rodneyosodo/mosaic/coordinator"
	"github.com/rodneyosodo/mosaic/coordinator/api"
	"github.com/rodneyosodo/mosaic/coordinator/middleware"
	"github.com/rodneyosodo/mosaic/participant"
	"github.com/rodneyosodo/mosaic/pkg/aggregator"
	"github.com/rodneyosodo/mosaic/pkg/crypto"
	"github.com/rodneyosodo/mosaic/pkg/modelstore"
	"github.com/rodneyosodo/mosaic/pkg/mqtt"
	"github.com/rodneyosodo/mosaic/pkg/selector"
	"github.com/rodneyosodo/mosaic/pkg/storage"
	"github.com/rodneyosodo/mosaic/registry"
	"github.com/rodneyosodo/mosaic/round"
)

const (
	svcName       = "coordinator"
	defHTTPPort   = "7070"
	envPrefixHTTP = "COORDINATOR_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel     string        `env:"COORDINATOR_LOG_LEVEL"      envDefault:"info"`
	InstanceID   string        `env:"COORDINATOR_INSTANCE_ID"`
	DataDir      string        `env:"COORDINATOR_DATA_DIR"`
	MQTTAddress  string        `env:"COORDINATOR_MQTT_ADDRESS"`
	MQTTQoS      uint8         `env:"COORDINATOR_MQTT_QOS"       envDefault:"2"`
	MQTTTimeout  time.Duration `env:"COORDINATOR_MQTT_TIMEOUT"   envDefault:"30s"`
	ClientID     string        `env:"COORDINATOR_CLIENT_ID"`
	ClientKey    string        `env:"COORDINATOR_CLIENT_KEY"`
	Domain       string        `env:"COORDINATOR_DOMAIN"`
	Strategy     string        `env:"COORDINATOR_STRATEGY"       envDefault:"fedavg"`
	Policy       string        `env:"COORDINATOR_POLICY"         envDefault:"uniform"`
	Seed         int64         `env:"COORDINATOR_SEED"           envDefault:"0"`
	RoundTimeout time.Duration `env:"COORDINATOR_ROUND_TIMEOUT"  envDefault:"5m"`
	TargetSize   uint          `env:"COORDINATOR_TARGET_SIZE"    envDefault:"10"`
	MinCohort    uint          `env:"COORDINATOR_MIN_COHORT"     envDefault:"1"`
	MinUpdates   uint          `env:"COORDINATOR_MIN_UPDATES"    envDefault:"1"`
	Freshness    time.Duration `env:"COORDINATOR_FRESHNESS"      envDefault:"1m"`
	TokenKey     string        `env:"COORDINATOR_TOKEN_KEY"      envDefault:"mosaic-session-key"`
	OTELURL      url.URL       `env:"COORDINATOR_OTEL_URL"`
	TraceRatio   float64       `env:"COORDINATOR_TRACE_RATIO"    envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, "", cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		ps, err := mqtt.NewPubSub(cfg.MQTTAddress, cfg.MQTTQoS, svcName, cfg.ClientID, cfg.ClientKey, cfg.Domain, cfg.MQTTTimeout, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		pubsub = ps
	}

	participants := storage.NewInMemoryStorage[participant.Participant]()
	rounds := storage.NewInMemoryStorage[round.Round]()
	models := modelstore.NewInMemoryStore()
	if cfg.DataDir != "" {
		db, err := storage.Open(cfg.DataDir)
		if err != nil {
			logger.Error("failed to open storage", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("error closing storage", slog.Any("error", err))
			}
		}()
		participants = storage.NewBadgerStorage[participant.Participant](db, "participants")
		rounds = storage.NewBadgerStorage[round.Round](db, "rounds")
		models = modelstore.NewBadgerStore(db)
	}

	sel, err := selector.New(cfg.Policy, cfg.Seed, cfg.MinCohort)
	if err != nil {
		logger.Error("failed to initialize selector", slog.String("error", err.Error()))

		return
	}

	strategy, err := aggregator.New(cfg.Strategy, aggregator.DefaultParams())
	if err != nil {
		logger.Error("failed to initialize aggregation strategy", slog.String("error", err.Error()))

		return
	}

	svc, err := coordinator.NewService(
		coordinator.Config{
			Round: round.Config{
				Timeout:    cfg.RoundTimeout,
				TargetSize: cfg.TargetSize,
				MinCohort:  cfg.MinCohort,
				MinUpdates: cfg.MinUpdates,
			},
			Strategy:  cfg.Strategy,
			Policy:    cfg.Policy,
			Seed:      cfg.Seed,
			Freshness: cfg.Freshness,
			TokenKey:  []byte(cfg.TokenKey),
		},
		registry.NewService(participants, cfg.Freshness),
		sel,
		strategy,
		models,
		rounds,
		crypto.NewEd25519Verifier(),
		pubsub,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize coordinator", slog.String("error", err.Error()))

		return
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if err := svc.Subscribe(ctx); err != nil {
		logger.Error("failed to subscribe to heartbeat topic", slog.String("error", err.Error()))

		return
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
