package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/game"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/configs"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/events"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/logging"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/messaging"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/store"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/tracing"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/ws"
	"github.com/Vatanesh/sbg-skribbl/internal/persistence/db"
	"github.com/Vatanesh/sbg-skribbl/internal/persistence/repository"
	"github.com/Vatanesh/sbg-skribbl/internal/presentation/api"
	"github.com/Vatanesh/sbg-skribbl/internal/presentation/handler/health"
)

const serviceName = "skribbl-server"

func main() {
	_ = godotenv.Load()

	tracerCfg := tracing.NewDefaultConfig(serviceName)
	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Setup(logging.Config{
		Level:    cfg.Logger.Level,
		FilePath: cfg.Logger.FilePath,
		Console:  cfg.Logger.Console,
	})

	// Store selection: Redis behind a failover wrapper when configured,
	// plain in-process maps otherwise.
	var gameStore domain.Store
	var degraded health.DegradedFunc
	if cfg.Redis.Enabled {
		redisStore, err := store.NewRedis(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable at startup, using in-process store")
			gameStore = store.NewMemory()
		} else {
			failover := store.NewFailover(redisStore, store.NewMemory())
			gameStore = failover
			degraded = failover.Degraded
		}
	} else {
		gameStore = store.NewMemory()
	}

	hub := ws.NewHub()

	opts := []game.Option{}

	var rabbitmq *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rabbitmq, err = messaging.NewRabbitMQ(cfg.RabbitMQ.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()
		logger.Info().Msg("connected to RabbitMQ")

		opts = append(opts, game.WithLifecyclePublisher(events.NewLifecyclePublisher(rabbitmq)))

		bridge := events.NewBridge(rabbitmq)
		hub.SetBridge(bridge)
		if err := bridge.Listen(hub); err != nil {
			log.Fatal(err)
		}

		if cfg.Mongo.Enabled {
			mongoCfg := db.NewMongoConfig(cfg.Mongo.URI, cfg.Mongo.Database)
			mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
			if err != nil {
				log.Fatal(err)
			}
			defer db.DisconnectMongo(context.Background(), mongoClient)

			auditRepo := repository.NewGameAuditLogRepository(db.GetDatabase(mongoClient, mongoCfg))
			if err := auditRepo.EnsureIndexes(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to ensure audit indexes")
			}

			auditConsumer := events.NewAuditConsumer(rabbitmq, auditRepo)
			if err := auditConsumer.Listen(); err != nil {
				log.Fatal(err)
			}
		}
	} else if cfg.Mongo.Enabled {
		logger.Warn().Msg("mongo audit trail requires rabbitmq, skipping")
	}

	svc := game.NewService(gameStore, hub, game.Defaults{
		MaxRounds:    cfg.Game.MaxRounds,
		TurnDuration: cfg.Game.TurnDuration,
	}, opts...)

	gateway := ws.NewGateway(svc, hub)
	healthHandler := health.NewHandler(degraded)

	app := api.NewApplication(cfg, gateway, healthHandler, logger.With().Str("component", "api").Logger())

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
