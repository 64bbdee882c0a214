package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"verdantia-data/internal/config"
	httpapi "verdantia-data/internal/http"
	"verdantia-data/internal/logger"
	"verdantia-data/internal/mqtt"
	"verdantia-data/internal/predictor"
	"verdantia-data/internal/repository"
	"verdantia-data/internal/scheduler"
	"verdantia-data/internal/service"
	"verdantia-data/internal/store"
	"verdantia-data/internal/telemetry"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "verdantia-data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	loc, err := cfg.PartitionLocation()
	if err != nil {
		log.Fatal("Invalid partition time zone",
			zap.String("tz", cfg.Telemetry.PartitionTZ), zap.Error(err))
	}

	db, err := store.NewPostgresDB(cfg.GetDSN())
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	kv := store.NewRedisKV(redisClient)

	tstore := telemetry.NewStore(kv, loc, log)
	windows := telemetry.NewAggregator(tstore)

	sectorsRepo := repository.NewPostgresSectorsRepository(db)
	devicesRepo := repository.NewPostgresDevicesRepository(db)
	usersRepo := repository.NewPostgresUsersRepository(db)
	farmsRepo := repository.NewPostgresFarmsRepository(db)
	plantsRepo := repository.NewPostgresPlantsRepository(db)
	anomaliesRepo := repository.NewPostgresAnomaliesRepository(db)

	predictorClient := predictor.NewClient(cfg.Predictor.Addr, cfg.Predictor.Timeout, log)

	messaging := service.NewMessagingService(usersRepo, farmsRepo, sectorsRepo, plantsRepo,
		service.NewLogPusher(log), loc, log)
	anomalySvc := service.NewAnomalyService(anomaliesRepo, sectorsRepo, devicesRepo, messaging, log)
	reconciler := service.NewReconciler(sectorsRepo, log)
	ingest := service.NewIngestService(sectorsRepo, tstore, windows, predictorClient,
		reconciler, anomalySvc, cfg.Telemetry.GracePeriod, cfg.Telemetry.WindowSize, log)
	sectorSvc := service.NewSectorService(sectorsRepo, farmsRepo, devicesRepo, plantsRepo,
		anomaliesRepo, tstore, log)

	router := httpapi.NewRouter(log)
	router.RegisterSectorRoutes(httpapi.NewSectorHandler(ingest, sectorSvc, tstore,
		sectorsRepo, anomaliesRepo, log))
	router.RegisterMessageRoutes(httpapi.NewMessageHandler(usersRepo, messaging, log))
	router.RegisterEntityRoutes(httpapi.NewCrudHandler(usersRepo, devicesRepo, farmsRepo,
		plantsRepo, sectorsRepo, log))
	router.RegisterHealthRoute()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	liveness := scheduler.NewLivenessSweeper(sectorsRepo, tstore,
		cfg.Liveness.Timeout, cfg.Liveness.SweepInterval, log)
	go liveness.Run(ctx)

	reminders := scheduler.NewReminderSweeper(usersRepo, messaging,
		cfg.Reminder.SweepInterval, log)
	go reminders.Run(ctx)

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Fatal("MQTT connection failed", zap.Error(err))
		}
		broker := mqtt.NewReadingsBroker(mqttClient, ingest, cfg.MQTT.Topic, cfg.MQTT.QoS, log)
		if err := broker.Start(ctx); err != nil {
			log.Fatal("MQTT subscription failed", zap.Error(err))
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Shutdown signal received")
	case err := <-errCh:
		log.Error("HTTP server failed", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
}
