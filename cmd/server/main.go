package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	"ecovision-etl/internal/domain/repository"
	"ecovision-etl/internal/domain/taxonomy"
	"ecovision-etl/internal/infrastructure/config"
	"ecovision-etl/internal/infrastructure/persistence"
	"ecovision-etl/internal/infrastructure/router"
	"ecovision-etl/internal/interface/handler"
	repo "ecovision-etl/internal/interface/repository"
	"ecovision-etl/internal/usecase"
	"ecovision-etl/pkg/logger"
	"ecovision-etl/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slack-go/slack"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger().Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLoggerWithLevel(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting biodiversity ETL service", "version", cfg.AppVersion)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Record store
	log.Info("Connecting to record store", "driver", cfg.DBDriver)
	gormDB, err := persistence.NewGormDB(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("Failed to connect to record store", "error", err)
	}
	store := repo.NewGormRecordStore(gormDB)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("Failed to migrate record store", "error", err)
	}

	// Execution history
	var history repository.ExecutionHistoryRepository
	var mongoClient *mongo.Client
	switch cfg.HistoryBackend {
	case config.HistoryMongo:
		log.Info("Connecting to MongoDB")
		mongoClient, err = persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		history = repo.NewMongoExecutionHistoryRepository(persistence.GetDatabase(mongoClient, cfg.MongoDB))
	default:
		history = repo.NewFileExecutionHistoryRepository(filepath.Join(cfg.LogDir, "execution_history.json"))
	}

	// Failure notifications
	notifiers := []repository.Notifier{repo.NewLogNotifier(log)}
	if cfg.SlackBotToken != "" && cfg.SlackChannelID != "" {
		notifiers = append(notifiers, repo.NewSlackNotifier(slack.New(cfg.SlackBotToken), cfg.SlackChannelID, log))
	}
	if cfg.AlertWebhookURL != "" {
		notifiers = append(notifiers, repo.NewWebhookNotifier(cfg.AlertWebhookURL, cfg.AlertWebhookToken, log))
	}
	notifier := repo.NewMultiNotifier(notifiers...)

	// Pipeline and scheduler
	tax, err := taxonomy.Default()
	if err != nil {
		log.Fatal("Failed to load species taxonomy", "error", err)
	}
	m := metrics.NewMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
	transformer := usecase.NewTransformer(tax, usecase.CostaRicaGeofence, cfg.Location())
	pipeline := usecase.NewETLPipeline(
		store,
		repo.NewCSVBackupWriter(cfg.BackupDir, log),
		repo.NewJSONRunLogWriter(cfg.LogDir, cfg.AppVersion),
		transformer,
		m,
		log,
	)
	scheduler := usecase.NewScheduler(
		ctx,
		pipeline,
		repo.NewFileScheduleConfigRepository(cfg.SchedulerConfigPath, log),
		history,
		notifier,
		m,
		log,
		usecase.SchedulerOptions{
			PollInterval: cfg.SchedulerPollInterval,
			Location:     cfg.Location(),
		},
	)
	if cfg.SchedulerAutostart {
		scheduler.Start()
	}

	// Set up HTTP server
	r := router.NewRouter(log)
	handler.NewPipelineHandler(scheduler, log).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Register(http.MethodGet, "/health", handler.Health)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	cancel()

	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("Biodiversity ETL service stopped")
}
