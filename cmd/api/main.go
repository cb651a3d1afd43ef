package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/atomupload/internal/bucket"
	"github.com/abduss/atomupload/internal/config"
	"github.com/abduss/atomupload/internal/enrich"
	"github.com/abduss/atomupload/internal/event"
	"github.com/abduss/atomupload/internal/file"
	"github.com/abduss/atomupload/internal/logger"
	"github.com/abduss/atomupload/internal/presigned"
	"github.com/abduss/atomupload/internal/server"
	"github.com/abduss/atomupload/internal/storage"
	"github.com/abduss/atomupload/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgErr := config.Load()

	log, err := logger.Init(cfg.DevMode, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)

	if cfgErr != nil {
		log.Fatal("load config", zap.Error(cfgErr))
	}
	gin.SetMode(server.GinMode(cfg.DevMode))
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	classifier := bucket.NewDefaultClassifier()

	store, err := storage.OpenObjectStore(ctx, cfg, classifier.Buckets(), log)
	if err != nil {
		log.Fatal("open object store", zap.Error(err))
	}
	defer store.Close()

	pubsubClient, err := storage.NewPubSubClient(ctx, cfg.GCP)
	if err != nil {
		log.Fatal("connect pubsub", zap.Error(err))
	}
	defer pubsubClient.Close()

	publisher := event.NewPublisher(pubsubClient, cfg.GCP.Topic)
	defer publisher.Stop()

	signer := presigned.NewService(store, cfg.Storage.SignedURLTTL)
	log.Info("signed urls enabled", zap.Duration("ttl", signer.TTL()))

	checks := []server.Check{{Name: "object_store", Ping: store.Ping}}
	deps := upload.Dependencies{
		Classifier: classifier,
		Uploader:   file.NewService(store, cfg.Storage.UploadRetries),
		Signer:     signer,
		Publisher:  publisher,
		Logger:     log,
	}
	var consumerOpts []enrich.Option

	var ledger *file.Repository
	if cfg.Ledger.Enabled() {
		pool, err := storage.NewLedgerPool(ctx, cfg.Ledger)
		if err != nil {
			log.Fatal("connect ledger database", zap.Error(err))
		}
		defer pool.Close()

		ledger = file.NewRepository(pool)
		if err := ledger.EnsureSchema(ctx); err != nil {
			log.Fatal("ensure ledger schema", zap.Error(err))
		}
		deps.Ledger = ledger
		consumerOpts = append(consumerOpts, enrich.WithLedger(ledger))
		checks = append(checks, server.Check{Name: "ledger", Ping: ledger.Ping})
	}

	pipeline, err := upload.NewPipeline(upload.ServicePolicy, deps)
	if err != nil {
		log.Fatal("build upload pipeline", zap.Error(err))
	}

	router := server.NewRouter(server.Dependencies{
		Config:     cfg,
		Logger:     log,
		Classifier: classifier,
		Uploads:    upload.NewHandler(pipeline, cfg.Server.MaxUploadBytes),
		Consumer:   enrich.NewConsumer(store, log, consumerOpts...),
		Ledger:     ledger,
		Checks:     checks,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("ATOM upload API listening",
			zap.String("addr", cfg.Server.Address()),
			zap.String("backend", cfg.Storage.Backend),
			zap.String("topic", cfg.GCP.TopicPath()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
