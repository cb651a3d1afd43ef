package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/abduss/atomupload/internal/bucket"
	"github.com/abduss/atomupload/internal/config"
	"github.com/abduss/atomupload/internal/enrich"
	"github.com/abduss/atomupload/internal/file"
	"github.com/abduss/atomupload/internal/logger"
	"github.com/abduss/atomupload/internal/storage"
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

	if cfgErr != nil {
		log.Fatal("load config", zap.Error(cfgErr))
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.OpenObjectStore(ctx, cfg, bucket.NewDefaultClassifier().Buckets(), log)
	if err != nil {
		log.Fatal("open object store", zap.Error(err))
	}
	defer store.Close()

	pubsubClient, err := storage.NewPubSubClient(ctx, cfg.GCP)
	if err != nil {
		log.Fatal("connect pubsub", zap.Error(err))
	}
	defer pubsubClient.Close()

	var opts []enrich.Option
	if cfg.Ledger.Enabled() {
		pool, err := storage.NewLedgerPool(ctx, cfg.Ledger)
		if err != nil {
			log.Fatal("connect ledger database", zap.Error(err))
		}
		defer pool.Close()
		opts = append(opts, enrich.WithLedger(file.NewRepository(pool)))
	}

	consumer := enrich.NewConsumer(store, log, opts...)
	sub := pubsubClient.Subscription(cfg.GCP.Subscription)
	if err := consumer.Run(ctx, sub, cfg.GCP.MaxOutstanding); err != nil {
		log.Error("subscriber stopped", zap.Error(err))
	}
	log.Info("enricher stopped")
}
