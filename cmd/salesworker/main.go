package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/catalog"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/events"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const groupID = "sales-worker"

type consumer interface {
	Run(ctx context.Context) error
	Close() error
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("MONGODB_URI")
	if err != nil {
		logger.L().Fatal("invalid configuration", zap.Error(err))
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L().With(zap.String("component", groupID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	mdb, err := db.NewMongo(mctx, cfg.MongoURI, cfg.MongoDatabase)
	cancel()
	if err != nil {
		log.Fatal("failed to connect mongodb", zap.Error(err))
	}
	defer func() { _ = mdb.Client().Disconnect(context.Background()) }()

	c := events.NewKafkaConsumer(
		groupID,
		events.NewSalesHandler(catalog.NewRepository(mdb)),
		[]events.Type{events.OrderPlaced},
		cfg.KafkaBrokers...,
	)

	log.Info("consuming order events", zap.Strings("brokers", cfg.KafkaBrokers))
	if err := consume(ctx, c); err != nil {
		// Exit non-zero; on restart the group resumes from the last committed offset.
		log.Error("sales worker stopped", zap.Error(err))
		return err
	}
	log.Info("sales worker stopped")
	return nil
}

// consume blocks until ctx is cancelled or the consumer gives up, then
// releases the reader.
func consume(ctx context.Context, c consumer) error {
	runErr := c.Run(ctx)
	return errors.Join(runErr, c.Close())
}
