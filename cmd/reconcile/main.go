package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"

	"go.uber.org/zap"
)

type reconciler interface {
	Run(ctx context.Context) (payment.ReconcileResult, error)
}

func main() {
	interval := flag.Duration("interval", 0, "repeat the sweep at this interval; 0 runs once")
	flag.Parse()

	cfg, err := config.Load("DB_URL", "MONGODB_URI", "STRIPE_SECRET_KEY")
	if err != nil {
		logger.L().Fatal("invalid configuration", zap.Error(err))
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L().With(zap.String("component", "reconcile"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.NewPostgres(cfg.DBURL)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	mctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	mdb, err := db.NewMongo(mctx, cfg.MongoURI, cfg.MongoDatabase)
	cancel()
	if err != nil {
		log.Fatal("failed to connect mongodb", zap.Error(err))
	}
	defer func() { _ = mdb.Client().Disconnect(context.Background()) }()

	r := &payment.Reconciler{
		Ledger:  payment.NewRepository(pg),
		Gateway: payment.NewStripeGateway(payment.StripeConfig{SecretKey: cfg.StripeSecretKey}),
		Orders:  order.PaymentLookup{Repo: order.NewRepository(mdb)},
		After:   cfg.ReconcileAfter,
	}

	if err := sweep(ctx, r, *interval); err != nil {
		log.Error("reconciliation finished with errors", zap.Error(err))
		os.Exit(1)
	}
}

// sweep runs r once, or every interval until ctx is cancelled. Errors of
// periodic runs are logged and the loop continues.
func sweep(ctx context.Context, r reconciler, interval time.Duration) error {
	log := logger.FromCtx(ctx).With(zap.String("component", "reconcile"))

	runOnce := func() error {
		res, err := r.Run(ctx)
		log.Info("reconciliation pass",
			zap.Int("refunded", res.Refunded),
			zap.Int("recorded", res.Recorded),
			zap.Int("abandoned", res.Abandoned),
			zap.Error(err),
		)
		return err
	}

	if interval <= 0 {
		return runOnce()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		_ = runOnce()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
