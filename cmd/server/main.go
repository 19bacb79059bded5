package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/events"
	"storefront-be/internal/httpapi"
	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/payment/webhook"
	"storefront-be/internal/user"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// infra holds the connections the API is wired on.
type infra struct {
	sql       *sql.DB
	mongo     *mongo.Database
	redis     *redis.Client
	publisher order.EventPublisher
}

var (
	connectFunc       = connect
	ensureIndexesFunc = ensureIndexes
	startServerFunc   = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited with error", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, cleanup, err := connectFunc(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := ensureIndexesFunc(ctx, in.mongo); err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(httpapi.StrictRoute)
	stopLimiter := make(chan struct{})
	defer close(stopLimiter)
	go limiter.Run(stopLimiter)

	handler, err := newServer(cfg, in, limiter)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("http server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	return serve(ctx, srv, shutdownTimeout)
}

// newServer wires repositories, engines and transport on top of in.
func newServer(cfg *config.Config, in infra, limiter *middleware.RateLimiter) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	catalogRepo := catalog.NewRepository(in.mongo)
	paymentRepo := payment.NewRepository(in.sql)

	var cache cart.Cache
	if in.redis != nil {
		cache = cart.NewRedisCache(in.redis)
	}
	cartSvc := cart.NewService(cart.NewRepository(in.mongo), catalogRepo, cache)

	gateway := payment.NewBreakerGateway(
		payment.NewStripeGateway(payment.StripeConfig{SecretKey: cfg.StripeSecretKey}),
		payment.BreakerSettings{Name: "stripe", FailureThreshold: 5, OpenTimeout: 30 * time.Second},
	)

	orderSvc := order.NewService(
		order.NewRepository(in.mongo),
		cartSvc,
		catalogRepo,
		gateway,
		paymentRepo,
		in.publisher,
		order.Config{
			Currency:   cfg.PaymentCurrency,
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
		},
	)

	opts := httpapi.Options{
		Identity:       tokens,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.StripeWebhookSecret != "" {
		opts.Webhook = webhook.NewHandler(paymentRepo, cfg.StripeWebhookSecret)
	} else {
		logger.L().Warn("STRIPE_WEBHOOK_SECRET not set, webhook endpoint disabled")
	}

	return httpapi.NewRouter(httpapi.Services{
		Users:   user.NewService(user.NewRepository(in.sql), tokens),
		Catalog: catalog.NewService(catalogRepo),
		Carts:   cartSvc,
		Orders:  orderSvc,
	}, opts), nil
}

// connect opens every backing store. Redis is optional: without it the cart
// is served straight from Mongo.
func connect(ctx context.Context, cfg *config.Config) (infra, func(), error) {
	log := logger.L()

	pg, err := db.NewPostgres(cfg.DBURL)
	if err != nil {
		return infra{}, nil, err
	}

	mctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	mdb, err := db.NewMongo(mctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		pg.Close()
		return infra{}, nil, err
	}

	var rdb *redis.Client
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, cart cache disabled")
	} else if rdb, err = db.NewRedis(ctx, cfg.RedisAddr); err != nil {
		log.Warn("redis unavailable, cart cache disabled", zap.Error(err))
		rdb = nil
	}

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers...)

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mdb.Client().Disconnect(dctx)
		_ = pg.Close()
	}

	return infra{sql: pg, mongo: mdb, redis: rdb, publisher: publisher}, cleanup, nil
}

func ensureIndexes(ctx context.Context, mdb *mongo.Database) error {
	for name, create := range map[string]func(context.Context, *mongo.Database) error{
		"products": catalog.CreateIndexes,
		"carts":    cart.CreateIndexes,
		"orders":   order.CreateIndexes,
	} {
		if err := create(ctx, mdb); err != nil {
			return fmt.Errorf("%s indexes: %w", name, err)
		}
	}
	return nil
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- startServerFunc(srv) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.L().Info("server exited")
	return nil
}
