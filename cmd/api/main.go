package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harborline/storefront-backend/api/routes"
	"github.com/harborline/storefront-backend/internal/accounts"
	"github.com/harborline/storefront-backend/internal/cart"
	"github.com/harborline/storefront-backend/internal/catalog"
	"github.com/harborline/storefront-backend/internal/coupons"
	"github.com/harborline/storefront-backend/internal/orders"
	"github.com/harborline/storefront-backend/internal/reviews"
	"github.com/harborline/storefront-backend/internal/wishlist"
	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/db"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/metrics"
	"github.com/harborline/storefront-backend/pkg/migrate"
	"github.com/harborline/storefront-backend/pkg/outbox"
	"github.com/harborline/storefront-backend/pkg/pubsub"
	"github.com/harborline/storefront-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	conn := dbClient.DB()
	cartRepo := cart.NewRepository(conn)
	couponRepo := coupons.NewRepository(conn)
	catalogCache := catalog.NewCache(redisClient, cfg.Cache, logg)

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:  catalog.NewRepository(conn),
		Cache: catalogCache,
		Logg:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo: cartRepo,
		Logg: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	accountsService, err := accounts.NewService(accounts.ServiceParams{
		Repo:     accounts.NewRepository(conn),
		Carts:    cartService,
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logg:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:         dbClient,
		Repo:       orders.NewRepository(conn),
		CartRepo:   cartRepo,
		CouponRepo: couponRepo,
		Outbox:     outbox.NewService(outbox.NewRepository(conn), logg),
		Cache:      catalogCache,
		Metrics:    metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		Logg:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	couponsService, err := coupons.NewService(coupons.ServiceParams{
		Repo: couponRepo,
		Logg: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviews.ServiceParams{
		DB:   dbClient,
		Repo: reviews.NewRepository(conn),
		Logg: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		DB:   dbClient,
		Repo: wishlist.NewRepository(conn),
		Logg: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			pubsubClient,
			redisClient,
			accountsService,
			catalogService,
			cartService,
			ordersService,
			couponsService,
			reviewsService,
			wishlistService,
		),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
