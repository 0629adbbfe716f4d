package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/harborfresh/storefront-backend/api/routes"
	"github.com/harborfresh/storefront-backend/internal/auth"
	"github.com/harborfresh/storefront-backend/internal/cart"
	"github.com/harborfresh/storefront-backend/internal/checkout"
	"github.com/harborfresh/storefront-backend/internal/orders"
	"github.com/harborfresh/storefront-backend/pkg/config"
	"github.com/harborfresh/storefront-backend/pkg/logger"
	"github.com/harborfresh/storefront-backend/pkg/metrics"
	"github.com/harborfresh/storefront-backend/pkg/momo"
	"github.com/harborfresh/storefront-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartMetrics(registry)

	cartStore, err := cart.NewStore(cart.StoreParams{
		Storage: redisClient,
		Key:     cfg.Storage.CartKey,
		Logger:  logg,
		Metrics: cartMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}
	cartStore.Hydrate(ctx)

	watcher, err := cart.NewWatcher(cart.WatcherParams{
		Store:    cartStore,
		Storage:  redisClient,
		TokenKey: cfg.Storage.TokenKey,
		Interval: cfg.Watcher.PollInterval,
		Logger:   logg,
		Metrics:  cartMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart watcher", err)
		os.Exit(1)
	}
	watcher.Start(ctx)

	authClient, err := auth.NewClient(cfg.Auth.BaseURL, auth.WithTimeout(cfg.Auth.Timeout))
	if err != nil {
		logg.Error(ctx, "failed to create auth client", err)
		os.Exit(1)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Client:  authClient,
		Storage: redisClient,
		Keys:    cfg.Storage,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	momoClient, err := momo.NewClient(cfg.MoMo.BaseURL, momo.WithTimeout(cfg.MoMo.Timeout))
	if err != nil {
		logg.Error(ctx, "failed to create momo client", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Storage: redisClient,
		Key:     cfg.Storage.OrderHistoryKey,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Store:            cartStore,
		Gateway:          momoClient,
		History:          ordersService,
		Logger:           logg,
		Metrics:          cartMetrics,
		DefaultOrderInfo: cfg.MoMo.DefaultOrderInfo,
		RedirectURL:      cfg.MoMo.RedirectURL,
		IPNURL:           cfg.MoMo.IPNURL,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting storefront server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, registry, cartStore, authService, checkoutService, ordersService),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "storefront server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	watcher.Stop()

	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		cartStore.Close(),
		redisClient.Close(),
	)
	if err != nil {
		logg.Error(shutdownCtx, "shutdown finished with errors", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "storefront server stopped")
}
