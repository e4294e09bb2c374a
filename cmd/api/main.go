package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/splitbite/splitbite-backend/api/controllers"
	"github.com/splitbite/splitbite-backend/api/routes"
	authsvc "github.com/splitbite/splitbite-backend/internal/auth"
	"github.com/splitbite/splitbite-backend/internal/cart"
	"github.com/splitbite/splitbite-backend/internal/checkout"
	"github.com/splitbite/splitbite-backend/internal/groups"
	"github.com/splitbite/splitbite-backend/internal/orders"
	"github.com/splitbite/splitbite-backend/internal/restaurants"
	"github.com/splitbite/splitbite-backend/internal/settlement"
	"github.com/splitbite/splitbite-backend/internal/users"
	"github.com/splitbite/splitbite-backend/pkg/auth/session"
	"github.com/splitbite/splitbite-backend/pkg/config"
	"github.com/splitbite/splitbite-backend/pkg/db"
	"github.com/splitbite/splitbite-backend/pkg/logger"
	"github.com/splitbite/splitbite-backend/pkg/metrics"
	"github.com/splitbite/splitbite-backend/pkg/migrate"
	"github.com/splitbite/splitbite-backend/pkg/outbox"
	"github.com/splitbite/splitbite-backend/pkg/redis"
)

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := authsvc.NewService(usersRepo, sessionManager, cfg.JWT, cfg.Password, logg)
	exitOnError(logg, "auth service", err)

	usersService, err := users.NewService(usersRepo)
	exitOnError(logg, "users service", err)

	restaurantsService, err := restaurants.NewService(restaurants.NewRepository(gormDB), logg)
	exitOnError(logg, "restaurants service", err)

	groupsService, err := groups.NewService(groups.NewRepository(gormDB), logg)
	exitOnError(logg, "groups service", err)

	cartService, err := cart.NewService(cart.NewRepository(gormDB), logg)
	exitOnError(logg, "cart service", err)

	settlementService, err := settlement.NewService(dbClient, settlement.NewRepository(gormDB), outboxService, logg)
	exitOnError(logg, "settlement service", err)

	checkoutService, err := checkout.NewService(dbClient, checkout.NewRepository(gormDB), settlementService, outboxService, logg)
	exitOnError(logg, "checkout service", err)

	ordersService, err := orders.NewService(dbClient, orders.NewRepository(gormDB), outboxService, logg)
	exitOnError(logg, "orders service", err)

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		Sessions:        sessionManager,
		Idempotency:     redisClient,
		HTTPMetrics:     httpMetrics,
		MetricsGatherer: registry,
		HealthDeps: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Auth:        authService,
		Users:       usersService,
		Restaurants: restaurantsService,
		Groups:      groupsService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      ordersService,
		Settlement:  settlementService,
	})

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
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func exitOnError(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
