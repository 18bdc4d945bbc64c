package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/opdclinic/booking-api/internal/config"
	appointmentHandler "github.com/opdclinic/booking-api/internal/handler/appointment"
	healthHandler "github.com/opdclinic/booking-api/internal/handler/health"
	"github.com/opdclinic/booking-api/internal/middleware"
	"github.com/opdclinic/booking-api/internal/repository"
	"github.com/opdclinic/booking-api/internal/repository/postgres"
	"github.com/opdclinic/booking-api/internal/router"
	appointmentService "github.com/opdclinic/booking-api/internal/service/appointment"
	"github.com/opdclinic/booking-api/pkg/cache"
	"github.com/opdclinic/booking-api/pkg/logger"
	"github.com/opdclinic/booking-api/pkg/metrics"
)

func main() {
	appLogger := logger.NewLogger(nil)
	log.Logger = *appLogger.Zerolog()

	if err := middleware.RegisterValidations(); err != nil {
		appLogger.Fatal(err, "failed to register request validations")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	var availabilityCache cache.Cache
	if cfg.Redis.Enabled {
		availabilityCache, err = cache.NewRedis(cache.RedisConfig{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			appLogger.Fatal(err, "failed to connect to Redis")
		}
	} else {
		availabilityCache = cache.NewMemory(time.Minute)
	}
	defer availabilityCache.Close()

	appMetrics := metrics.NewMetrics(cfg.Metrics.Namespace, "api")

	appointmentRepo := repository.NewInstrumentedRepository(postgres.NewAppointmentRepository(db), appMetrics)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo,
		availabilityCache,
		log.Logger,
		appointmentService.WithMetrics(appMetrics),
	)

	var rateLimit rate.Limit
	if cfg.RateLimit.Enabled {
		rateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	r := router.NewRouter(router.Config{
		RateLimit:     rateLimit,
		RateBurst:     cfg.RateLimit.Burst,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: cfg.Metrics.Namespace,
		MetricsPath:   cfg.Metrics.Path,
	})
	r.Setup(
		appointmentHandler.NewHandler(appointmentSvc),
		healthHandler.NewHandler(db),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal(err, "server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
