package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/domain/card"
	"github.com/makkenzo/entitlement-service/internal/domain/category"
	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"github.com/makkenzo/entitlement-service/internal/handler"
	"github.com/makkenzo/entitlement-service/internal/handler/middleware"
	"github.com/makkenzo/entitlement-service/internal/metrics"
	"github.com/makkenzo/entitlement-service/internal/service"
	"github.com/makkenzo/entitlement-service/internal/storage/memstorage"
	"github.com/makkenzo/entitlement-service/internal/storage/postgres"
	"github.com/makkenzo/entitlement-service/internal/storage/redis"
	"github.com/makkenzo/entitlement-service/internal/worker"
	"github.com/makkenzo/entitlement-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type repositories struct {
	licenses      license.Repository
	cards         card.Repository
	cipherConfigs cipherconfig.Repository
	categories    category.Repository
}

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.NewFixedOffset(cfg.App.UTCOffsetHours)
	checks := make(map[string]handler.Pinger)

	var repos repositories
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		sugarLogger.Warn("Using in-memory storage, state is lost on restart")
		store := memstorage.NewStore()
		repos = repositories{
			licenses:      store.Licenses(),
			cards:         store.Cards(),
			cipherConfigs: store.CipherConfigs(),
			categories:    store.Categories(),
		}
	default:
		dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbPool.Close()

		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(appCtx, dbPool, appLogger); err != nil {
				sugarLogger.Fatalf("Failed to apply migrations: %v", err)
			}
		}

		checks["database"] = dbPool
		repos = repositories{
			licenses:      postgres.NewLicenseRepository(dbPool, appLogger),
			cards:         postgres.NewCardRepository(dbPool, appLogger),
			cipherConfigs: postgres.NewCipherConfigRepository(dbPool, appLogger),
			categories:    postgres.NewCategoryRepository(dbPool, appLogger),
		}
	}

	var (
		cipherCache cipherconfig.Cache
		replayGuard service.ReplayGuard
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		cipherCache = redis.NewCipherCache(redisClient, cfg.Redis.CacheTTL, appLogger)
		if cfg.Signature.ReplayGuard {
			replayGuard = redis.NewReplayGuard(redisClient, replayWindow(cfg.Signature.MaxSkew))
		}
	} else if cfg.Signature.ReplayGuard {
		sugarLogger.Warn("Signature replay guard requires Redis and is disabled")
	}

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	licenseService := service.NewLicenseService(repos.licenses, clk, &cfg.Registration, appMetrics, appLogger)
	cardService := service.NewCardService(repos.cards, clk, appMetrics, appLogger)
	cipherService := service.NewCipherConfigService(repos.cipherConfigs, cipherCache, clk, &cfg.Cipher, appLogger)
	categoryService := service.NewCategoryService(repos.categories, appLogger)
	signature := service.NewSignatureAuthenticator(&cfg.Signature, clk, replayGuard, appLogger)
	authService, err := service.NewAuthService(&cfg.Admin, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to initialize admin authentication: %v", err)
	}

	if err := cipherService.BootstrapDefault(appCtx); err != nil {
		sugarLogger.Fatalf("Failed to bootstrap default cipher config: %v", err)
	}
	if _, err := licenseService.ReconcileReferences(appCtx); err != nil {
		sugarLogger.Fatalf("Failed to reconcile license references: %v", err)
	}

	handlers := &handler.Handlers{
		Client:       handler.NewClientHandler(licenseService, cardService, cipherService, signature, clk, &cfg.App, appMetrics, appLogger),
		License:      handler.NewLicenseHandler(licenseService, cfg.Pagination.DefaultPageSize, appLogger),
		Card:         handler.NewCardHandler(cardService, cfg.Pagination.DefaultPageSize, appLogger),
		Category:     handler.NewCategoryHandler(categoryService, appLogger),
		CipherConfig: handler.NewCipherConfigHandler(cipherService, appLogger),
		Auth:         handler.NewAuthHandler(authService, appLogger),
		Dashboard:    handler.NewDashboardHandler(licenseService, cardService, categoryService, cipherService, clk, appLogger),
		Health:       handler.NewHealthHandler(checks, appLogger),
	}

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(middleware.Recovery(appLogger))

	corsConfig := cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"timestamp",
			"sign",
		},
		ExposeHeaders:    []string{"Content-Length", "X-Processing-Time"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 || slices.Contains(corsConfig.AllowOrigins, "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandlerMiddleware(appLogger))
	router.Use(middleware.NoCacheMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.RegisterRoutes(router, handlers, middleware.AuthMiddleware(authService, cfg.Admin.Debug, appLogger))

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	switch {
	case cfg.Worker.Enabled && cfg.Redis.Enabled:
		g.Go(func() error {
			if err := worker.RunWorkers(groupCtx, cfg, licenseService, appLogger); err != nil {
				sugarLogger.Error("Asynq worker failed", zap.Error(err))
				return fmt.Errorf("asynq worker error: %w", err)
			}
			sugarLogger.Info("Asynq workers finished gracefully.")
			return nil
		})
	case cfg.Worker.Enabled:
		sugarLogger.Warn("Worker requires Redis and is disabled")
	}

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}

// replayWindow must outlive the freshness window, otherwise a replayed
// signature becomes acceptable again once its guard key expires.
func replayWindow(maxSkew time.Duration) time.Duration {
	if maxSkew <= 0 {
		return 24 * time.Hour
	}
	return 2 * maxSkew
}
