package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/wovenfs/txncore/internal/controlplane"
	"github.com/wovenfs/txncore/internal/inodewriteback"
	"github.com/wovenfs/txncore/internal/itemstore"
	"github.com/wovenfs/txncore/internal/segment"
	"github.com/wovenfs/txncore/internal/tracing"
	"github.com/wovenfs/txncore/internal/txn"
	"github.com/wovenfs/txncore/pkg/config"
	"github.com/wovenfs/txncore/pkg/metrics"
)

func main() {
	cfg := config.Load()
	logger := initLogger(cfg)

	metrics.RegisterMetrics()
	counters := metrics.NewCounters()

	tracerProvider, err := tracing.NewTracerProvider(tracing.Config{
		ServiceName:    "txncored",
		ServiceVersion: "0.1.0",
		Environment:    "production",
	})
	if err != nil {
		logger.Fatalf("failed to initialize tracing: %v", err)
	}

	store := itemstore.New(cfg.SegmentByteBudget())
	vaultAddr := ""
	if cfg.VaultEnabled() {
		vaultAddr = cfg.VaultAddr()
	}
	segWriter := segment.New(segment.Config{
		VaultAddr:  vaultAddr,
		TransitKey: cfg.VaultTransitKey(),
	})
	cc := buildControlClient(cfg)
	writeback := inodewriteback.New(nil)

	core := txn.Setup(txn.Config{
		ItemStore:      store,
		InodeWriteback: writeback,
		SegmentWriter:  segWriter,
		ControlClient:  cc,
		Counters:       counters,
		Tracer:         tracerProvider,
		Logger:         logger,
		SyncDelay:      cfg.SyncDelay(),
	})

	router := setupRouter(core, cc, logger)

	server := &http.Server{
		Addr:    cfg.ServerAddr(),
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Infof("txncored listening on %s", cfg.ServerAddr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}

	core.Shutdown(shutdownCtx)
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("tracer shutdown: %v", err)
	}

	logger.Info("exited")
}

func buildControlClient(cfg *config.Config) *controlplane.Resilient {
	var inner txn.ControlClient
	switch cfg.ControlPlaneBackend() {
	case "redis":
		inner = controlplane.NewRedisClient(controlplane.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword(),
			DB:       cfg.RedisDB(),
		})
	case "postgres":
		client, err := controlplane.NewPostgresClient(context.Background(), cfg.PostgresDSN())
		if err != nil {
			logrus.Fatalf("failed to connect to postgres control plane: %v", err)
		}
		inner = client
	default:
		inner = controlplane.NewMemoryClient()
	}

	return controlplane.NewResilient(inner, controlplane.ResilientConfig{
		MaxAttempts:      cfg.RetryMaxAttempts(),
		InitialInterval:  cfg.RetryInitialInterval(),
		FailureThreshold: cfg.CircuitFailureThreshold(),
		ResetTimeout:     cfg.CircuitResetTimeout(),
	})
}

func initLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel())
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	return logger
}

func setupRouter(core *txn.Core, cc *controlplane.Resilient, logger *logrus.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/healthz/controlplane", func(c *gin.Context) {
		stats := cc.Stats()
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{"status": "no requests yet"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	router.POST("/sync", func(c *gin.Context) {
		wait := c.Query("wait") != "false"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		if err := core.Sync(ctx, wait); err != nil {
			logger.Errorf("sync failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
