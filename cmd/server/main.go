package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/holoreel/video-sync/internal/api"
	"github.com/holoreel/video-sync/internal/config"
	"github.com/holoreel/video-sync/internal/db"
	"github.com/holoreel/video-sync/internal/httpapi"
	"github.com/holoreel/video-sync/internal/ingest"
	"github.com/holoreel/video-sync/internal/log"
	"github.com/holoreel/video-sync/internal/notify"
	"github.com/holoreel/video-sync/internal/retry"
	"github.com/holoreel/video-sync/internal/signature"
	"github.com/holoreel/video-sync/internal/stream"
	"github.com/holoreel/video-sync/internal/sweep"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	environment := os.Getenv("ENVIRONMENT")
	if err := log.Init(environment); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting video sync engine")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	log.Info("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Port),
		zap.Bool("strict_signature", cfg.StrictSignature),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	ctx := context.Background()
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	videos := db.NewVideoRepository(database)
	logs := db.NewWebhookLogRepository(database)
	notifications := db.NewNotificationRepository(database)

	streamClient := stream.NewClient(cfg.StreamAPIBaseURL, cfg.StreamAPIToken, cfg.StreamAPITimeout)
	verifier := signature.NewVerifier(cfg.WebhookSecret, cfg.StrictSignature)
	if !verifier.Enabled() {
		log.Warn("webhook signature verification disabled: WEBHOOK_SECRET is not set")
	}

	executor := retry.NewExecutor(cfg.Retry)
	notifier := notify.NewNotifier(notifications)
	processor := ingest.NewProcessor(videos, notifier, executor)
	sweeper := sweep.NewSweeper(videos, streamClient, processor)

	handler := api.NewHandler(videos, logs, processor, sweeper, streamClient, verifier)

	var sweepCancel context.CancelFunc
	if cfg.SweepInterval > 0 {
		var sweepCtx context.Context
		sweepCtx, sweepCancel = context.WithCancel(context.Background())
		go sweeper.RunPeriodic(sweepCtx, cfg.SweepInterval)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	// Health check endpoints (no auth required)
	router.GET("/healthz", healthzHandler())
	router.GET("/readyz", readyzHandler(database))

	// Webhook receiver: authenticated by HMAC signature, not API key.
	router.POST("/webhooks/stream", handler.HandleWebhook)
	router.GET("/webhooks/stream", handler.WebhookInfo)
	router.PUT("/webhooks/stream", handler.WebhookMethodNotAllowed)
	router.PATCH("/webhooks/stream", handler.WebhookMethodNotAllowed)
	router.DELETE("/webhooks/stream", handler.WebhookMethodNotAllowed)

	// Read and trigger API (API key auth required)
	v1 := router.Group("/api/v1")
	v1.Use(httpapi.APIKeyAuth(cfg.APIKey))
	{
		v1.POST("/videos", httpapi.RateLimit(10, time.Minute), handler.CreateVideo)
		v1.GET("/videos", httpapi.RateLimit(100, time.Minute), handler.ListVideos)
		v1.GET("/videos/:video_id", httpapi.RateLimit(100, time.Minute), handler.GetVideo)
		v1.GET("/videos/:video_id/logs", httpapi.RateLimit(100, time.Minute), handler.ListVideoLogs)
		v1.POST("/videos/:video_id/retry", httpapi.RateLimit(10, time.Minute), handler.RetryVideo)
		v1.POST("/reconcile", httpapi.RateLimit(10, time.Minute), handler.ReconcileAll)
		v1.POST("/reconcile/video", httpapi.RateLimit(10, time.Minute), handler.ReconcileVideo)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	if sweepCancel != nil {
		sweepCancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func healthzHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func readyzHandler(database *db.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "database connection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
